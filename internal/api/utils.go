package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lobby-backend/internal/api/middleware"
	"lobby-backend/internal/queue"

	"github.com/sirupsen/logrus"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs f on the request queue's worker pool behind CORS,
// request logging and any extra middlewares. A returned *HTTPError becomes
// its status and message; anything else is a 500.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, extra ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		job := queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		}

		if !s.requestQueueManager.EnqueueJob(job) {
			WriteJSON(w, http.StatusServiceUnavailable, ApiError{Error: "Server is shutting down"})
			return
		}

		if err := <-errc; err != nil {
			s.writeError(w, r, err)
		}
	}

	middlewares := []middleware.Middleware{
		middleware.CORS(s.cors),
		middleware.Logging(s.log),
	}
	middlewares = append(middlewares, extra...)

	return middleware.Chain(baseHandler, middlewares...)
}

// MakeStreamHandler is for long-lived handlers such as websocket upgrades,
// which must not occupy a queue worker.
func (s *APIServer) MakeStreamHandler(h http.Handler) http.HandlerFunc {
	return middleware.Chain(h.ServeHTTP, middleware.Logging(s.log))
}

func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.ErrorLog != nil {
			s.log.WithError(httpErr.ErrorLog).WithFields(logrus.Fields{
				"path":   r.URL.Path,
				"status": httpErr.StatusCode,
			}).Debug("request failed")
		}
		WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
		return
	}
	s.log.WithError(err).WithField("path", r.URL.Path).Error("unhandled request error")
	WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
}
