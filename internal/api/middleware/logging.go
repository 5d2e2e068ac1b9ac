package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"lobby-backend/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the logger.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		if r.status == 0 {
			r.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("statusRecorder: underlying ResponseWriter does not support hijacking")
}

const RequestIDHeader = "X-Request-ID"

// Logging writes one structured line per request through log.
func Logging(log *logrus.Entry) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			next(rec, r)

			fields := logrus.Fields{
				"method":     r.Method,
				"uri":        r.URL.RequestURI(),
				"status":     rec.status,
				"size":       rec.size,
				"duration":   time.Since(start).String(),
				"client_ip":  utils.RealClientIP(r),
				"user_agent": r.UserAgent(),
				"request_id": reqID,
			}
			if ref := r.Referer(); ref != "" {
				fields["referer"] = ref
			}

			entry := log.WithFields(fields)
			switch {
			case rec.status >= http.StatusInternalServerError:
				entry.Error("request handled")
			case rec.status >= http.StatusBadRequest:
				entry.Warn("request handled")
			default:
				entry.Info("request handled")
			}
		}
	}
}
