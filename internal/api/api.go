package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"lobby-backend/internal/api/middleware"
	internaljwt "lobby-backend/internal/jwt"
	"lobby-backend/internal/logging"
	"lobby-backend/internal/queue"
	"lobby-backend/internal/service/lobby"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type Config struct {
	ListenAddr string
	CORS       middleware.CORSConfig
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Dependencies are the shared components route registrars reach through
// the server.
type Dependencies struct {
	Lobby       *lobby.Service
	Sockets     http.Handler
	Issuer      *internaljwt.Issuer
	RateCounter middleware.Counter
	RateMax     int
	RateWindow  time.Duration
	Logger      *logrus.Entry
}

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
	cors                middleware.CORSConfig
	deps                Dependencies
	log                 *logrus.Entry

	once    sync.Once
	handler http.Handler
}

func NewAPIServer(cfg Config, rqm *queue.RequestQueueManager, deps Dependencies, registrars ...RouteRegistrar) *APIServer {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	return &APIServer{
		listenAddr:          cfg.ListenAddr,
		requestQueueManager: rqm,
		routeRegistrars:     registrars,
		metrics:             newMetrics(cfg.Registerer, cfg.Gatherer, cfg.ListenAddr, rqm),
		cors:                cfg.CORS,
		deps:                deps,
		log:                 deps.Logger.WithField("component", "http"),
	}
}

// Handler builds the routed, instrumented handler once.
func (s *APIServer) Handler() http.Handler {
	s.once.Do(func() {
		mux := http.NewServeMux()
		for _, reg := range s.routeRegistrars {
			reg(mux, s)
		}
		mux.Handle("/metrics", s.metrics.metricsHandler())
		s.handler = s.metrics.instrument(mux)
	})
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.listenAddr).Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *APIServer) Lobby() *lobby.Service {
	return s.deps.Lobby
}

func (s *APIServer) Sockets() http.Handler {
	return s.deps.Sockets
}

func (s *APIServer) Issuer() *internaljwt.Issuer {
	return s.deps.Issuer
}

func (s *APIServer) Logger() *logrus.Entry {
	return s.log
}

// RateLimit is the per-client limiter configured for public query routes.
func (s *APIServer) RateLimit() middleware.Middleware {
	return middleware.RateLimit(s.deps.RateCounter, s.deps.RateMax, s.deps.RateWindow, s.log)
}
