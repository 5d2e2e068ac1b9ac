package api

import (
	"net/http"

	"lobby-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

// metrics holds the HTTP collectors for one APIServer.
type metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   prometheus.Gauge
	queueDepth prometheus.GaugeFunc
	gatherer   prometheus.Gatherer
}

func newMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer, listenAddr string, q *queue.RequestQueueManager) *metrics {
	labels := prometheus.Labels{"listen_addr": listenAddr}

	m := &metrics{
		gatherer: gatherer,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "lobby_http_requests_total",
				Help:        "HTTP requests by route, method and status code.",
				ConstLabels: labels,
			},
			[]string{"route", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "lobby_http_request_duration_seconds",
				Help:        "HTTP request latency by route, method and status code.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"route", "method", "code"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "lobby_http_inflight_requests",
			Help:        "Requests currently being served, websocket upgrades included.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight)

	if q != nil {
		m.queueDepth = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        "lobby_request_queue_depth",
				Help:        "Jobs waiting for a queue worker.",
				ConstLabels: labels,
			},
			func() float64 { return float64(q.Depth()) },
		)
		reg.MustRegister(m.queueDepth)
	}
	return m
}

func (m *metrics) metricsHandler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// instrument labels each request with the mux pattern it matched, which keeps
// the route label bounded no matter what paths clients send.
func (m *metrics) instrument(mux *http.ServeMux) http.Handler {
	return promhttp.InstrumentHandlerInFlight(m.inFlight, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, route := mux.Handler(r)
		if route == "" {
			route = unmatchedRoute
		}
		byRoute := prometheus.Labels{"route": route}
		h := promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(byRoute),
			promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(byRoute), mux))
		h.ServeHTTP(w, r)
	}))
}
