// Package metrics exposes Prometheus request and application counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	UserRegistered  = "user_registered"
	LoginSucceeded  = "login_succeeded"
	LoginFailed     = "login_failed"
	PostCreated     = "post_created"
	CommentCreated  = "comment_created"
	FriendAdded     = "friend_added"
	ProfileUpdated  = "profile_updated"
	UploadStored    = "upload_stored"
	RegisterRefused = "register_refused"
)

// Metrics owns its registry so several servers (tests) can coexist in one
// process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	eventsTotal         *prometheus.CounterVec
	deniedTotal         *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_events_total",
				Help: "Application events such as registrations, posts and comments",
			},
			[]string{"event"},
		),
		deniedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_authorization_denied_total",
				Help: "Requests turned away by the authorization check",
			},
			[]string{"reason"},
		),
	}
}

// ObserveRequest records one finished request. route is the mux pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Event(name string) {
	m.eventsTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) Denied(reason string) {
	m.deniedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
