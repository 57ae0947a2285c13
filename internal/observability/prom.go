package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Calls to the remote project-management API.
	UpstreamDuration    *prometheus.HistogramVec
	UpstreamErrorsTotal *prometheus.CounterVec

	// Session store operations.
	StoreOpsDuration *prometheus.HistogramVec
	StoreErrorsTotal *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "console",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "console",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "console",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "console",
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Remote API call latency by method and path.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		UpstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "console",
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Remote API failures by method and path. status=0 means transport error.",
			},
			[]string{"method", "path", "status"},
		),
		StoreOpsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "console",
				Subsystem: "session_store",
				Name:      "op_duration_seconds",
				Help:      "Session store operation latency by op and status.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"op", "status"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "console",
				Subsystem: "session_store",
				Name:      "errors_total",
				Help:      "Session store failures by op and cause.",
			},
			[]string{"op", "cause"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.UpstreamDuration, p.UpstreamErrorsTotal, p.StoreOpsDuration, p.StoreErrorsTotal)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// ObserveUpstream satisfies the api client's Observer hook.
func (p *Prom) ObserveUpstream(method, path string, status int, seconds float64) {
	label := strconv.Itoa(status)

	p.UpstreamDuration.WithLabelValues(method, path, label).Observe(seconds)

	if status == 0 || status >= 400 {
		p.UpstreamErrorsTotal.WithLabelValues(method, path, label).Inc()
	}
}
