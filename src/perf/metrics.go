package perf

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_request_duration_seconds",
			Help:    "Time spent serving HTTP requests, by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_query_duration_seconds",
			Help:    "Time spent in named SQL queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)
	LikesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_likes_toggled_total",
			Help: "Number of like toggles, by resulting state",
		},
		[]string{"state"},
	)
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_registrations_total",
			Help: "Registration attempts, by outcome",
		},
		[]string{"outcome"},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_login_attempts_total",
			Help: "Login attempts, by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(LikesToggled)
	prometheus.MustRegister(Registrations)
	prometheus.MustRegister(LoginAttempts)
}

func observeRequest(rp *RequestPerf) {
	RequestDuration.
		WithLabelValues(rp.Route, rp.Method, strconv.Itoa(rp.Status)).
		Observe(rp.Duration().Seconds())

	for i := range rp.Blocks {
		block := &rp.Blocks[i]
		if block.Category == "SQL" {
			QueryDuration.WithLabelValues(block.Description).Observe(block.Duration().Seconds())
		}
	}
}
