package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of emails handed to the email provider",
		},
		[]string{"result"},
	)

	emailBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "email_circuit_breaker_state",
			Help: "Email provider circuit breaker state (0 closed, 0.5 half-open, 1 open)",
		},
	)

	programCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "program_cache_lookups_total",
			Help: "Program cache lookups by result",
		},
		[]string{"result"},
	)
)
