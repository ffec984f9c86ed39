package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_messages_sent_total",
		Help: "Number of direct messages accepted for delivery.",
	})
	loginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_logins_total",
		Help: "Number of successful logins.",
	})
	passwordResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_password_resets_total",
		Help: "Number of completed password resets.",
	})
)
