package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telegram bot metrics
var (
	commandsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_processed_total",
			Help: "Total number of processed commands by type",
		},
		[]string{"command"}, // start, help, retry, unknown
	)

	messagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_messages_processed_total",
			Help: "Total number of free-text messages handled as expenses",
		},
	)

	sendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_send_errors_total",
			Help: "Total number of replies that could not be delivered",
		},
	)
)
