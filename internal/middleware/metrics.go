package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/pkg/metrics"
)

// Metrics measures execution time and status for every update, reporting them to Prometheus.
func Metrics(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordUpdate(Action(c), status, time.Since(start))

		return err
	}
}
