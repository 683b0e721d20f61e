package notify

import (
	"context"

	"git.0xdad.com/tblyler/ocutrack/reminder"
	"github.com/rs/zerolog"
)

// Log writes alerts to the logger. Used when no push service is configured.
type Log struct {
	log zerolog.Logger
}

// NewLog notifier
func NewLog(logger zerolog.Logger) *Log {
	return &Log{log: logger.With().Str("component", "alerts").Logger()}
}

// Notify logs the alert
func (l *Log) Notify(ctx context.Context, alert reminder.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.log.Info().
		Str("kind", string(alert.Kind)).
		Str("medication_id", alert.MedicationID).
		Str("body", alert.Body).
		Msg(alert.Title)

	return nil
}
