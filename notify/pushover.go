// Package notify delivers reminder alerts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.0xdad.com/tblyler/ocutrack/reminder"
	"github.com/gregdel/pushover"
	"github.com/rs/zerolog"
)

var (
	// ErrMissingCredentials occurs when pushover is configured without a token or user key
	ErrMissingCredentials = errors.New("pushover api token and user key are required")
)

type sender interface {
	SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error)
}

// Pushover sends alerts to a single pushover user
type Pushover struct {
	app       sender
	recipient *pushover.Recipient
	device    string
	log       zerolog.Logger
	now       func() time.Time
}

// NewPushover notifier. device may be empty to reach every device of the user.
func NewPushover(apiToken, userKey, device string, logger zerolog.Logger) (*Pushover, error) {
	if apiToken == "" || userKey == "" {
		return nil, ErrMissingCredentials
	}

	return &Pushover{
		app:       pushover.New(apiToken),
		recipient: pushover.NewRecipient(userKey),
		device:    device,
		log:       logger.With().Str("component", "pushover").Logger(),
		now:       time.Now,
	}, nil
}

// Notify sends the alert. pushover has no cancellation so ctx is only checked before sending.
func (p *Pushover) Notify(ctx context.Context, alert reminder.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	response, err := p.app.SendMessage(p.buildMessage(alert), p.recipient)
	if err != nil {
		return fmt.Errorf("failed to send pushover message %q: %w", alert.Title, err)
	}

	if response != nil {
		p.log.Debug().Str("request", response.ID).Str("title", alert.Title).Msg("pushover message accepted")
	}

	return nil
}

func (p *Pushover) buildMessage(alert reminder.Alert) *pushover.Message {
	message := pushover.NewMessageWithTitle(alert.Body, alert.Title)
	message.DeviceName = p.device
	message.Timestamp = p.now().Unix()

	switch alert.Kind {
	case reminder.AlertDose:
		message.Priority = pushover.PriorityHigh
	case reminder.AlertCourseEnd:
		message.Priority = pushover.PriorityNormal
	default:
		message.Priority = pushover.PriorityLow
	}

	return message
}
