package mail

import (
	"context"
	"errors"

	"github.com/fitrank/fitrank-api/pkg/logger"
)

// ErrSend wraps every delivery failure reported by a Mailer.
var ErrSend = errors.New("mail delivery failed")

// Message is a rendered transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer records outgoing mail in the log instead of delivering it.
// Used when no provider is configured (local development, CI).
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m Message) error {
	logger.Infow("mail not delivered (no provider configured)", "to", m.To, "subject", m.Subject)
	return nil
}
