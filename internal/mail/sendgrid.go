package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/fitrank/fitrank-api/internal/config"
	"github.com/fitrank/fitrank-api/pkg/logger"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey   string
	host     string
	fromAddr string
	fromName string
}

func NewSendGridMailer(cfg config.MailConfig) *SendGridMailer {
	return &SendGridMailer{
		apiKey:   cfg.SendGridAPIKey,
		host:     sendGridHost,
		fromAddr: cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

// WithHost points the mailer at another API host (tests, regional endpoints).
func (s *SendGridMailer) WithHost(host string) *SendGridMailer {
	s.host = host
	return s
}

func (s *SendGridMailer) Send(ctx context.Context, m Message) error {
	from := sgmail.NewEmail(s.fromName, s.fromAddr)
	to := sgmail.NewEmail(m.ToName, m.To)
	msg := sgmail.NewSingleEmail(from, m.Subject, to, m.Text, m.HTML)

	req := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	// SendGrid reports rejected messages through the status code, not err
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid returned %d: %s", ErrSend, resp.StatusCode, resp.Body)
	}
	logger.Debugw("mail sent", "to", m.To, "subject", m.Subject, "status", resp.StatusCode)
	return nil
}
