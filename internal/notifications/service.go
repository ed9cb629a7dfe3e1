package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitrank/fitrank-api/internal/models"
	"github.com/fitrank/fitrank-api/pkg/logger"
	"github.com/fitrank/fitrank-api/pkg/metrics"
)

var (
	ErrNoRecipients = errors.New("no recipients")
	// ErrNoMatchingUsers is a more specific ErrNoRecipients.
	ErrNoMatchingUsers = fmt.Errorf("%w: no users match the given emails", ErrNoRecipients)
	ErrNoDeviceTokens  = errors.New("no device tokens registered for the given users")
	ErrProvider        = errors.New("push provider error")
)

const (
	DefaultTitle = "Hello"
	DefaultBody  = "You have a new notification"
)

// Result tallies per-device delivery outcomes.
type Result struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// Sender delivers one notification to a set of device tokens.
type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string) (Result, error)
}

// UserLookup resolves recipients by email.
type UserLookup interface {
	FindByEmails(ctx context.Context, emails []string) ([]models.User, error)
}

type Service struct {
	users  UserLookup
	sender Sender
}

func NewService(u UserLookup, s Sender) *Service {
	return &Service{users: u, sender: s}
}

// Notify pushes title/body to every registered device of the users with the
// given emails. Partial failures are reported in the Result, not retried.
func (s *Service) Notify(ctx context.Context, emails []string, title, body string) (Result, error) {
	if len(emails) == 0 {
		return Result{}, ErrNoRecipients
	}
	if title == "" {
		title = DefaultTitle
	}
	if body == "" {
		body = DefaultBody
	}

	users, err := s.users.FindByEmails(ctx, emails)
	if err != nil {
		return Result{}, err
	}
	if len(users) == 0 {
		return Result{}, ErrNoMatchingUsers
	}

	tokens := make([]string, 0, len(users))
	for i := range users {
		if t := users[i].DeviceToken(); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return Result{}, ErrNoDeviceTokens
	}

	res, err := s.sender.Send(ctx, tokens, title, body)
	metrics.NotificationsSent.WithLabelValues("success").Add(float64(res.SuccessCount))
	metrics.NotificationsSent.WithLabelValues("failure").Add(float64(res.FailureCount))
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	logger.Infow("notification sent", "recipients", len(users), "devices", len(tokens),
		"success", res.SuccessCount, "failure", res.FailureCount)
	return res, nil
}
