package notifications

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/fitrank/fitrank-api/internal/config"
)

// maxMulticastTokens is the FCM limit on tokens per multicast request.
const maxMulticastTokens = 500

type multicastClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender delivers notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client multicastClient
}

// NewFCMSender initializes a Firebase app from the configured service account.
func NewFCMSender(ctx context.Context, cfg config.FCMConfig) (*FCMSender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

// Send fans tokens out in multicast batches and sums the outcomes. A failed
// batch stops the send; earlier batches stay counted.
func (f *FCMSender) Send(ctx context.Context, tokens []string, title, body string) (Result, error) {
	var res Result
	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := start + maxMulticastTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		br, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       tokens[start:end],
			Notification: &messaging.Notification{Title: title, Body: body},
		})
		if err != nil {
			return res, fmt.Errorf("multicast batch %d-%d: %w", start, end, err)
		}
		res.SuccessCount += br.SuccessCount
		res.FailureCount += br.FailureCount
	}
	return res, nil
}
