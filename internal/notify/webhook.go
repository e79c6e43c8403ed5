// Package notify provides the outbound notification gateways. Every
// gateway is fire-and-forget: delivery happens off the caller's
// goroutine and failures are logged, never returned.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"cradle/internal/metrics"
)

// WebhookGateway posts notifications as JSON to a configured URL.
type WebhookGateway struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// NewWebhookGateway constructs a gateway for the given endpoint.
// Sends are capped at one per second with a small burst so a storm of
// reminders cannot hammer the receiving service.
func NewWebhookGateway(url string, logger *zerolog.Logger) *WebhookGateway {
	return &WebhookGateway{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 5),
		logger:     logger,
	}
}

type webhookPayload struct {
	Sender  string    `json:"sender"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Notify sends the message in the background.
func (g *WebhookGateway) Notify(sender, message string) {
	go g.send(sender, message)
}

func (g *WebhookGateway) send(sender, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		g.logger.Error().Err(err).Msg("webhook rate limit wait failed")
		return
	}

	body, err := json.Marshal(webhookPayload{
		Sender:  sender,
		Message: message,
		SentAt:  time.Now(),
	})
	if err != nil {
		g.logger.Error().Err(err).Msg("webhook payload marshal failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		g.logger.Error().Err(err).Msg("webhook request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		metrics.IncNotificationFailed("webhook")
		g.logger.Error().Err(err).Str("sender", sender).Msg("webhook send failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		metrics.IncNotificationFailed("webhook")
		g.logger.Error().
			Int("status", resp.StatusCode).
			Str("sender", sender).
			Msg("webhook rejected notification")
		return
	}

	metrics.IncNotificationSent("webhook")
	g.logger.Debug().Str("sender", sender).Msg("webhook notification sent")
}
