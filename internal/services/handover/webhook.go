package handover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/models"
)

// WebhookNotifier posts leads to a CRM or workflow webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// WebhookPayload is the JSON body sent to the webhook.
type WebhookPayload struct {
	Event     string      `json:"event"`
	Source    string      `json:"source"`
	Timestamp string      `json:"timestamp"`
	Lead      models.Lead `json:"lead"`
}

// NewWebhookNotifier creates a notifier for the given URL.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Channel implements Notifier.
func (w *WebhookNotifier) Channel() string {
	return "webhook"
}

// Notify posts the lead. Any status of 400 or above is an error.
func (w *WebhookNotifier) Notify(ctx context.Context, lead models.Lead) error {
	body, err := json.Marshal(WebhookPayload{
		Event:     "lead.handover",
		Source:    "dexter",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Lead:      lead,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	w.logger.Info("Lead webhook delivered",
		zap.String("session_id", lead.SessionID),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
