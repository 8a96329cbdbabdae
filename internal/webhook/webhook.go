// Package webhook forwards task lifecycle events to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// Envelope is the JSON body posted to every endpoint
type Envelope struct {
	Event     models.TaskEventType `json:"event"`
	Timestamp time.Time            `json:"timestamp"`
	Data      models.TaskEvent     `json:"data"`
}

// Service delivers events to the configured endpoints with retries
type Service struct {
	client      *http.Client
	urls        []string
	secret      string
	retryDelays []time.Duration
	logger      *logging.Logger
}

// NewService creates a new webhook service
func NewService(cfg config.WebhookConfig, logger *logging.Logger) *Service {
	delays := make([]time.Duration, 0, cfg.MaxAttempts)
	// Retry delays: 1s, 5s, 25s, ...
	for d, i := time.Second, 1; i < cfg.MaxAttempts; d, i = d*5, i+1 {
		delays = append(delays, d)
	}

	return &Service{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		urls:        cfg.URLs,
		secret:      cfg.Secret,
		retryDelays: delays,
		logger:      logger,
	}
}

// Enabled reports whether any endpoint is configured
func (s *Service) Enabled() bool {
	return len(s.urls) > 0
}

// Notify posts evt to every endpoint. It returns an error when at least one
// endpoint still failed after all retries.
func (s *Service) Notify(ctx context.Context, evt models.TaskEvent) error {
	payload, err := json.Marshal(Envelope{Event: evt.Type, Timestamp: time.Now().UTC(), Data: evt})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	deliveryID := uuid.New().String()
	var errs []error
	for _, url := range s.urls {
		err := s.deliverWithRetry(ctx, url, string(evt.Type), deliveryID, payload)
		outcome := "success"
		if err != nil {
			outcome = "error"
			errs = append(errs, err)
			s.logger.WithField("url", url).WithTaskID(evt.TaskID).ErrorWithErr("webhook delivery failed", err)
		}
		metrics.RecordWebhookDelivery(outcome)
	}
	return errors.Join(errs...)
}

func (s *Service) deliverWithRetry(ctx context.Context, url, event, deliveryID string, payload []byte) error {
	err := s.deliver(ctx, url, event, deliveryID, payload)
	for _, delay := range s.retryDelays {
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		err = s.deliver(ctx, url, event, deliveryID, payload)
	}
	return err
}

// deliver makes one delivery attempt
func (s *Service) deliver(ctx context.Context, url, event, deliveryID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TaskTracker-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Delivery", deliveryID)

	// Add HMAC signature if secret is configured
	if s.secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(payload, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint answered %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the HMAC-SHA256 signature header value for payload
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
