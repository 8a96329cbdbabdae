package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

var testEvent = models.TaskEvent{
	Type:    models.TaskEventCreated,
	TaskID:  3,
	OwnerID: 1,
	ActorID: 1,
	Status:  models.TaskStatusNew,
}

func newTestService(urls ...string) *Service {
	s := NewService(config.WebhookConfig{URLs: urls, Secret: "test-secret", Timeout: time.Second, MaxAttempts: 3}, logging.Nop())
	s.retryDelays = []time.Duration{time.Millisecond, time.Millisecond}
	return s
}

func TestWebhookNotify(t *testing.T) {
	var (
		body    []byte
		headers http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		headers = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestService(server.URL)
	require.True(t, s.Enabled())
	require.NoError(t, s.Notify(context.Background(), testEvent))

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, models.TaskEventCreated, env.Event)
	assert.Equal(t, int64(3), env.Data.TaskID)

	assert.Equal(t, "task.created", headers.Get("X-Webhook-Event"))
	assert.NotEmpty(t, headers.Get("X-Webhook-Delivery"))
	assert.Equal(t, Sign(body, "test-secret"), headers.Get("X-Webhook-Signature"))
}

func TestWebhookRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := newTestService(server.URL)
	assert.NoError(t, s.Notify(context.Background(), testEvent))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestService(server.URL)
	assert.Error(t, s.Notify(context.Background(), testEvent))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookDisabled(t *testing.T) {
	s := newTestService()
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Notify(context.Background(), testEvent))
}

func TestRetryDelays(t *testing.T) {
	s := NewService(config.WebhookConfig{MaxAttempts: 4}, logging.Nop())
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 25 * time.Second}, s.retryDelays)

	s = NewService(config.WebhookConfig{MaxAttempts: 1}, logging.Nop())
	assert.Empty(t, s.retryDelays)
}

func TestWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"test"}`)

	signature := Sign(payload, "test-secret")
	assert.Contains(t, signature, "sha256=")
	assert.Equal(t, signature, Sign(payload, "test-secret"))
	assert.NotEqual(t, signature, Sign(payload, "other-secret"))
}
