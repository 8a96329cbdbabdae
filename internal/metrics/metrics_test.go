package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	// Reset metrics
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/tasks/", "200", 0.123)

	// Verify counter incremented
	counter := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/tasks/", "200"))
	if counter != 1.0 {
		t.Errorf("Expected counter to be 1.0, got %f", counter)
	}
}

func TestRecordQuotaDecision(t *testing.T) {
	QuotaDecisionsTotal.Reset()

	RecordQuotaDecision("anonymous", true)
	RecordQuotaDecision("anonymous", true)
	RecordQuotaDecision("anonymous", false)

	allowed := testutil.ToFloat64(QuotaDecisionsTotal.WithLabelValues("anonymous", "allowed"))
	if allowed != 2.0 {
		t.Errorf("Expected allowed counter to be 2.0, got %f", allowed)
	}

	throttled := testutil.ToFloat64(QuotaDecisionsTotal.WithLabelValues("anonymous", "throttled"))
	if throttled != 1.0 {
		t.Errorf("Expected throttled counter to be 1.0, got %f", throttled)
	}
}

func TestRecordTokenOperation(t *testing.T) {
	TokenOperationsTotal.Reset()

	RecordTokenOperation("refresh", nil)
	RecordTokenOperation("refresh", errors.New("revoked"))

	if got := testutil.ToFloat64(TokenOperationsTotal.WithLabelValues("refresh", "success")); got != 1.0 {
		t.Errorf("Expected success counter to be 1.0, got %f", got)
	}
	if got := testutil.ToFloat64(TokenOperationsTotal.WithLabelValues("refresh", "failure")); got != 1.0 {
		t.Errorf("Expected failure counter to be 1.0, got %f", got)
	}
}

func TestRecordTaskOperation(t *testing.T) {
	TaskOperationsTotal.Reset()
	TaskEventsPublishedTotal.Reset()

	RecordTaskOperation("create", nil)
	RecordTaskEvent("task.created", errors.New("broker down"))

	if got := testutil.ToFloat64(TaskOperationsTotal.WithLabelValues("create", "success")); got != 1.0 {
		t.Errorf("Expected create counter to be 1.0, got %f", got)
	}
	if got := testutil.ToFloat64(TaskEventsPublishedTotal.WithLabelValues("task.created", "failed")); got != 1.0 {
		t.Errorf("Expected failed event counter to be 1.0, got %f", got)
	}
}

func TestRecordDatabaseOperation(t *testing.T) {
	DatabaseOperationsTotal.Reset()

	RecordDatabaseOperation("task_insert", "success", 0.01)

	if got := testutil.ToFloat64(DatabaseOperationsTotal.WithLabelValues("task_insert", "success")); got != 1.0 {
		t.Errorf("Expected counter to be 1.0, got %f", got)
	}
}

func TestRecordBurstRejection(t *testing.T) {
	before := testutil.ToFloat64(BurstRejectionsTotal)
	RecordBurstRejection()
	if got := testutil.ToFloat64(BurstRejectionsTotal); got != before+1 {
		t.Errorf("Expected counter to be %f, got %f", before+1, got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	RecordError("quota", "store_unavailable")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "tasktracker_errors_total") {
		t.Error("Expected tasktracker_errors_total in metrics output")
	}

	w = httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected health 200, got %d", w.Code)
	}
}
