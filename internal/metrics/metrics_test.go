package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/as2gw/gateway/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	metrics.MessagesProcessed.WithLabelValues("IN", "S").Inc()
	metrics.RetriesExhausted.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "as2gw_messages_processed_total")
	assert.Contains(t, body, "as2gw_retries_exhausted_total")
}

func TestProcessingDuration_ObserveDoesNotPanic(t *testing.T) {
	metrics.ProcessingDuration.Observe(0.05)
}

func TestErrorsByKind_LabelValues(t *testing.T) {
	metrics.ErrorsByKind.WithLabelValues("PartnerNotFound").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `kind="PartnerNotFound"`)
}
