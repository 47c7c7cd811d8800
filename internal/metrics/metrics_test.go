package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryExposesCounters(t *testing.T) {
	m := New()
	m.BatchesProcessed.WithLabelValues("clicks", "src").Inc()
	m.RowsIn.WithLabelValues("clicks", "src").Add(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "retl_batches_processed_total") {
		t.Errorf("expected batches_processed metric in output, got:\n%s", body)
	}
	if !strings.Contains(body, "retl_rows_in_total") {
		t.Errorf("expected rows_in metric in output, got:\n%s", body)
	}
}
