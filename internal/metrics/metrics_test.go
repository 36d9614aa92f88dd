package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Saga("sale", "create", OutcomeOK)
	m.Compensated("sale")
	m.OrphanHeader("sale")
	m.TrackStoreCall("insert_sale")()
	m.HTTPRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)
}

func TestHandlerExposesSagaCounters(t *testing.T) {
	m := New("test")
	m.Saga("sale", "create", OutcomeConsistency)
	m.Compensated("sale")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `test_saga_total{document="sale",op="create",outcome="consistency"} 1`) {
		t.Fatalf("expected saga counter in output, got:\n%s", body)
	}
	if !strings.Contains(body, `test_saga_compensations_total{document="sale"} 1`) {
		t.Fatalf("expected compensation counter in output")
	}
}
