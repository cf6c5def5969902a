package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSyncMetrics(t *testing.T) {
	r := NewRegistry()
	m := NewSyncMetrics(r.Registerer(), "local")

	m.Cycle(2, 1, 1, 5)
	m.Cycle(0, 0, 0, 5)
	m.DecodeError()
	m.Inbound(ActionSet)
	m.Inbound(ActionSet)
	m.Inbound(ActionDelete)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"cycles", testutil.ToFloat64(m.cycles), 2},
		{"writes", testutil.ToFloat64(m.writes), 2},
		{"removes", testutil.ToFloat64(m.removes), 1},
		{"store errors", testutil.ToFloat64(m.storeErrors), 1},
		{"decode errors", testutil.ToFloat64(m.decodeErrors), 1},
		{"inbound set", testutil.ToFloat64(m.inboundEvents.WithLabelValues(ActionSet)), 2},
		{"inbound delete", testutil.ToFloat64(m.inboundEvents.WithLabelValues(ActionDelete)), 1},
		{"keys", testutil.ToFloat64(m.keys), 5},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestSyncMetrics_Nil(t *testing.T) {
	var m *SyncMetrics
	m.Cycle(1, 1, 1, 1)
	m.DecodeError()
	m.Inbound(ActionIgnored)
}

func TestSyncMetrics_PerStoreLabels(t *testing.T) {
	r := NewRegistry()
	NewSyncMetrics(r.Registerer(), "local")
	NewSyncMetrics(r.Registerer(), "session")
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	m := NewSyncMetrics(r.Registerer(), "session")
	m.Cycle(1, 0, 0, 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `webstore_sync_cycles_total{store="session"} 1`) {
		t.Errorf("metrics output missing sync counter:\n%s", body)
	}
}
