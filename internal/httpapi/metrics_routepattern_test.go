package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ecli/pkg/types"
)

// TestMetricsMiddleware_UsesRoutePattern ensures requests routed through the
// mux are labelled by the chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	svc := newMockService()
	svc.trackers[1] = types.TrackerInfo{ID: 1, Name: "/a.json"}
	svc.nextID = 1
	r := NewMux(svc, nil)

	pattern := httpRequestsTotal.WithLabelValues("/trackers/{id}", http.MethodGet, "200")
	raw := httpRequestsTotal.WithLabelValues("/trackers/1", http.MethodGet, "200")
	beforePattern, beforeRaw := testutil.ToFloat64(pattern), testutil.ToFloat64(raw)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trackers/1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := testutil.ToFloat64(pattern); got != beforePattern+1 {
		t.Fatalf("pattern label count=%v, want %v", got, beforePattern+1)
	}
	if got := testutil.ToFloat64(raw); got != beforeRaw {
		t.Fatalf("raw path label should not be used, got %v", got)
	}
}
