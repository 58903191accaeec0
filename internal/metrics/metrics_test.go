package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Paintersrp/vfeed/internal/vlist"
)

func TestObserverCounts(t *testing.T) {
	o := NewObserver()

	o.Flushed(3, 1)
	o.Flushed(2, 0)
	o.Invalidated(40)
	o.Prefetched()
	o.PageFailed()
	o.OverscanChanged(13)
	o.PhaseChanged(vlist.PhaseDecaying)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "flushes", got: testutil.ToFloat64(o.flushes), want: 2},
		{name: "applied", got: testutil.ToFloat64(o.heights.WithLabelValues("applied")), want: 5},
		{name: "dropped", got: testutil.ToFloat64(o.heights.WithLabelValues("dropped")), want: 1},
		{name: "invalidations", got: testutil.ToFloat64(o.invalidations), want: 1},
		{name: "prefetches", got: testutil.ToFloat64(o.prefetches), want: 1},
		{name: "failures", got: testutil.ToFloat64(o.fetchFailures), want: 1},
		{name: "overscan", got: testutil.ToFloat64(o.overscan), want: 13},
		{name: "decaying", got: testutil.ToFloat64(o.phase.WithLabelValues("decaying")), want: 1},
		{name: "idle", got: testutil.ToFloat64(o.phase.WithLabelValues("idle")), want: 0},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestObserversDoNotShareRegistries(t *testing.T) {
	a, b := NewObserver(), NewObserver()
	a.Prefetched()
	if testutil.ToFloat64(b.prefetches) != 0 {
		t.Fatalf("observers share state")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	o := NewObserver()
	o.Prefetched()

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "vfeed_prefetch_requests_total 1") {
		t.Fatalf("prefetch counter missing from exposition:\n%s", body)
	}
}
