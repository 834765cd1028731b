package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	b := New()
	b.ObserveRun("full", 20*time.Millisecond, 5, 1)
	b.ObserveRun("incremental", time.Millisecond, 6, 0)
	b.ObserveRun("skip", 0, 0, 0)

	if got := testutil.ToFloat64(b.runs.WithLabelValues("full")); got != 1 {
		t.Errorf("full runs = %v", got)
	}
	if got := testutil.ToFloat64(b.posts); got != 6 {
		t.Errorf("posts = %v, want 6 (skip must not reset)", got)
	}
	if got := testutil.ToFloat64(b.extractFailure); got != 1 {
		t.Errorf("failures = %v", got)
	}
}

func TestObserveRun_NilReceiver(t *testing.T) {
	var b *Build
	b.ObserveRun("full", time.Second, 1, 0)
}

func TestHandler(t *testing.T) {
	b := New()
	b.ObserveRun("full", time.Millisecond, 3, 0)

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `postindex_builds_total{mode="full"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
