package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	t.Run("requests are labelled by client and code", func(t *testing.T) {
		t.Parallel()
		m := New()
		m.ObserveRequest("shopify", 200)
		m.ObserveRequest("shopify", 200)
		m.ObserveRequest("shopify", 0)

		if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("shopify", "200")); got != 2 {
			t.Errorf("expected 2 requests with code 200, got %v", got)
		}
		if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("shopify", "error")); got != 1 {
			t.Errorf("expected 1 transport error, got %v", got)
		}
	})

	t.Run("retries are counted per client", func(t *testing.T) {
		t.Parallel()
		m := New()
		m.ObserveRetry("walmart")
		if got := testutil.ToFloat64(m.retriesTotal.WithLabelValues("walmart")); got != 1 {
			t.Errorf("expected 1 retry, got %v", got)
		}
	})

	t.Run("non-positive item counts are ignored", func(t *testing.T) {
		t.Parallel()
		m := New()
		m.AddItems("fetch", 5)
		m.AddItems("fetch", 0)
		m.AddItems("fetch", -3)
		if got := testutil.ToFloat64(m.itemsProcessed.WithLabelValues("fetch")); got != 5 {
			t.Errorf("expected 5 items, got %v", got)
		}
	})

	t.Run("nil metrics is a no-op", func(t *testing.T) {
		t.Parallel()
		var m *Metrics
		m.ObserveRequest("shopify", 200)
		m.ObserveRetry("shopify")
		m.AddItems("fetch", 1)
		if err := m.WriteTextfile("ignored.prom"); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRequest("walmart", 429)
	path := filepath.Join(t.TempDir(), "wmsync.prom")

	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `wmsync_http_requests_total{client="walmart",code="429"} 1`) {
		t.Errorf("unexpected textfile content:\n%s", data)
	}
}
