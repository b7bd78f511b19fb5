package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSearch(t *testing.T) {
	m := New()
	m.ObserveSearch(3, nil)
	m.ObserveSearch(0, nil)
	m.ObserveSearch(0, errors.New("boom"))

	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("zero_result")); got != 1 {
		t.Errorf("zero_result: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error: got %v, want 1", got)
	}
}

func TestMiddlewareCountsStatus(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "418")); got != 1 {
		t.Errorf("requests_total: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in flight after request: got %v, want 0", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveWebhook("triggered")
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `webhook_deliveries_total{outcome="triggered"} 1`) {
		t.Errorf("webhook counter missing from exposition")
	}
}

func TestRegistryIsPrivate(t *testing.T) {
	a, b := New(), New()
	a.ObserveWebhook("triggered")

	if n := testutil.CollectAndCount(a.WebhookDeliveries); n != 1 {
		t.Fatalf("a webhook series: got %d, want 1", n)
	}
	if n := testutil.CollectAndCount(b.WebhookDeliveries); n != 0 {
		t.Errorf("b webhook series: got %d, want 0", n)
	}

	families, err := a.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"webhook_deliveries_total", "go_goroutines"} {
		if !names[want] {
			t.Errorf("registry missing %s", want)
		}
	}
}
