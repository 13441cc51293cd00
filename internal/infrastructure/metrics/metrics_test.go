package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

var _ usecase.Recorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.TransactionPosted(4)
	m.BalanceLookup(usecase.BalanceHit)
	m.RateUpdated(domain.PolicyLastWrite)
	m.AuditRowsRemoved(domain.RetentionDelete, 3)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metricFamilies) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(metricFamilies))
	}
}

func TestRecorderCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TransactionPosted(2)
	m.TransactionPosted(3)
	if got := testutil.ToFloat64(m.TransactionsPosted); got != 2 {
		t.Fatalf("transactions posted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LinesPosted); got != 5 {
		t.Fatalf("lines posted = %v, want 5", got)
	}

	m.BalanceLookup(usecase.BalanceHit)
	m.BalanceLookup(usecase.BalanceHit)
	m.BalanceLookup(usecase.BalanceRecompute)
	if got := testutil.ToFloat64(m.BalanceLookups.WithLabelValues(usecase.BalanceHit)); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BalanceLookups.WithLabelValues(usecase.BalanceRecompute)); got != 1 {
		t.Fatalf("recomputes = %v, want 1", got)
	}

	m.RateUpdated(domain.PolicyWeightedAverage)
	if got := testutil.ToFloat64(m.RateUpdates.WithLabelValues(string(domain.PolicyWeightedAverage))); got != 1 {
		t.Fatalf("rate updates = %v, want 1", got)
	}

	m.AuditRowsRemoved(domain.RetentionArchive, 500)
	m.AuditRowsRemoved(domain.RetentionArchive, 20)
	if got := testutil.ToFloat64(m.AuditRows.WithLabelValues(string(domain.RetentionArchive))); got != 520 {
		t.Fatalf("rows removed = %v, want 520", got)
	}
}

func TestHandlerExposesRecorderCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	m.TransactionPosted(3)
	m.BalanceLookup(usecase.BalanceRecompute)

	srv := httptest.NewServer(Handler(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{
		"bookkeeper_transactions_posted_total 1",
		"bookkeeper_entry_lines_posted_total 3",
		`bookkeeper_balance_lookups_total{outcome="recompute"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output lacks %q", want)
		}
	}
}

func TestHandlerRoutes(t *testing.T) {
	h := Handler(prometheus.NewRegistry())

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry(), zerolog.Nop())
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
