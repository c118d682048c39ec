package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func priceServer(t *testing.T, hits *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPriceUSD_FetchAndCache(t *testing.T) {
	var hits atomic.Int64
	srv := priceServer(t, &hits, `{"ethereum": {"usd": 2034.12}}`)

	c := NewClient("")
	c.baseURL = srv.URL

	price, err := c.PriceUSD(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("PriceUSD: %v", err)
	}
	if price != 2034.12 {
		t.Errorf("price = %v, want 2034.12", price)
	}

	// A second lookup inside the TTL must come from cache.
	if _, err := c.PriceUSD(context.Background(), "ethereum"); err != nil {
		t.Fatalf("cached PriceUSD: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
}

func TestPriceUSD_CoalescesConcurrentLookups(t *testing.T) {
	var hits atomic.Int64
	srv := priceServer(t, &hits, `{"ethereum": {"usd": 2000}}`)

	c := NewClient("")
	c.baseURL = srv.URL

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.PriceUSD(context.Background(), "ethereum"); err != nil {
				t.Errorf("PriceUSD: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1 coalesced fetch", got)
	}
}

func TestPriceUSD_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Write([]byte(`{"ethereum": {"usd": 1}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("demo-key-123")
	c.baseURL = srv.URL
	if _, err := c.PriceUSD(context.Background(), "ethereum"); err != nil {
		t.Fatalf("PriceUSD: %v", err)
	}
	if gotKey != "demo-key-123" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestPriceUSD_MissingQuote(t *testing.T) {
	var hits atomic.Int64
	srv := priceServer(t, &hits, `{}`)

	c := NewClient("")
	c.baseURL = srv.URL
	_, err := c.PriceUSD(context.Background(), "dogecoin")
	if err == nil || !strings.Contains(err.Error(), "no usd quote") {
		t.Fatalf("expected a missing-quote error, got %v", err)
	}
}

func TestPriceUSD_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("")
	c.baseURL = srv.URL
	_, err := c.PriceUSD(context.Background(), "ethereum")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected an HTTP error, got %v", err)
	}
}

func TestPriceUSD_EmptyCoinID(t *testing.T) {
	c := NewClient("")
	if _, err := c.PriceUSD(context.Background(), ""); err == nil {
		t.Fatal("expected an error for an empty coin id")
	}
}
