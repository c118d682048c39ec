package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"

	// priceTTL bounds how long a quote is served from cache. Gas math
	// tolerates minute-old prices; the free API tier does not tolerate
	// hammering.
	priceTTL = 60 * time.Second
)

// cacheEntry is one cached USD quote.
type cacheEntry struct {
	price   float64
	fetched time.Time
}

// Client fetches USD token prices from CoinGecko. Quotes are cached
// for a minute, duplicate in-flight lookups are coalesced, and calls
// are rate limited to stay inside the free tier.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string

	limiter *rate.Limiter
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewClient creates a price client. apiKey may be empty; with one set
// it is sent as the demo API key header.
func NewClient(apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		// The free tier allows roughly 10 calls a minute.
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 2),
		cache:   make(map[string]cacheEntry),
	}
}

// PriceUSD returns the USD price for a CoinGecko coin id such as
// "ethereum" or "matic-network".
func (c *Client) PriceUSD(ctx context.Context, coinID string) (float64, error) {
	if coinID == "" {
		return 0, fmt.Errorf("empty coin id")
	}

	c.mu.RLock()
	entry, ok := c.cache[coinID]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetched) < priceTTL {
		return entry.price, nil
	}

	// Coalesce concurrent lookups for the same coin into one request.
	v, err, _ := c.group.Do(coinID, func() (any, error) {
		c.mu.RLock()
		entry, ok := c.cache[coinID]
		c.mu.RUnlock()
		if ok && time.Since(entry.fetched) < priceTTL {
			return entry.price, nil
		}

		price, err := c.fetch(ctx, coinID)
		if err != nil {
			return 0.0, err
		}
		c.mu.Lock()
		c.cache[coinID] = cacheEntry{price: price, fetched: time.Now()}
		c.mu.Unlock()
		return price, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (c *Client) fetch(ctx context.Context, coinID string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(coinID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "gasgauge/1.0 (github.com)")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("coingecko HTTP %d: %s", resp.StatusCode, string(snippet))
	}

	// Response shape: {"ethereum": {"usd": 2034.12}}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	price, ok := payload[coinID]["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd quote for %q", coinID)
	}
	return price, nil
}
