package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultPriorityTip is used when a chain reports no reward data,
	// which several L2s and pre-1559 chains do.
	defaultPriorityTip = 1.5

	// weiPerGwei converts hex wei quantities to gwei.
	weiPerGwei = 1e9
)

// FeeSample is one live fee reading from a chain, in gwei.
type FeeSample struct {
	BaseFee     float64
	PriorityTip float64
	MaxFee      float64
}

// Client is a JSON-RPC client for EVM fee queries. One client serves
// every network; the endpoint URL is passed per call.
type Client struct {
	http      *http.Client
	sem       chan struct{}
	userAgent string
}

// NewClient creates a client with the given per-request timeout.
// Concurrency is capped at 8, one slot per supported network.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		sem:       make(chan struct{}, 8),
		userAgent: "gasgauge/1.0 (github.com)",
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcError is the error object of a JSON-RPC 2.0 response.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type feeHistoryResult struct {
	BaseFeePerGas []string   `json:"baseFeePerGas"`
	Reward        [][]string `json:"reward"`
}

// FeeHistory asks the chain at url for its latest fees: the next
// block's base fee plus the median priority reward of the last block.
// Chains that report no rewards get the default tip.
func (c *Client) FeeHistory(ctx context.Context, url string) (FeeSample, error) {
	// The last baseFeePerGas entry is the projected fee of the next
	// block; the 50th reward percentile approximates the going tip.
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_feeHistory",
		Params:  []any{1, "latest", []int{50}},
	}

	var result feeHistoryResult
	if err := c.call(ctx, url, payload, &result); err != nil {
		return FeeSample{}, err
	}
	if len(result.BaseFeePerGas) == 0 {
		return FeeSample{}, fmt.Errorf("fee history from %s has no base fee", url)
	}

	base, err := hexToGwei(result.BaseFeePerGas[len(result.BaseFeePerGas)-1])
	if err != nil {
		return FeeSample{}, fmt.Errorf("parse base fee: %w", err)
	}

	tip := defaultPriorityTip
	if len(result.Reward) > 0 && len(result.Reward[0]) > 0 {
		if observed, err := hexToGwei(result.Reward[0][0]); err == nil && observed > 0 {
			tip = observed
		}
	}

	return FeeSample{
		BaseFee:     base,
		PriorityTip: tip,
		MaxFee:      base + tip,
	}, nil
}

// call posts one JSON-RPC request and decodes the result into dst.
func (c *Client) call(ctx context.Context, url string, payload rpcRequest, dst any) error {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("rpc %s: HTTP %d: %s", url, resp.StatusCode, string(snippet))
	}

	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if len(envelope.Result) == 0 {
		return fmt.Errorf("rpc %s: empty result", url)
	}
	return json.Unmarshal(envelope.Result, dst)
}

// hexToGwei parses a 0x-prefixed wei quantity into gwei.
func hexToGwei(s string) (float64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	wei, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("hex quantity %q: %w", s, err)
	}
	return float64(wei) / weiPerGwei, nil
}
