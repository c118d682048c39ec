package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

// stubFeed serves canned quotes and failures per network.
type stubFeed struct {
	quotes map[string]Quote
	errs   map[string]error
}

func (f stubFeed) Quote(_ context.Context, network string) (Quote, error) {
	if err := f.errs[network]; err != nil {
		return Quote{}, err
	}
	q, ok := f.quotes[network]
	if !ok {
		return Quote{}, fmt.Errorf("no quote for %s", network)
	}
	return q, nil
}

func TestCompareNetworks_RanksByUSDCost(t *testing.T) {
	feed := stubFeed{quotes: map[string]Quote{
		// erc20 = 65000 gas.
		// ethereum: 30 gwei * 65000 = 0.00195 ETH * $2000 = $3.90
		// polygon: 100 gwei * 65000 = 0.0065 MATIC * $0.50 = $0.00325
		"ethereum": {Network: "ethereum", BaseFee: 25, PriorityTip: 5, MaxFee: 30, TokenPriceUSD: 2000},
		"polygon":  {Network: "polygon", BaseFee: 80, PriorityTip: 20, MaxFee: 100, TokenPriceUSD: 0.5},
	}}

	res, err := CompareNetworks(context.Background(), feed, []string{"ethereum", "polygon"}, "erc20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TxType != "erc20" || res.GasUnits != 65000 {
		t.Errorf("tx type/gas = %q/%v, want erc20/65000", res.TxType, res.GasUnits)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	if res.Rows[0].Network != "polygon" || res.Rows[1].Network != "ethereum" {
		t.Errorf("order = %q, %q; want polygon first", res.Rows[0].Network, res.Rows[1].Network)
	}
	if res.Cheapest != "polygon" {
		t.Errorf("Cheapest = %q, want polygon", res.Cheapest)
	}

	eth := res.Rows[1]
	if eth.Name != "Ethereum" || eth.Token != "ETH" {
		t.Errorf("registry fields = %q/%q, want Ethereum/ETH", eth.Name, eth.Token)
	}
	wantUSD := 30 * 1e-9 * 65000 * 2000.0
	if math.Abs(eth.CostUSD-wantUSD) > 1e-9 {
		t.Errorf("ethereum USD cost = %v, want %v", eth.CostUSD, wantUSD)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestCompareNetworks_CollectsFailures(t *testing.T) {
	feed := stubFeed{
		quotes: map[string]Quote{
			"ethereum": {Network: "ethereum", MaxFee: 30, TokenPriceUSD: 2000},
		},
		errs: map[string]error{
			"bsc": errors.New("rpc timeout"),
		},
	}

	res, err := CompareNetworks(context.Background(), feed, []string{"ethereum", "bsc"}, "simple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Network != "ethereum" {
		t.Fatalf("rows = %+v, want just ethereum", res.Rows)
	}
	if res.Cheapest != "ethereum" {
		t.Errorf("Cheapest = %q, want ethereum", res.Cheapest)
	}
	if got := res.Errors["bsc"]; got != "rpc timeout" {
		t.Errorf("Errors[bsc] = %q, want rpc timeout", got)
	}
}

func TestCompareNetworks_UnpricedSortsByNativeCost(t *testing.T) {
	// Without token prices both USD costs are zero, so native cost
	// breaks the tie.
	feed := stubFeed{quotes: map[string]Quote{
		"arbitrum": {Network: "arbitrum", MaxFee: 2},
		"base":     {Network: "base", MaxFee: 1},
	}}

	res, err := CompareNetworks(context.Background(), feed, []string{"arbitrum", "base"}, "simple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows[0].Network != "base" {
		t.Errorf("cheapest = %q, want base", res.Rows[0].Network)
	}
}

func TestCompareNetworks_UnknownKeyKeepsRow(t *testing.T) {
	feed := stubFeed{quotes: map[string]Quote{
		"testnet": {Network: "testnet", MaxFee: 5},
	}}

	res, err := CompareNetworks(context.Background(), feed, []string{"testnet"}, "simple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %+v, want 1", res.Rows)
	}
	// Off-registry networks fall back to the key as their display name.
	if res.Rows[0].Name != "testnet" || res.Rows[0].Token != "" {
		t.Errorf("fallback row = %+v", res.Rows[0])
	}
}

func TestCompareNetworks_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := stubFeed{quotes: map[string]Quote{
		"ethereum": {Network: "ethereum", MaxFee: 30},
	}}
	_, err := CompareNetworks(ctx, feed, []string{"ethereum"}, "simple")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCompareNetworks_AllFailed(t *testing.T) {
	feed := stubFeed{errs: map[string]error{
		"ethereum": errors.New("down"),
		"polygon":  errors.New("down"),
	}}

	res, err := CompareNetworks(context.Background(), feed, []string{"ethereum", "polygon"}, "swap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("rows = %+v, want none", res.Rows)
	}
	if res.Cheapest != "" {
		t.Errorf("Cheapest = %q, want empty", res.Cheapest)
	}
	if len(res.Errors) != 2 {
		t.Errorf("errors = %v, want both networks", res.Errors)
	}
}
