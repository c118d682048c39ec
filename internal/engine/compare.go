package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"gasgauge/internal/networks"
)

// Quote is a live fee snapshot for one network.
type Quote struct {
	Network       string  `json:"network"`
	BaseFee       float64 `json:"base_fee_gwei"`
	PriorityTip   float64 `json:"priority_tip_gwei"`
	MaxFee        float64 `json:"max_fee_gwei"`
	TokenPriceUSD float64 `json:"token_price_usd,omitempty"`
}

// Feed supplies live quotes; the fetch layer implements it.
type Feed interface {
	Quote(ctx context.Context, network string) (Quote, error)
}

// CompareRow is one network's cost line in a comparison.
type CompareRow struct {
	Network     string  `json:"network"`
	Name        string  `json:"name"`
	BaseFee     float64 `json:"base_fee_gwei"`
	PriorityTip float64 `json:"priority_tip_gwei"`
	MaxFee      float64 `json:"max_fee_gwei"`
	Token       string  `json:"token"`
	CostNative  float64 `json:"cost_native"`
	CostUSD     float64 `json:"cost_usd"`
}

// CompareResult ranks networks by transaction cost, cheapest first.
type CompareResult struct {
	TxType   string            `json:"tx_type"`
	GasUnits float64           `json:"gas_units"`
	Rows     []CompareRow      `json:"rows"`
	Cheapest string            `json:"cheapest,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// CompareNetworks quotes every requested network in parallel and ranks
// them by the cost of a txType transaction. Failed fetches land in
// Errors keyed by network; they never abort the comparison.
func CompareNetworks(ctx context.Context, feed Feed, keys []string, txType string) (*CompareResult, error) {
	gas := networks.GasUnits(txType)

	quotes := make([]Quote, len(keys))
	errs := make([]error, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			quotes[i], errs[i] = feed.Quote(gctx, key)
			// Per-network failures are collected, not fatal, so
			// siblings keep running.
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &CompareResult{TxType: txType, GasUnits: gas}
	for i, key := range keys {
		if errs[i] != nil {
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			res.Errors[key] = errs[i].Error()
			continue
		}
		q := quotes[i]
		net, ok := networks.Get(key)
		if !ok {
			net.Name = key
		}
		cost := CostAt(q.MaxFee, gas, q.TokenPriceUSD)
		res.Rows = append(res.Rows, CompareRow{
			Network:     key,
			Name:        net.Name,
			BaseFee:     q.BaseFee,
			PriorityTip: q.PriorityTip,
			MaxFee:      q.MaxFee,
			Token:       net.Token,
			CostNative:  cost.Native,
			CostUSD:     cost.USD,
		})
	}

	// Networks without a USD quote sort by native cost among themselves
	// at the front; a stable order keeps the table readable either way.
	sort.SliceStable(res.Rows, func(i, j int) bool {
		if res.Rows[i].CostUSD != res.Rows[j].CostUSD {
			return res.Rows[i].CostUSD < res.Rows[j].CostUSD
		}
		return res.Rows[i].CostNative < res.Rows[j].CostNative
	})
	if len(res.Rows) > 0 {
		res.Cheapest = res.Rows[0].Network
	}
	return res, nil
}
