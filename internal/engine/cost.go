package engine

// gweiToNative converts a per-gas price in gwei to native token units
// (1 gwei = 1e-9 of the native token).
const gweiToNative = 1e-9

// TxCost is the projected cost of a single transaction.
type TxCost struct {
	GasUnits float64 `json:"gas_units"`
	Native   float64 `json:"cost_native"`
	USD      float64 `json:"cost_usd,omitempty"`
}

// CostAt prices gasUnits of work at a gas price in gwei. A zero token
// price leaves the USD cost unset.
func CostAt(gasPriceGwei, gasUnits, tokenPriceUSD float64) TxCost {
	native := gasPriceGwei * gweiToNative * gasUnits
	cost := TxCost{GasUnits: gasUnits, Native: native}
	if tokenPriceUSD > 0 {
		cost.USD = native * tokenPriceUSD
	}
	return cost
}
