package engine

// Record is a single stored fee observation for a network. Fees are in
// gwei. Optional fields are zero when the source did not supply them.
// Records are immutable inputs: the engine copies what it needs and
// never writes derived values back onto them.
type Record struct {
	Timestamp     string  `json:"timestamp"`
	Network       string  `json:"network"`
	BaseFee       float64 `json:"base_fee"`
	PriorityTip   float64 `json:"priority_tip"`
	MaxFee        float64 `json:"max_fee"`
	TokenPriceUSD float64 `json:"token_price_usd,omitempty"`
}
