package engine

import "math"

const (
	// minFeeBandRecords gates the recommender.
	minFeeBandRecords = 5
	// feeBandWindow is how many recent records rate current volatility.
	feeBandWindow = 50
	// The safety buffer is volatilityRatio*bufferScale clamped to
	// [minBuffer, maxBuffer]: choppier recent fees widen every tier.
	bufferScale = 0.6
	minBuffer   = 0.05
	maxBuffer   = 0.35
	// minTipGwei keeps every tier's tip at a level block producers
	// still pick up.
	minTipGwei = 0.2
	// DefaultGasUnits is a simple native transfer.
	DefaultGasUnits = 21000
)

// feeTiers defines the three bands; multipliers scale the predicted
// base fee and the observed median tip.
var feeTiers = []struct {
	name     string
	baseMult float64
	tipMult  float64
}{
	{"eco", 0.6, 0.25},
	{"balanced", 1.0, 0.6},
	{"priority", 1.25, 1.0},
}

// FeeBandParams configures FeeBands. Zero values select the defaults:
// exponential baseline, 21000 gas, no USD pricing.
type FeeBandParams struct {
	Method        Method
	GasUnits      float64
	TokenPriceUSD float64
}

// FeeBand is one recommended fee tier.
type FeeBand struct {
	BaseFee     float64 `json:"base_fee"`
	PriorityTip float64 `json:"priority_tip"`
	MaxFee      float64 `json:"max_fee"`
	CostNative  float64 `json:"cost_native"`
	CostUSD     float64 `json:"cost_usd,omitempty"`
}

// FeeBandSet holds the three tiers plus the volatility context they
// were derived from. Max fees are monotonic: eco ≤ balanced ≤ priority.
type FeeBandSet struct {
	Eco      FeeBand `json:"eco"`
	Balanced FeeBand `json:"balanced"`
	Priority FeeBand `json:"priority"`

	VolatilityRatio float64 `json:"volatility_ratio"`
	SafetyBuffer    float64 `json:"safety_buffer"`
	Confidence      float64 `json:"confidence"`
	Trend           string  `json:"trend"`
	Method          string  `json:"method"`
	GasUnits        float64 `json:"gas_units"`
}

// FeeBands blends a baseline forecast with recent volatility into three
// risk-adjusted fee tiers. The baseline uses the requested method and
// falls back to the moving average once if that model fails; a second
// failure is returned verbatim.
func (s *Series) FeeBands(p FeeBandParams) (*FeeBandSet, error) {
	if len(s.Records) < minFeeBandRecords {
		return nil, &InsufficientDataError{Op: "fee bands", Need: minFeeBandRecords, Got: len(s.Records)}
	}

	method := p.Method
	if method == "" {
		method = MethodExponential
	}
	pred, err := s.Predict(method)
	if err != nil {
		pred, err = s.Predict(MethodMovingAverage)
		if err != nil {
			return nil, err
		}
	}

	records := s.Records
	if len(records) > feeBandWindow {
		records = records[len(records)-feeBandWindow:]
	}
	fees := make([]float64, len(records))
	tips := make([]float64, len(records))
	for i, r := range records {
		fees[i] = r.BaseFee
		tips[i] = r.PriorityTip
	}

	ratio := 0.0
	if m := mean(fees); m > 0 {
		ratio = sampleStdDev(fees) / m
	}
	medianTip := median(tips)
	buffer := clamp(ratio*bufferScale, minBuffer, maxBuffer)

	gas := p.GasUnits
	if gas <= 0 {
		gas = DefaultGasUnits
	}

	bands := make([]FeeBand, len(feeTiers))
	for i, tier := range feeTiers {
		base := pred.BaseFee * tier.baseMult * (1 + buffer)
		tip := math.Max(minTipGwei, medianTip*(tier.tipMult+buffer))
		maxFee := base + tip
		cost := CostAt(maxFee, gas, p.TokenPriceUSD)
		bands[i] = FeeBand{
			BaseFee:     base,
			PriorityTip: tip,
			MaxFee:      maxFee,
			CostNative:  cost.Native,
			CostUSD:     cost.USD,
		}
	}

	return &FeeBandSet{
		Eco:             bands[0],
		Balanced:        bands[1],
		Priority:        bands[2],
		VolatilityRatio: ratio,
		SafetyBuffer:    buffer,
		// Calm recent fees and a confident baseline both raise the
		// score; the clamp does most of the work for volatile series.
		Confidence: clamp(100-ratio*100+pred.Confidence, 0, 100),
		Trend:      pred.Trend,
		Method:     pred.Method,
		GasUnits:   gas,
	}, nil
}
