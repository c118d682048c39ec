package engine

import (
	"math"
	"sort"
	"time"
)

// FeeAggregate holds min/max/mean for a single fee metric.
type FeeAggregate struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// BasicStats summarizes base and max fees over a set of records.
// MaxFee is nil when no record carries a max fee; the two metrics are
// aggregated independently, so a record missing one field still counts
// toward the other.
type BasicStats struct {
	Count   int           `json:"count"`
	BaseFee FeeAggregate  `json:"base_fee"`
	MaxFee  *FeeAggregate `json:"max_fee,omitempty"`
}

// Percentiles are interpolated base-fee percentiles.
type Percentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// TipStats summarizes priority tips when tip data exists.
type TipStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdev"`
}

// AdvancedStats extends BasicStats with dispersion and distribution
// measures over the base fee. CV is the coefficient of variation in
// percent; Volatility is its coarse label.
type AdvancedStats struct {
	BasicStats
	Median      float64     `json:"median"`
	StdDev      float64     `json:"stdev"`
	Variance    float64     `json:"variance"`
	Percentiles Percentiles `json:"percentiles"`
	CV          float64     `json:"cv"`
	Volatility  string      `json:"volatility"`
	Tip         *TipStats   `json:"priority_tip,omitempty"`
}

// ComputeBasicStats computes min/max/mean over base and max fees.
// It returns nil when no record carries a base fee.
func ComputeBasicStats(records []Record) *BasicStats {
	baseFees := collectBaseFees(records)
	if len(baseFees) == 0 {
		return nil
	}
	stats := &BasicStats{
		Count:   len(baseFees),
		BaseFee: aggregate(baseFees),
	}
	if maxFees := collectMaxFees(records); len(maxFees) > 0 {
		agg := aggregate(maxFees)
		stats.MaxFee = &agg
	}
	return stats
}

// ComputeAdvancedStats computes the full statistics snapshot: basic
// aggregates plus median, sample stdev/variance, percentiles, CV and a
// volatility label. Returns nil on the same no-data condition as
// ComputeBasicStats.
func ComputeAdvancedStats(records []Record) *AdvancedStats {
	basic := ComputeBasicStats(records)
	if basic == nil {
		return nil
	}

	baseFees := collectBaseFees(records)
	sorted := make([]float64, len(baseFees))
	copy(sorted, baseFees)
	sort.Float64s(sorted)

	variance := sampleVariance(baseFees)
	stdev := math.Sqrt(variance)
	cv := 0.0
	if basic.BaseFee.Avg > 0 {
		cv = stdev / basic.BaseFee.Avg * 100
	}

	adv := &AdvancedStats{
		BasicStats: *basic,
		Median:     percentile(sorted, 50),
		StdDev:     stdev,
		Variance:   variance,
		Percentiles: Percentiles{
			P25: percentileOrFallback(sorted, 25),
			P50: percentileOrFallback(sorted, 50),
			P75: percentileOrFallback(sorted, 75),
			P90: percentileOrFallback(sorted, 90),
			P95: percentileOrFallback(sorted, 95),
		},
		CV:         cv,
		Volatility: volatilityLabel(cv),
	}

	if tips := collectTips(records); len(tips) > 0 {
		agg := aggregate(tips)
		adv.Tip = &TipStats{
			Min:    agg.Min,
			Max:    agg.Max,
			Avg:    agg.Avg,
			Median: median(tips),
			StdDev: sampleStdDev(tips),
		}
	}
	return adv
}

// FilterByTimeframe keeps records observed within the last N hours.
// Records whose timestamp cannot be parsed are silently dropped.
func FilterByTimeframe(records []Record, hours int) []Record {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var filtered []Record
	for _, r := range records {
		t := ParseTimestamp(r.Timestamp)
		if t.IsZero() || t.Before(cutoff) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// RecommendAction rates the current base fee against historical stats:
// "excellent" near the historical minimum, "good" well below average,
// "moderate" around average, "high-cost" above it. Returns
// "insufficient-data" when stats are absent.
func RecommendAction(currentBaseFee float64, stats *BasicStats) string {
	if stats == nil {
		return "insufficient-data"
	}
	avg := stats.BaseFee.Avg
	switch {
	case currentBaseFee <= stats.BaseFee.Min*1.1:
		return "excellent"
	case currentBaseFee <= avg*0.8:
		return "good"
	case currentBaseFee <= avg*1.2:
		return "moderate"
	default:
		return "high-cost"
	}
}

// maxDisplayOutliers caps the outlier list returned for display; the
// count field is never capped.
const maxDisplayOutliers = 10

// PriceRange describes the spread of base fees with quartile bounds and
// outliers by the 1.5×IQR rule once the sample is large enough.
type PriceRange struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`

	Q1         float64 `json:"q1,omitempty"`
	Q3         float64 `json:"q3,omitempty"`
	IQR        float64 `json:"iqr,omitempty"`
	LowerFence float64 `json:"lower_fence,omitempty"`
	UpperFence float64 `json:"upper_fence,omitempty"`

	OutlierCount int       `json:"outlier_count"`
	Outliers     []float64 `json:"outliers,omitempty"`

	// LowSample is true when fewer than 4 fees exist and the quartile
	// fields above are unset.
	LowSample bool `json:"low_sample,omitempty"`
}

// PriceRanges computes quartiles, IQR and 1.5×IQR outliers over base
// fees. With fewer than 4 samples only min/max/range are reported.
// Returns nil when no record carries a base fee.
func PriceRanges(records []Record) *PriceRange {
	fees := collectBaseFees(records)
	if len(fees) == 0 {
		return nil
	}
	sorted := make([]float64, len(fees))
	copy(sorted, fees)
	sort.Float64s(sorted)

	pr := &PriceRange{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	pr.Range = pr.Max - pr.Min

	if len(sorted) < 4 {
		pr.LowSample = true
		return pr
	}

	pr.Q1 = percentile(sorted, 25)
	pr.Q3 = percentile(sorted, 75)
	pr.IQR = pr.Q3 - pr.Q1
	pr.LowerFence = pr.Q1 - 1.5*pr.IQR
	pr.UpperFence = pr.Q3 + 1.5*pr.IQR

	for _, v := range sorted {
		if v < pr.LowerFence || v > pr.UpperFence {
			pr.OutlierCount++
			if len(pr.Outliers) < maxDisplayOutliers {
				pr.Outliers = append(pr.Outliers, v)
			}
		}
	}
	return pr
}

// HourlyStat aggregates base fees for one hour of the day.
type HourlyStat struct {
	Hour   int     `json:"hour"`
	Avg    float64 `json:"avg"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// HourlyPatterns groups base fees by hour of day (0-23, dates ignored)
// and aggregates each bucket. Hours without observations are omitted;
// records with unparsable timestamps are excluded.
func HourlyPatterns(records []Record) []HourlyStat {
	buckets := make(map[int][]float64)
	for _, r := range records {
		t := ParseTimestamp(r.Timestamp)
		if t.IsZero() {
			continue
		}
		buckets[t.Hour()] = append(buckets[t.Hour()], r.BaseFee)
	}

	stats := make([]HourlyStat, 0, len(buckets))
	for h := 0; h < 24; h++ {
		fees, ok := buckets[h]
		if !ok {
			continue
		}
		agg := aggregate(fees)
		stats = append(stats, HourlyStat{
			Hour:   h,
			Avg:    agg.Avg,
			Min:    agg.Min,
			Max:    agg.Max,
			Median: median(fees),
			Count:  len(fees),
		})
	}
	return stats
}

// RollingVolatility returns the coefficient of variation (%) over the
// last window records that carry a base fee.
func RollingVolatility(records []Record, window int) (float64, error) {
	fees := collectBaseFees(records)
	if window <= 0 || len(fees) < window {
		return 0, &InsufficientDataError{Op: "rolling volatility", Need: window, Got: len(fees)}
	}
	recent := fees[len(fees)-window:]
	m := mean(recent)
	if m == 0 {
		return 0, nil
	}
	return sampleStdDev(recent) / m * 100, nil
}

// collectBaseFees keeps base fees from records that carry one. A zero
// value marks the field as absent at ingestion; live networks never
// report an exactly-zero base fee.
func collectBaseFees(records []Record) []float64 {
	fees := make([]float64, 0, len(records))
	for _, r := range records {
		if r.BaseFee > 0 {
			fees = append(fees, r.BaseFee)
		}
	}
	return fees
}

func collectMaxFees(records []Record) []float64 {
	fees := make([]float64, 0, len(records))
	for _, r := range records {
		if r.MaxFee > 0 {
			fees = append(fees, r.MaxFee)
		}
	}
	return fees
}

func collectTips(records []Record) []float64 {
	tips := make([]float64, 0, len(records))
	for _, r := range records {
		if r.PriorityTip > 0 {
			tips = append(tips, r.PriorityTip)
		}
	}
	return tips
}

// aggregate computes min/max/mean over a non-empty value slice.
func aggregate(values []float64) FeeAggregate {
	agg := FeeAggregate{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		if v < agg.Min {
			agg.Min = v
		}
		if v > agg.Max {
			agg.Max = v
		}
		sum += v
	}
	agg.Avg = sum / float64(len(values))
	return agg
}

// volatilityLabel maps a coefficient of variation to a coarse label.
func volatilityLabel(cv float64) string {
	switch {
	case cv < 10:
		return "Low"
	case cv < 25:
		return "Moderate"
	case cv < 50:
		return "High"
	default:
		return "Very High"
	}
}

// percentile returns the p-th percentile from a sorted slice (p in
// 0..100) using linear interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// percentileOrFallback estimates the p-th percentile of a sorted
// sample. Small samples cannot support the higher percentiles, so the
// estimate degrades: quartiles need 4 values, p90 needs 10, p95 needs
// 20. Below those counts the lower quartile reports the sample minimum
// and the upper percentiles report the maximum; the median is always
// interpolated.
func percentileOrFallback(sorted []float64, p float64) float64 {
	need := 4
	switch {
	case p >= 95:
		need = 20
	case p >= 90:
		need = 10
	}
	if len(sorted) >= need {
		return percentile(sorted, p)
	}
	switch {
	case p < 50:
		return sorted[0]
	case p > 50:
		return sorted[len(sorted)-1]
	default:
		return percentile(sorted, 50)
	}
}

// median returns the middle value, averaging the two central values for
// even-sized samples.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance is the Bessel-corrected variance; 0 when n <= 1.
func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values)-1)
}

// sampleStdDev is the Bessel-corrected standard deviation; 0 when n <= 1.
func sampleStdDev(values []float64) float64 {
	return math.Sqrt(sampleVariance(values))
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
