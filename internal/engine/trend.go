package engine

import "time"

// defaultTrendHours is the lookback used when a caller passes hours <= 0.
const defaultTrendHours = 24

// Trend classifies the recent direction of base fees as "increasing",
// "decreasing" or "stable", or "insufficient_data" with fewer than two
// usable records. The lookback window is split at its midpoint and the
// mean base fee of each half compared; a move beyond ±10% marks a
// direction.
func (s *Series) Trend(hours int) string {
	if hours <= 0 {
		hours = defaultTrendHours
	}
	if len(s.Records) < 2 {
		return "insufficient_data"
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var recent []float64
	for i, r := range s.Records {
		// Unparsable timestamps hold the zero time and fall before any
		// realistic cutoff.
		if s.times[i].Before(cutoff) {
			continue
		}
		recent = append(recent, r.BaseFee)
	}
	if len(recent) < 2 {
		return "insufficient_data"
	}

	mid := len(recent) / 2
	firstAvg := mean(recent[:mid])
	secondAvg := mean(recent[mid:])

	// A zero first-half mean has no defined percentage change; the
	// series reads as stable rather than dividing by zero.
	if firstAvg == 0 {
		return "stable"
	}

	change := (secondAvg - firstAvg) / firstAvg * 100
	switch {
	case change > 10:
		return "increasing"
	case change < -10:
		return "decreasing"
	default:
		return "stable"
	}
}
