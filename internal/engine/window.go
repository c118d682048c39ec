package engine

import (
	"fmt"
	"time"
)

// OptimalWindow describes the cheapest and most expensive hours of the
// day observed in the series.
type OptimalWindow struct {
	CheapestHour       int     `json:"cheapest_hour"`
	CheapestAvg        float64 `json:"cheapest_hour_avg_gwei"`
	MostExpensiveHour  int     `json:"most_expensive_hour"`
	MostExpensiveAvg   float64 `json:"most_expensive_hour_avg_gwei"`
	CurrentHour        int     `json:"current_hour"`
	HoursUntilCheapest int     `json:"hours_until_cheapest"`
	Recommendation     string  `json:"recommendation"`
}

// OptimalTimeWindow mines hour-of-day seasonality for a cheaper hour to
// transact. It needs at least hoursAhead records to say anything and
// returns nil, not an error, when the sample is too thin.
func (s *Series) OptimalTimeWindow(hoursAhead int) *OptimalWindow {
	if hoursAhead <= 0 {
		hoursAhead = 24
	}
	if len(s.Records) < hoursAhead {
		return nil
	}

	// Bucket base fees by hour of day, keeping first-appearance order
	// so ties resolve to the earliest-seen hour.
	var order []int
	buckets := make(map[int][]float64)
	for i, r := range s.Records {
		if s.times[i].IsZero() {
			continue
		}
		h := s.times[i].Hour()
		if _, seen := buckets[h]; !seen {
			order = append(order, h)
		}
		buckets[h] = append(buckets[h], r.BaseFee)
	}
	if len(order) == 0 {
		return nil
	}

	avgs := make(map[int]float64, len(order))
	for _, h := range order {
		avgs[h] = mean(buckets[h])
	}
	cheapest, dearest := order[0], order[0]
	for _, h := range order[1:] {
		if avgs[h] < avgs[cheapest] {
			cheapest = h
		}
		if avgs[h] > avgs[dearest] {
			dearest = h
		}
	}

	current := time.Now().Hour()
	wait := hoursUntil(current, cheapest)

	w := &OptimalWindow{
		CheapestHour:       cheapest,
		CheapestAvg:        avgs[cheapest],
		MostExpensiveHour:  dearest,
		MostExpensiveAvg:   avgs[dearest],
		CurrentHour:        current,
		HoursUntilCheapest: wait,
	}
	if wait > 0 {
		w.Recommendation = fmt.Sprintf("Wait %d hours", wait)
	} else {
		w.Recommendation = "Now is a good time"
	}
	return w
}

// hoursUntil is the forward distance on the 24h clock from hour
// current to hour target.
func hoursUntil(current, target int) int {
	return ((target-current)%24 + 24) % 24
}
