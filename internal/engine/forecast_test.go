package engine

import (
	"errors"
	"math"
	"testing"
	"time"
)

// seriesWithFeesAndTips builds a now-anchored series with paired fees
// and tips, one record per minute.
func seriesWithFeesAndTips(fees, tips []float64) *Series {
	now := time.Now()
	records := make([]Record, len(fees))
	for i := range fees {
		records[i] = recAt(now.Add(-time.Duration(len(fees)-i)*time.Minute), fees[i], tips[i])
	}
	return NewSeries(records)
}

func TestPredict_MovingAverageExact(t *testing.T) {
	// Three flat records: mean base 20, mean tip 2, zero dispersion so
	// confidence is 100.
	s := seriesWithFeesAndTips([]float64{20, 20, 20}, []float64{2, 2, 2})
	p, err := s.Predict(MethodMovingAverage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Method != "moving_average" {
		t.Errorf("Method = %q, want moving_average", p.Method)
	}
	if math.Abs(p.BaseFee-20) > 1e-9 || math.Abs(p.PriorityTip-2) > 1e-9 {
		t.Errorf("base/tip = %v/%v, want 20/2", p.BaseFee, p.PriorityTip)
	}
	if math.Abs(p.MaxFee-22) > 1e-9 {
		t.Errorf("MaxFee = %v, want 22", p.MaxFee)
	}
	if math.Abs(p.Confidence-100) > 1e-9 {
		t.Errorf("Confidence = %v, want 100", p.Confidence)
	}
	if p.Trend != "stable" {
		t.Errorf("Trend = %q, want stable", p.Trend)
	}
	if p.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", p.SampleSize)
	}
}

func TestPredict_MovingAverageWindow(t *testing.T) {
	// Twelve fees 1..12: only the last ten (3..12) feed the average,
	// mean = 7.5.
	fees := make([]float64, 12)
	tips := make([]float64, 12)
	for i := range fees {
		fees[i] = float64(i + 1)
	}
	s := seriesWithFeesAndTips(fees, tips)
	p, err := s.Predict(MethodMovingAverage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p.BaseFee-7.5) > 1e-9 {
		t.Errorf("BaseFee = %v, want 7.5", p.BaseFee)
	}
	if p.SampleSize != 10 {
		t.Errorf("SampleSize = %d, want 10", p.SampleSize)
	}
	if p.Trend != "increasing" {
		t.Errorf("Trend = %q, want increasing", p.Trend)
	}
}

func TestPredict_ExponentialConstantSeries(t *testing.T) {
	// Smoothing a constant series reproduces the constant exactly.
	s := seriesWithFeesAndTips([]float64{10, 10, 10}, []float64{1, 1, 1})
	p, err := s.Predict(MethodExponential)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Method != "exponential_moving_average" {
		t.Errorf("Method = %q, want exponential_moving_average", p.Method)
	}
	if p.BaseFee != 10 || p.PriorityTip != 1 {
		t.Errorf("base/tip = %v/%v, want 10/1", p.BaseFee, p.PriorityTip)
	}
	if p.Alpha != 0.3 {
		t.Errorf("Alpha = %v, want 0.3", p.Alpha)
	}
	if math.Abs(p.Confidence-100) > 1e-9 {
		t.Errorf("Confidence = %v, want 100", p.Confidence)
	}
}

func TestEMA_Worked(t *testing.T) {
	// Seeded with 10, then folded: e2 = 0.3*20 + 0.7*10 = 13,
	// e3 = 0.3*30 + 0.7*13 = 18.1.
	got := ema([]float64{10, 20, 30}, 0.3)
	want := 0.3*30 + 0.7*(0.3*20+0.7*10)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ema = %v, want %v", got, want)
	}
	if got := ema(nil, 0.3); got != 0 {
		t.Errorf("ema(nil) = %v, want 0", got)
	}
	if got := ema([]float64{7}, 0.3); got != 7 {
		t.Errorf("ema(single) = %v, want 7", got)
	}
}

func TestPredict_LinearPerfectLine(t *testing.T) {
	// y = 10x + 10 at positions 0..4: slope 10, next point 60, perfect
	// fit so R² = 1 and confidence 100.
	s := seriesWithFeesAndTips(
		[]float64{10, 20, 30, 40, 50},
		[]float64{2, 2, 2, 2, 2},
	)
	p, err := s.Predict(MethodLinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Method != "linear_regression" {
		t.Errorf("Method = %q, want linear_regression", p.Method)
	}
	if math.Abs(p.BaseFee-60) > 1e-9 {
		t.Errorf("BaseFee = %v, want 60", p.BaseFee)
	}
	if math.Abs(p.Slope-10) > 1e-9 {
		t.Errorf("Slope = %v, want 10", p.Slope)
	}
	if math.Abs(p.RSquared-1) > 1e-9 {
		t.Errorf("RSquared = %v, want 1", p.RSquared)
	}
	if math.Abs(p.Confidence-100) > 1e-9 {
		t.Errorf("Confidence = %v, want 100", p.Confidence)
	}
	if math.Abs(p.PriorityTip-2) > 1e-9 {
		t.Errorf("PriorityTip = %v, want 2", p.PriorityTip)
	}
}

func TestPredict_LinearFloorsAtZero(t *testing.T) {
	// y = 50 - 12x at positions 0..4 extrapolates to -10 at x=5; a
	// fee cannot go negative, so the forecast floors at 0.
	s := seriesWithFeesAndTips(
		[]float64{50, 38, 26, 14, 2},
		[]float64{1, 1, 1, 1, 1},
	)
	p, err := s.Predict(MethodLinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.BaseFee != 0 {
		t.Errorf("BaseFee = %v, want 0", p.BaseFee)
	}
	if math.Abs(p.Slope-(-12)) > 1e-9 {
		t.Errorf("Slope = %v, want -12", p.Slope)
	}
	// MaxFee is the floored base plus the mean tip.
	if math.Abs(p.MaxFee-1) > 1e-9 {
		t.Errorf("MaxFee = %v, want 1", p.MaxFee)
	}
}

func TestPredict_LinearNeedsFiveRecords(t *testing.T) {
	s := seriesWithFeesAndTips([]float64{10, 20, 30, 40}, []float64{0, 0, 0, 0})
	_, err := s.Predict(MethodLinear)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Need != 5 || insufficient.Got != 4 {
		t.Errorf("error detail = need %d got %d, want 5/4", insufficient.Need, insufficient.Got)
	}
}

func TestPredict_TooFewRecords(t *testing.T) {
	s := seriesWithFeesAndTips([]float64{10, 20}, []float64{0, 0})
	_, err := s.Predict(MethodMovingAverage)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Need != 3 || insufficient.Got != 2 {
		t.Errorf("error detail = need %d got %d, want 3/2", insufficient.Need, insufficient.Got)
	}
}

func TestPredict_UnknownMethod(t *testing.T) {
	s := seriesWithFeesAndTips([]float64{10, 20, 30}, []float64{0, 0, 0})
	_, err := s.Predict(Method("quantum"))
	var unknown *UnknownMethodError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMethodError, got %v", err)
	}
	if unknown.Method != "quantum" {
		t.Errorf("Method = %q, want quantum", unknown.Method)
	}
}

func TestPredict_DataGateBeforeMethodCheck(t *testing.T) {
	// With too little data the sample gate fires before the method is
	// even inspected.
	s := seriesWithFeesAndTips([]float64{10}, []float64{0})
	_, err := s.Predict(Method("quantum"))
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestVolatilityConfidence(t *testing.T) {
	// Flat window scores 100.
	if got := volatilityConfidence([]float64{10, 10, 10}); math.Abs(got-100) > 1e-9 {
		t.Errorf("flat = %v, want 100", got)
	}
	// [10,20,30]: CV = 10/20*100 = 50 -> confidence 50.
	if got := volatilityConfidence([]float64{10, 20, 30}); math.Abs(got-50) > 1e-9 {
		t.Errorf("cv50 = %v, want 50", got)
	}
	// A zero mean is rated fully volatile.
	if got := volatilityConfidence([]float64{0, 0, 0}); got != 0 {
		t.Errorf("zero mean = %v, want 0", got)
	}
	// Never leaves [0,100] even for wild dispersion.
	if got := volatilityConfidence([]float64{1, 1000}); got < 0 || got > 100 {
		t.Errorf("confidence out of range: %v", got)
	}
}
