package engine

// Method selects one of the supported forecasting models.
type Method string

// The supported forecast methods. Anything else is rejected with an
// UnknownMethodError.
const (
	MethodMovingAverage Method = "moving_average"
	MethodExponential   Method = "exponential"
	MethodLinear        Method = "linear"
)

const (
	// minForecastRecords is the floor below which no model runs.
	minForecastRecords = 3
	// movingAverageWindow caps how many recent records feed the moving
	// average.
	movingAverageWindow = 10
	// smoothingAlpha is the fixed exponential smoothing factor.
	smoothingAlpha = 0.3
	// minRegressionRecords and regressionWindow bound the linear fit
	// sample.
	minRegressionRecords = 5
	regressionWindow     = 20
	// confidenceWindow is how many raw base fees rate the smoothing
	// confidence.
	confidenceWindow = 10
)

// Prediction is a one-step-ahead fee forecast. Fields beyond the shared
// contract are model diagnostics: SampleSize for the moving average,
// Alpha for exponential smoothing, Slope and RSquared for the linear
// fit. Values carry full precision; rounding is left to presentation.
type Prediction struct {
	Method      string  `json:"method"`
	BaseFee     float64 `json:"predicted_base_fee"`
	PriorityTip float64 `json:"predicted_priority_tip"`
	MaxFee      float64 `json:"predicted_max_fee"`
	Confidence  float64 `json:"confidence"`
	Trend       string  `json:"trend"`

	SampleSize int     `json:"sample_size,omitempty"`
	Alpha      float64 `json:"alpha,omitempty"`
	Slope      float64 `json:"slope,omitempty"`
	RSquared   float64 `json:"r_squared,omitempty"`
}

// forecaster is the contract every model implements.
type forecaster interface {
	predict(s *Series) (*Prediction, error)
}

// forecasterFor maps a method tag to its model. The method set is
// closed; adding a model means adding a case here.
func forecasterFor(m Method) (forecaster, error) {
	switch m {
	case MethodMovingAverage:
		return movingAverage{}, nil
	case MethodExponential:
		return exponential{}, nil
	case MethodLinear:
		return linearRegression{}, nil
	default:
		return nil, &UnknownMethodError{Method: string(m)}
	}
}

// Predict runs the chosen forecasting model over the series.
func (s *Series) Predict(method Method) (*Prediction, error) {
	if len(s.Records) < minForecastRecords {
		return nil, &InsufficientDataError{Op: "prediction", Need: minForecastRecords, Got: len(s.Records)}
	}
	f, err := forecasterFor(method)
	if err != nil {
		return nil, err
	}
	return f.predict(s)
}

type movingAverage struct{}

func (movingAverage) predict(s *Series) (*Prediction, error) {
	records := s.Records
	if len(records) > movingAverageWindow {
		records = records[len(records)-movingAverageWindow:]
	}
	fees := make([]float64, len(records))
	tips := make([]float64, len(records))
	for i, r := range records {
		fees[i] = r.BaseFee
		tips[i] = r.PriorityTip
	}

	base := mean(fees)
	tip := mean(tips)
	return &Prediction{
		Method:      "moving_average",
		BaseFee:     base,
		PriorityTip: tip,
		MaxFee:      base + tip,
		Confidence:  volatilityConfidence(fees),
		Trend:       s.Trend(0),
		SampleSize:  len(records),
	}, nil
}

type exponential struct{}

func (exponential) predict(s *Series) (*Prediction, error) {
	if len(s.Records) < 2 {
		return nil, &InsufficientDataError{Op: "exponential smoothing", Need: 2, Got: len(s.Records)}
	}
	fees := s.baseFees()
	tips := s.tips()

	base := ema(fees, smoothingAlpha)
	tip := ema(tips, smoothingAlpha)

	// Confidence is rated on the raw tail, not the smoothed series.
	recent := fees
	if len(recent) > confidenceWindow {
		recent = recent[len(recent)-confidenceWindow:]
	}

	return &Prediction{
		Method:      "exponential_moving_average",
		BaseFee:     base,
		PriorityTip: tip,
		MaxFee:      base + tip,
		Confidence:  volatilityConfidence(recent),
		Trend:       s.Trend(0),
		Alpha:       smoothingAlpha,
	}, nil
}

// ema folds ema = α·x + (1−α)·ema over the whole series, seeded with
// the first value. A constant series stays exactly constant.
func ema(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}
	v := values[0]
	for _, x := range values[1:] {
		v = alpha*x + (1-alpha)*v
	}
	return v
}

type linearRegression struct{}

func (linearRegression) predict(s *Series) (*Prediction, error) {
	if len(s.Records) < minRegressionRecords {
		return nil, &InsufficientDataError{Op: "linear regression", Need: minRegressionRecords, Got: len(s.Records)}
	}
	records := s.Records
	if len(records) > regressionWindow {
		records = records[len(records)-regressionWindow:]
	}
	n := len(records)
	fees := make([]float64, n)
	tips := make([]float64, n)
	for i, r := range records {
		fees[i] = r.BaseFee
		tips[i] = r.PriorityTip
	}

	// Ordinary least squares of base fee against sample position.
	xMean := float64(n-1) / 2
	yMean := mean(fees)
	var num, den float64
	for i, y := range fees {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return nil, &DegenerateError{Op: "linear regression", Reason: "cannot calculate trend over zero-variance positions"}
	}
	slope := num / den
	intercept := yMean - slope*xMean

	// Evaluate one step past the window; a fee cannot go below zero.
	base := slope*float64(n) + intercept
	if base < 0 {
		base = 0
	}
	// The tip is too noisy for a fit of its own; a plain mean does.
	tip := mean(tips)

	var ssRes, ssTot float64
	for i, y := range fees {
		fit := slope*float64(i) + intercept
		ssRes += (y - fit) * (y - fit)
		d := y - yMean
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return &Prediction{
		Method:      "linear_regression",
		BaseFee:     base,
		PriorityTip: tip,
		MaxFee:      base + tip,
		Confidence:  clamp(r2*100, 0, 100),
		Trend:       s.Trend(0),
		Slope:       slope,
		RSquared:    r2,
	}, nil
}

// volatilityConfidence maps the dispersion of a fee window onto
// [0,100]: a flat window scores 100, a CV at or past 100% scores 0. A
// zero mean is rated fully volatile rather than risking a division by
// zero.
func volatilityConfidence(fees []float64) float64 {
	volatility := 100.0
	if m := mean(fees); m > 0 {
		volatility = sampleStdDev(fees) / m * 100
	}
	return clamp(100-volatility, 0, 100)
}
