package analysis

import (
	"math"
	"strings"
	"time"

	"traderiser-backend/internal/application/market"
)

const (
	ModelLinear     = "linear"
	ModelPolynomial = "polynomial"
	ModelARIMA      = "arima"
	ModelLSTM       = "lstm"

	MaxForecastDays = 365
)

type Point struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

type Forecast struct {
	Model     string    `json:"model"`
	Current   float64   `json:"current"`
	Predicted float64   `json:"predicted"`
	Points    []Point   `json:"points"`
	Sentiment Sentiment `json:"sentiment"`
}

// ParseModel maps user input ("Linear Regression", "poly", ...) to a model name.
func ParseModel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || strings.HasPrefix(s, "linear"):
		return ModelLinear
	case strings.HasPrefix(s, "poly"):
		return ModelPolynomial
	case s == ModelARIMA:
		return ModelARIMA
	case s == ModelLSTM:
		return ModelLSTM
	}
	return s
}

// Predict fits closes against calendar-day offsets and extrapolates one point
// per day after the last bar.
func Predict(bars []market.Bar, days int, model string) (*Forecast, error) {
	if days < 1 || days > MaxForecastDays {
		return nil, ErrInvalidDays
	}
	degree := 1
	switch model {
	case ModelLinear:
	case ModelPolynomial:
		degree = 3
	default:
		return nil, ErrUnsupportedModel
	}
	if len(bars) < degree+1 {
		return nil, ErrInsufficientData
	}

	first := bars[0].Time
	last := bars[len(bars)-1].Time
	// x is scaled to [0,1] over the history span to keep the cubic well conditioned.
	span := last.Sub(first).Hours() / 24
	if span <= 0 {
		return nil, ErrSingularFit
	}
	xs := make([]float64, len(bars))
	ys := make([]float64, len(bars))
	for i, b := range bars {
		xs[i] = b.Time.Sub(first).Hours() / 24 / span
		ys[i] = b.Close
	}
	coef, err := polyFit(xs, ys, degree)
	if err != nil {
		return nil, err
	}

	points := make([]Point, days)
	for i := 1; i <= days; i++ {
		d := last.AddDate(0, 0, i)
		x := d.Sub(first).Hours() / 24 / span
		points[i-1] = Point{Date: d, Price: round4(evalPoly(coef, x))}
	}
	current := bars[len(bars)-1].Close
	predicted := points[len(points)-1].Price
	return &Forecast{
		Model:     model,
		Current:   current,
		Predicted: predicted,
		Points:    points,
		Sentiment: Analyze(current, predicted),
	}, nil
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
