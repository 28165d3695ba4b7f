package analysis

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

type Risk struct {
	Volatility float64  `json:"volatility"`
	RiskScore  string   `json:"risk_score"`
	Beta       *float64 `json:"beta"`
	Stability  string   `json:"stability"`
}

// Volatility is the sample standard deviation of closes.
func Volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	return stat.StdDev(closes, nil)
}

func RiskScore(volatility float64) string {
	switch {
	case volatility < 0.1:
		return "Low"
	case volatility < 0.3:
		return "Moderate"
	default:
		return "High"
	}
}

func StabilityScore(beta float64) string {
	if beta < 1 {
		return "Safe Stock (Low Beta)"
	}
	return "Volatile Stock (High Beta)"
}

// Beta regresses the stock's daily returns on the benchmark's over the
// overlapping tail of both series. ok is false when there is too little data.
func Beta(stock, benchmark []float64) (float64, bool) {
	n := len(stock)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 3 {
		return 0, false
	}
	rs := returns(stock[len(stock)-n:])
	rb := returns(benchmark[len(benchmark)-n:])
	varB := stat.Variance(rb, nil)
	if varB == 0 {
		return 0, false
	}
	return stat.Covariance(rs, rb, nil) / varB, true
}

// Assess builds the risk card; beta is optional.
func Assess(closes []float64, beta *float64) Risk {
	v := Volatility(closes)
	r := Risk{Volatility: round4(v), RiskScore: RiskScore(v), Stability: "Unknown"}
	if beta != nil {
		b := round4(*beta)
		r.Beta = &b
		r.Stability = StabilityScore(b)
	}
	return r
}

func returns(p []float64) []float64 {
	out := make([]float64, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		if p[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, p[i]/p[i-1]-1)
	}
	return out
}

type PositionRiskInput struct {
	EntryPrice   decimal.Decimal `json:"entry_price"`
	StopLoss     decimal.Decimal `json:"stop_loss"`
	PositionSize int64           `json:"position_size"`
}

type PositionRiskResult struct {
	RiskPerShare decimal.Decimal `json:"risk_per_share"`
	TotalRisk    decimal.Decimal `json:"total_risk"`
	Threshold    decimal.Decimal `json:"threshold"`
	Level        string          `json:"level"`
}

var twoPercent = decimal.NewFromFloat(0.02)

// PositionRisk applies the 2% rule: total risk above 2% of balance is High.
func PositionRisk(in PositionRiskInput, balance decimal.Decimal) (*PositionRiskResult, error) {
	if !in.EntryPrice.IsPositive() || !in.StopLoss.IsPositive() || in.PositionSize <= 0 {
		return nil, ErrInvalidPosition
	}
	perShare := in.EntryPrice.Sub(in.StopLoss)
	total := perShare.Mul(decimal.NewFromInt(in.PositionSize))
	threshold := balance.Mul(twoPercent)
	level := "Acceptable"
	if total.GreaterThan(threshold) {
		level = "High (exceeds 2% of balance)"
	}
	return &PositionRiskResult{
		RiskPerShare: perShare.Round(2),
		TotalRisk:    total.Round(2),
		Threshold:    threshold.Round(2),
		Level:        level,
	}, nil
}
