package analysis

type Sentiment struct {
	Recommendation string `json:"recommendation"`
	Comment        string `json:"comment"`
	Positive       int    `json:"positive"`
	Neutral        int    `json:"neutral"`
	Negative       int    `json:"negative"`
}

// Analyze compares the current price with the forecast end point.
func Analyze(current, predicted float64) Sentiment {
	switch {
	case predicted > current:
		return Sentiment{Recommendation: "Buy", Comment: "The stock is expected to rise! A great time to invest.", Positive: 70, Neutral: 20, Negative: 10}
	case predicted < current:
		return Sentiment{Recommendation: "Sell", Comment: "The stock is expected to drop. Consider selling.", Positive: 10, Neutral: 20, Negative: 70}
	default:
		return Sentiment{Recommendation: "Hold", Comment: "The stock is expected to remain stable. Hold your position.", Positive: 20, Neutral: 70, Negative: 10}
	}
}
