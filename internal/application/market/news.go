package market

import (
	"math/rand/v2"
)

// FallbackHeadlines are served, flagged as degraded, when no provider news is available.
var FallbackHeadlines = []string{
	"Tech stocks rally as AI demand surges.",
	"Fed signals potential rate cuts next quarter.",
	"Crypto market sees 10% surge overnight.",
	"Oil prices drop amid geopolitical tensions.",
	"Retail sector booms with holiday sales up 15%.",
	"Semiconductor shortage eases, stocks soar.",
	"Green energy investments hit record highs.",
	"Global markets mixed after inflation data release.",
	"Pharma stocks rise on new drug approvals.",
	"Automakers pivot to EVs, boosting shares.",
}

// SampleFallbackHeadlines picks n distinct canned headlines.
func SampleFallbackHeadlines(n int) []Headline {
	if n <= 0 || n > len(FallbackHeadlines) {
		n = len(FallbackHeadlines)
	}
	idx := rand.Perm(len(FallbackHeadlines))[:n]
	out := make([]Headline, 0, n)
	for _, i := range idx {
		out = append(out, Headline{Title: FallbackHeadlines[i], Publisher: "TradeRiser"})
	}
	return out
}
