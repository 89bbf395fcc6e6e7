// Package pricing resolves per-model token rates and prices token usage.
package pricing

import "github.com/theirongolddev/sessionlens/internal/model"

// TierThreshold is the per-class token count above which tiered rates apply.
const TierThreshold = 200_000

// ModelRate holds cost per single token for each billed class. The Above
// fields are optional tiered rates for tokens beyond TierThreshold.
type ModelRate struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64

	InputAbove      *float64
	OutputAbove     *float64
	CacheWriteAbove *float64
	CacheReadAbove  *float64
}

// IsZero reports whether every base rate is zero.
func (r ModelRate) IsZero() bool {
	return r.Input == 0 && r.Output == 0 && r.CacheWrite == 0 && r.CacheRead == 0
}

// Cost prices token counts at this rate.
func (r ModelRate) Cost(t model.TokenCounts) float64 {
	return tiered(t.Input, r.Input, r.InputAbove) +
		tiered(t.Output, r.Output, r.OutputAbove) +
		tiered(t.CacheCreation, r.CacheWrite, r.CacheWriteAbove) +
		tiered(t.CacheRead, r.CacheRead, r.CacheReadAbove)
}

// tiered charges the first TierThreshold tokens at base and the rest at
// above, when a tiered rate exists.
func tiered(tokens int64, base float64, above *float64) float64 {
	if tokens <= 0 {
		return 0
	}
	if above == nil || tokens <= TierThreshold {
		return float64(tokens) * base
	}
	return TierThreshold*base + float64(tokens-TierThreshold)*(*above)
}
