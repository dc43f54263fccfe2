package synth

import (
	"math"

	"github.com/yigit/mentorlink/internal/app/models"
)

// Uniform draws from the continuous uniform distribution U(a, b)
func Uniform(r Random, a, b float64) float64 {
	return a + (b-a)*r.Float64()
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds v to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TrendWeights is the categorical distribution of trend classes
type TrendWeights struct {
	Improving float64
	Stable    float64
	Declining float64
}

// DefaultTrendWeights assigns improving 60%, stable 25%, declining 15%
var DefaultTrendWeights = TrendWeights{Improving: 0.60, Stable: 0.25, Declining: 0.15}

func (w TrendWeights) total() float64 {
	return w.Improving + w.Stable + w.Declining
}

// DrawTrend picks a trend class with probabilities proportional to w.
// A zero distribution falls back to DefaultTrendWeights.
func DrawTrend(r Random, w TrendWeights) models.TrendClass {
	total := w.total()
	if total <= 0 {
		w, total = DefaultTrendWeights, DefaultTrendWeights.total()
	}

	x := r.Float64() * total
	switch {
	case x < w.Improving:
		return models.TrendImproving
	case x < w.Improving+w.Stable:
		return models.TrendStable
	default:
		return models.TrendDeclining
	}
}

// Backward step bounds for the GPA walk. A step moves from a period to the one before it.
const (
	improvingStepMin = 0.05
	improvingStepMax = 0.15
	stableStepMax    = 0.05
	decliningStepMin = 0.05
	decliningStepMax = 0.20
)

// backwardDelta returns the change applied when moving one period earlier in time.
// Improving series were lower in the past and declining ones higher.
func backwardDelta(r Random, trend models.TrendClass) float64 {
	switch trend {
	case models.TrendImproving:
		return -Uniform(r, improvingStepMin, improvingStepMax)
	case models.TrendDeclining:
		return Uniform(r, decliningStepMin, decliningStepMax)
	default:
		return Uniform(r, -stableStepMax, stableStepMax)
	}
}
