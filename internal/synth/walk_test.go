package synth_test

import (
	"math"
	"testing"

	"github.com/yigit/mentorlink/internal/app/models"
	"github.com/yigit/mentorlink/internal/synth"
)

// fixedRandom returns f for every Float64 draw and i for every IntN draw
type fixedRandom struct {
	f float64
	i int
}

func (r fixedRandom) Float64() float64 { return r.f }
func (r fixedRandom) IntN(n int) int   { return r.i % n }

func TestUniform(t *testing.T) {
	tests := []struct {
		name string
		r    synth.Random
		a, b float64
		want float64
	}{
		{name: "midpoint", r: synth.Midpoint{}, a: -4, b: 4, want: 0},
		{name: "low end", r: fixedRandom{f: 0}, a: 0.05, b: 0.20, want: 0.05},
		{name: "three quarters", r: fixedRandom{f: 0.75}, a: 0, b: 8, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := synth.Uniform(tt.r, tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Uniform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampRound2(t *testing.T) {
	if got := synth.Clamp(4.2, 0, 4); got != 4 {
		t.Errorf("Clamp(4.2) = %v, want 4", got)
	}
	if got := synth.Clamp(-0.3, 0, 4); got != 0 {
		t.Errorf("Clamp(-0.3) = %v, want 0", got)
	}
	if got := synth.Clamp(2.5, 0, 4); got != 2.5 {
		t.Errorf("Clamp(2.5) = %v, want 2.5", got)
	}
	if got := synth.Round2(3.456); got != 3.46 {
		t.Errorf("Round2(3.456) = %v, want 3.46", got)
	}
	if got := synth.Round2(85.49999999999999); got != 85.5 {
		t.Errorf("Round2(85.49999999999999) = %v, want 85.5", got)
	}
}

func TestDrawTrendBoundaries(t *testing.T) {
	tests := []struct {
		name string
		f    float64
		want models.TrendClass
	}{
		{name: "start", f: 0, want: models.TrendImproving},
		{name: "midpoint", f: 0.5, want: models.TrendImproving},
		{name: "below stable", f: 0.59, want: models.TrendImproving},
		{name: "stable", f: 0.61, want: models.TrendStable},
		{name: "below declining", f: 0.84, want: models.TrendStable},
		{name: "declining", f: 0.86, want: models.TrendDeclining},
		{name: "end", f: 0.9999, want: models.TrendDeclining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := synth.DrawTrend(fixedRandom{f: tt.f}, synth.DefaultTrendWeights); got != tt.want {
				t.Errorf("DrawTrend(%v) = %s, want %s", tt.f, got, tt.want)
			}
		})
	}
}

func TestDrawTrendZeroWeightsUseDefault(t *testing.T) {
	if got := synth.DrawTrend(fixedRandom{f: 0.9}, synth.TrendWeights{}); got != models.TrendDeclining {
		t.Errorf("DrawTrend() = %s, want %s", got, models.TrendDeclining)
	}
}

func TestDrawTrendDistribution(t *testing.T) {
	const n = 10000
	r := synth.NewRandom(42)
	counts := map[models.TrendClass]int{}
	for i := 0; i < n; i++ {
		counts[synth.DrawTrend(r, synth.DefaultTrendWeights)]++
	}

	want := map[models.TrendClass]float64{
		models.TrendImproving: 0.60,
		models.TrendStable:    0.25,
		models.TrendDeclining: 0.15,
	}
	for trend, share := range want {
		got := float64(counts[trend]) / n
		if math.Abs(got-share) > 0.05 {
			t.Errorf("share of %s = %.3f, want %.2f +/- 0.05", trend, got, share)
		}
	}
}

func TestNewRandomIsReproducible(t *testing.T) {
	a, b := synth.NewRandom(7), synth.NewRandom(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v != %v", i, x, y)
		}
		if x, y := a.IntN(3), b.IntN(3); x != y {
			t.Fatalf("int draw %d differs: %v != %v", i, x, y)
		}
	}
}
