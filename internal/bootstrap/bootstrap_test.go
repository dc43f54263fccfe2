package bootstrap

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/mentorlink/internal/config"
	"github.com/yigit/mentorlink/internal/synth"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	return cfg
}

func TestResolveSeed(t *testing.T) {
	cfg := testConfig(t)
	clock := func() time.Time { return time.Unix(0, 12345) }

	if got := ResolveSeed(cfg, clock); got != 12345 {
		t.Errorf("ResolveSeed() with seed 0 = %d, want clock value", got)
	}
	cfg.Synthesis.Seed = 77
	if got := ResolveSeed(cfg, clock); got != 77 {
		t.Errorf("ResolveSeed() = %d, want 77", got)
	}
}

func TestSynthesisOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Synthesis.Seasonal = map[string]float64{"2025-02": 0.95}
	cfg.Synthesis.GPANudge = 1.5
	cfg.Synthesis.TxTimeout = "5s"

	opts := SynthesisOptions(cfg, 1, zerolog.Nop())
	if opts.Weights != synth.DefaultTrendWeights {
		t.Errorf("Weights = %+v, want defaults", opts.Weights)
	}
	if opts.Seasonal.Multiplier("2025-02") != 0.95 || opts.Seasonal.Multiplier("2025-03") != 1.0 {
		t.Errorf("Seasonal = %v", opts.Seasonal)
	}
	if opts.GPANudge != 1.5 || opts.TxTimeout != 5*time.Second {
		t.Errorf("GPANudge/TxTimeout = %v/%v", opts.GPANudge, opts.TxTimeout)
	}

	a, b := SynthesisOptions(cfg, 9, zerolog.Nop()).Random, SynthesisOptions(cfg, 9, zerolog.Nop()).Random
	for i := 0; i < 5; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed produced different streams")
		}
	}
}
