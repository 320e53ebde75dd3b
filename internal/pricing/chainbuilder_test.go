package pricing

import (
	"testing"
	"time"

	"github.com/optionchain/simulator/internal/models"
)

func testParams() models.SimulationParameters {
	p := models.SimulationParameters{
		Symbol:           "AAPL",
		InitialPrice:     185.0,
		DaysToExpiration: 45,
		Volatility:       0.25,
		RiskFreeRate:     0.04,
		DividendYield:    0.005,
		TimeFrame:        models.TimeFrameDay,
		Steps:            10,
	}
	p.ApplyDefaults()
	return p
}

func TestBuild_ProducesSortedAscendingStrikes(t *testing.T) {
	b := NewChainBuilder()
	params := testParams()

	chain, _ := b.Build(185.0, params, 45.0/365.0, time.Now())
	if len(chain.Contracts) == 0 {
		t.Fatal("expected at least one contract")
	}
	for i := 1; i < len(chain.Contracts); i++ {
		if chain.Contracts[i-1].Strike >= chain.Contracts[i].Strike {
			t.Fatalf("strikes not strictly ascending at index %d: %v >= %v", i, chain.Contracts[i-1].Strike, chain.Contracts[i].Strike)
		}
	}
}

func TestBuild_CallDeltaMonotonicallyDecreasesWithStrike(t *testing.T) {
	b := NewChainBuilder()
	params := testParams()

	chain, _ := b.Build(185.0, params, 45.0/365.0, time.Now())
	for i := 1; i < len(chain.Contracts); i++ {
		prev, cur := chain.Contracts[i-1], chain.Contracts[i]
		if prev.Call.Delta < cur.Call.Delta {
			t.Fatalf("expected call delta to be non-increasing in strike: %v -> %v", prev.Call.Delta, cur.Call.Delta)
		}
		if prev.Put.Delta > cur.Put.Delta {
			t.Fatalf("expected put delta to be non-decreasing in strike: %v -> %v", prev.Put.Delta, cur.Put.Delta)
		}
	}
}

func TestBuild_DeltaBoundsAndNonNegativeGamma(t *testing.T) {
	b := NewChainBuilder()
	params := testParams()

	chain, _ := b.Build(185.0, params, 45.0/365.0, time.Now())
	for _, c := range chain.Contracts {
		if c.Call.Delta < 0 || c.Call.Delta > 1 {
			t.Fatalf("call delta out of [0,1] at strike %v: %v", c.Strike, c.Call.Delta)
		}
		if c.Put.Delta < -1 || c.Put.Delta > 0 {
			t.Fatalf("put delta out of [-1,0] at strike %v: %v", c.Strike, c.Put.Delta)
		}
		if c.Gamma < 0 {
			t.Fatalf("negative gamma at strike %v: %v", c.Strike, c.Gamma)
		}
	}
}

func TestBuild_NullsQuoteBelowTick(t *testing.T) {
	b := NewChainBuilder()
	params := testParams()
	params.ChainSize = 5
	params.StrikeInterval = 80 // push deep strikes far OTM so mid collapses below tick

	chain, _ := b.Build(185.0, params, 5.0/365.0, time.Now())
	foundNull := false
	for _, c := range chain.Contracts {
		if c.Call.Mid == nil {
			foundNull = true
			if c.Call.Bid != nil || c.Call.Ask != nil {
				t.Fatalf("expected bid/ask also nil alongside nil mid at strike %v", c.Strike)
			}
		}
	}
	if !foundNull {
		t.Skip("no strike collapsed below tick with this configuration; adjust fixture if pricing model changes")
	}
}

func TestStrikeLadder_AppliesDefaultIntervalWhenUnset(t *testing.T) {
	strikes := strikeLadder(100, 5, 0)
	if len(strikes) != 5 {
		t.Fatalf("expected 5 strikes, got %d", len(strikes))
	}
}

func TestSmileVolatility_ClampsToFloor(t *testing.T) {
	vol := smileVolatility(0, 100, 100, 0.0005)
	if vol != 1e-4 {
		t.Fatalf("expected floor clamp to 1e-4, got %v", vol)
	}
}
