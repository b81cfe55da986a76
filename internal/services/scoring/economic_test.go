package scoring

import (
	"testing"
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/registry"
)

func TestSingleMaximalSurpriseSaturates(t *testing.T) {
	reg := registry.New()
	p := DefaultParams()

	// importance 5 on an indicator owned by the highest-weighted factor
	pt := validPoint(models.AssetUSD, "cpi", 4.0, 3.0)
	pt.ImportanceWeight = 5

	res := ScoreEconomic([]models.EconomicDataPoint{pt}, reg, p, time.Now())
	if res.Score != models.SubScoreMax {
		t.Fatalf("maximal surprise scored %g, want 5 (saturated)", res.Score)
	}
	if len(res.Bullish) != 1 || res.Bullish[0] != "inflation" {
		t.Fatalf("bullish factors = %v, want [inflation]", res.Bullish)
	}
}

func TestDeadBandSuppressesSmallSurprises(t *testing.T) {
	p := DefaultParams()
	pt := validPoint(models.AssetUSD, "gdp", 1.001, 1.0) // 0.1% surprise, inside 2% dead-band
	res := ScoreEconomic([]models.EconomicDataPoint{pt}, registry.New(), p, time.Now())
	if res.Score != 0 || res.ConfWeight != 0 {
		t.Fatalf("in-line release contributed: score=%g weight=%g", res.Score, res.ConfWeight)
	}
}

func TestLookbackExcludesStaleReleases(t *testing.T) {
	p := DefaultParams()
	now := time.Now()
	stale := validPoint(models.AssetEUR, "cpi", 5, 1)
	stale.Timestamp = now.Add(-p.LookbackWindow - time.Hour)
	res := ScoreEconomic([]models.EconomicDataPoint{stale}, registry.New(), p, now)
	if res.Score != 0 {
		t.Fatalf("stale release contributed %g", res.Score)
	}
}

func TestOpposingSurprisesOffset(t *testing.T) {
	up := validPoint(models.AssetGBP, "cpi", 4, 3)
	down := validPoint(models.AssetGBP, "core_cpi", 2, 3)
	res := ScoreEconomic([]models.EconomicDataPoint{up, down}, registry.New(), DefaultParams(), time.Now())
	if res.Score != 0 {
		t.Fatalf("equal opposing surprises scored %g, want 0", res.Score)
	}
	if len(res.Bullish) != 1 || len(res.Bearish) != 1 {
		t.Fatalf("both sides should name the factor: %v / %v", res.Bullish, res.Bearish)
	}
}

func TestUndefinedSurpriseContributesNothing(t *testing.T) {
	pt := validPoint(models.AssetJPY, "cpi", 2, 0) // zero forecast -> surprise undefined
	res := ScoreEconomic([]models.EconomicDataPoint{pt}, registry.New(), DefaultParams(), time.Now())
	if res.Score != 0 || res.ConfWeight != 0 {
		t.Fatalf("undefined surprise contributed: %+v", res)
	}

	noActual := validPoint(models.AssetJPY, "cpi", 0, 3)
	noActual.Actual = nil
	res2 := ScoreEconomic([]models.EconomicDataPoint{noActual}, registry.New(), DefaultParams(), time.Now())
	if res2.Score != 0 {
		t.Fatalf("missing actual contributed %g", res2.Score)
	}
}
