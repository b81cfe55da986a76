package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"BiasEngine/internal/domain/models"
	domsvc "BiasEngine/internal/domain/service"
	"BiasEngine/internal/registry"
)

func fp(v float64) *float64 { return &v }

type fixedProvider struct {
	score float64
	conf  float64
	err   error
}

func (f fixedProvider) Technical(context.Context, models.Asset) (domsvc.ExternalScore, error) {
	if f.err != nil {
		return domsvc.ExternalScore{}, f.err
	}
	return domsvc.ExternalScore{Score: f.score, Confidence: f.conf}, nil
}

func (f fixedProvider) CentralBank(ctx context.Context, a models.Asset) (domsvc.ExternalScore, error) {
	return f.Technical(ctx, a)
}

func validPoint(asset models.Asset, indicator string, actual, forecast float64) models.EconomicDataPoint {
	return models.EconomicDataPoint{
		Asset:            asset,
		Indicator:        indicator,
		Source:           "test",
		Timestamp:        time.Now(),
		Actual:           fp(actual),
		Forecast:         fp(forecast),
		ImportanceWeight: 3,
		ConfidenceLevel:  0.9,
		ScrapeSuccess:    true,
		ValidationPassed: true,
	}
}

func TestTotalIsSumOfSubScoresAndBounded(t *testing.T) {
	e := NewEngine(registry.New(),
		fixedProvider{score: 3, conf: 0.8},
		fixedProvider{score: -1, conf: 0.7},
		DefaultParams(), nil)

	w := Window{
		Economic: []models.EconomicDataPoint{validPoint(models.AssetUSD, "cpi", 3.4, 3.0)},
		Sentiment: &models.SentimentData{
			Asset: models.AssetUSD, RetailLongPct: 70, RetailShortPct: 30, ConfidenceLevel: 0.9,
		},
		COT: &models.COTData{
			Asset:           models.AssetUSD,
			Commercial:      models.Positioning{Long: 5000, Short: 3800},
			Retail:          models.Positioning{Long: 2000, Short: 2900},
			ConfidenceLevel: 0.8,
		},
	}
	w.COT.Normalize()

	s := e.Calculate(context.Background(), models.AssetUSD, w)

	if got := s.Scores.Sum(); math.Abs(got-s.TotalScore) > 1e-12 {
		t.Fatalf("total %g != sum of sub-scores %g", s.TotalScore, got)
	}
	for name, v := range map[string]float64{
		"economic": s.Scores.Economic, "sentiment": s.Scores.Sentiment,
		"cot": s.Scores.COT, "technical": s.Scores.Technical,
		"central_bank": s.Scores.CentralBank,
	} {
		if v < models.SubScoreMin || v > models.SubScoreMax {
			t.Fatalf("%s sub-score %g outside [-5,5]", name, v)
		}
	}
	if got := s.TotalScore / models.TotalScoreRange; math.Abs(got-s.NormalizedScore) > 1e-12 {
		t.Fatalf("normalized %g != total/25 (%g)", s.NormalizedScore, got)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		t.Fatalf("confidence %g outside [0,1]", s.Confidence)
	}
}

func TestSignalThresholds(t *testing.T) {
	cases := []struct {
		normalized float64
		want       models.Signal
	}{
		{0.75, models.SignalStrongBuy},
		{0.6, models.SignalStrongBuy},
		{0.59, models.SignalBuy},
		{0.2, models.SignalBuy},
		{0.19, models.SignalHold},
		{0, models.SignalHold},
		{-0.19, models.SignalHold},
		{-0.2, models.SignalSell},
		{-0.59, models.SignalSell},
		{-0.6, models.SignalStrongSell},
		{-1, models.SignalStrongSell},
	}
	for _, c := range cases {
		if got := models.ClassifySignal(c.normalized); got != c.want {
			t.Fatalf("ClassifySignal(%g) = %s, want %s", c.normalized, got, c.want)
		}
	}
}

func TestCompositeExampleFromFiveSubScores(t *testing.T) {
	// sub-scores [2,1,0,-1,3] -> total 5, normalized 0.2, signal BUY
	scores := models.SubScores{Economic: 2, Sentiment: 1, COT: 0, Technical: -1, CentralBank: 3}
	total := scores.Sum()
	if total != 5 {
		t.Fatalf("total = %g, want 5", total)
	}
	normalized := total / models.TotalScoreRange
	if math.Abs(normalized-0.2) > 1e-12 {
		t.Fatalf("normalized = %g, want 0.2", normalized)
	}
	if got := models.ClassifySignal(normalized); got != models.SignalBuy {
		t.Fatalf("signal = %s, want BUY (boundary inclusive)", got)
	}
}

func TestDeterministicForIdenticalInputs(t *testing.T) {
	reg := registry.New()
	e := NewEngine(reg, nil, nil, DefaultParams(), nil)
	w := Window{Economic: []models.EconomicDataPoint{validPoint(models.AssetEUR, "gdp", 1.2, 1.0)}}

	a := e.Calculate(context.Background(), models.AssetEUR, w)
	b := e.Calculate(context.Background(), models.AssetEUR, w)
	if a.Signal != b.Signal || a.TotalScore != b.TotalScore || a.RegistryRevision != b.RegistryRevision {
		t.Fatalf("identical inputs produced %v vs %v", a.Signal, b.Signal)
	}
}

func TestFailedScrapeNeverInfluencesScore(t *testing.T) {
	e := NewEngine(registry.New(), nil, nil, DefaultParams(), nil)

	clean := Window{Economic: []models.EconomicDataPoint{validPoint(models.AssetGBP, "cpi", 2.2, 2.0)}}
	base := e.Calculate(context.Background(), models.AssetGBP, clean)

	poisoned := validPoint(models.AssetGBP, "cpi", 1e9, 1)
	poisoned.ScrapeSuccess = false
	withBad := Window{Economic: append(clean.Economic, poisoned)}
	got := e.Calculate(context.Background(), models.AssetGBP, withBad)

	if got.TotalScore != base.TotalScore || got.Confidence != base.Confidence {
		t.Fatalf("failed-scrape record changed score: %g -> %g", base.TotalScore, got.TotalScore)
	}

	unvalidated := validPoint(models.AssetGBP, "cpi", -1e9, 1)
	unvalidated.ValidationPassed = false
	withBad2 := Window{Economic: append(clean.Economic, unvalidated)}
	if got2 := e.Calculate(context.Background(), models.AssetGBP, withBad2); got2.TotalScore != base.TotalScore {
		t.Fatalf("unvalidated record changed score: %g -> %g", base.TotalScore, got2.TotalScore)
	}
}

func TestProviderFailureDegradesToZeroWithDiagnostic(t *testing.T) {
	e := NewEngine(registry.New(),
		fixedProvider{err: fmt.Errorf("feed down")},
		fixedProvider{score: 99, conf: 1}, // out of bound, must be excluded
		DefaultParams(), nil)

	s := e.Calculate(context.Background(), models.AssetJPY, Window{})
	if s.Scores.Technical != 0 || s.Scores.CentralBank != 0 {
		t.Fatalf("failed providers contributed: tech=%g cb=%g", s.Scores.Technical, s.Scores.CentralBank)
	}
	if len(s.Diagnostics) < 2 {
		t.Fatalf("expected diagnostics for both failed dimensions, got %v", s.Diagnostics)
	}
	if s.Confidence != 0 {
		t.Fatalf("empty run confidence = %g, want 0", s.Confidence)
	}
}

func TestEmptyWindowScoresZero(t *testing.T) {
	e := NewEngine(registry.New(), nil, nil, DefaultParams(), nil)
	s := e.Calculate(context.Background(), models.AssetXAU, Window{})
	if s.TotalScore != 0 || s.Confidence != 0 || s.Signal != models.SignalHold {
		t.Fatalf("empty window: total=%g conf=%g signal=%s", s.TotalScore, s.Confidence, s.Signal)
	}
	if len(s.BullishFactors) != 0 || len(s.BearishFactors) != 0 {
		t.Fatalf("empty window emitted factors: %v %v", s.BullishFactors, s.BearishFactors)
	}
}

func TestMidRunRegistryChangeIsReported(t *testing.T) {
	reg := registry.New()
	// provider that mutates the registry while the run is in flight
	e := NewEngine(reg, providerFunc(func(ctx context.Context, a models.Asset) (domsvc.ExternalScore, error) {
		if err := reg.SetWeight("inflation", 2.5); err != nil {
			t.Fatalf("set weight: %v", err)
		}
		return domsvc.ExternalScore{Score: 1, Confidence: 1}, nil
	}), nil, DefaultParams(), nil)

	s := e.Calculate(context.Background(), models.AssetUSD, Window{})
	found := false
	for _, d := range s.Diagnostics {
		if strings.Contains(d, "revision") {
			found = true
		}
	}
	if !found {
		t.Fatalf("mid-run weight change not reported: %v", s.Diagnostics)
	}
}

type providerFunc func(context.Context, models.Asset) (domsvc.ExternalScore, error)

func (f providerFunc) Technical(ctx context.Context, a models.Asset) (domsvc.ExternalScore, error) {
	return f(ctx, a)
}
