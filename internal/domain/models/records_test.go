package models

import (
	"math"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestSurpriseAndScores(t *testing.T) {
	p := EconomicDataPoint{Actual: fp(110), Forecast: fp(100), Previous: fp(105)}
	s, ok := p.Surprise()
	if !ok || math.Abs(s-0.1) > 1e-12 {
		t.Fatalf("surprise = (%g,%v), want (0.1,true)", s, ok)
	}
	if got := p.SurpriseScore(0.02); got != 1 {
		t.Fatalf("surprise score = %d, want 1", got)
	}
	if got := p.SurpriseScore(0.2); got != 0 {
		t.Fatalf("surprise inside dead-band scored %d, want 0", got)
	}
	if got := p.TrendScore(); got != 1 {
		t.Fatalf("trend score = %d, want 1", got)
	}

	undefined := EconomicDataPoint{Actual: fp(5)}
	if _, ok := undefined.Surprise(); ok {
		t.Fatalf("surprise defined without forecast")
	}
	zeroFc := EconomicDataPoint{Actual: fp(5), Forecast: fp(0)}
	if _, ok := zeroFc.Surprise(); ok {
		t.Fatalf("surprise defined with zero forecast")
	}
}

func TestSentimentValidationRejectsBadSums(t *testing.T) {
	good := SentimentData{Asset: AssetUSD, RetailLongPct: 70, RetailShortPct: 30}
	if err := ValidateSentimentData(&good); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	bad := SentimentData{Asset: AssetUSD, RetailLongPct: 70, RetailShortPct: 40}
	if err := ValidateSentimentData(&bad); err == nil {
		t.Fatalf("percentages summing to 110 passed validation")
	}
	withinTol := SentimentData{Asset: AssetUSD, RetailLongPct: 70.2, RetailShortPct: 30}
	if err := ValidateSentimentData(&withinTol); err != nil {
		t.Fatalf("sum within tolerance rejected: %v", err)
	}
}

func TestEconomicValidationRules(t *testing.T) {
	p := EconomicDataPoint{
		Asset: AssetEUR, Indicator: "cpi", Source: "x",
		ImportanceWeight: 3, ConfidenceLevel: 0.5,
	}
	if err := ValidateEconomicDataPoint(&p); err != nil {
		t.Fatalf("valid point rejected: %v", err)
	}

	p.ImportanceWeight = 9
	if err := ValidateEconomicDataPoint(&p); err == nil {
		t.Fatalf("importance outside [1,5] passed")
	}
	p.ImportanceWeight = 3
	p.Indicator = ""
	if err := ValidateEconomicDataPoint(&p); err == nil {
		t.Fatalf("missing indicator passed")
	}
	p.Indicator = "cpi"
	p.Asset = "EURUSD"
	if err := ValidateEconomicDataPoint(&p); err == nil {
		t.Fatalf("malformed asset code passed")
	}
	p.Asset = "ZZZ"
	if err := ValidateEconomicDataPoint(&p); err == nil {
		t.Fatalf("asset outside universe passed")
	}
}

func TestCalendarReaction(t *testing.T) {
	e := EconomicCalendarEvent{
		Asset: AssetUSD, Name: "NFP", At: time.Now(), Impact: ImpactHigh,
		Actual: fp(250), Forecast: fp(180),
	}
	if got := e.Reaction(0.02); got != ReactionPositive {
		t.Fatalf("reaction = %s, want POSITIVE", got)
	}
	e.Actual = nil
	if got := e.Reaction(0.02); got != ReactionNeutral {
		t.Fatalf("scheduled (unrealized) event reaction = %s, want NEUTRAL", got)
	}
}

func TestScheduledEventValidate(t *testing.T) {
	now := time.Now()
	ok := ScheduledEvent{Asset: AssetXAU, At: now.Add(time.Hour), Reason: "fomc"}
	if err := ok.Validate(now); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	past := ScheduledEvent{Asset: AssetXAU, At: now.Add(-time.Hour), Reason: "fomc"}
	if err := past.Validate(now); err == nil {
		t.Fatalf("past trigger time passed")
	}
	unknown := ScheduledEvent{Asset: "ZZZ", At: now.Add(time.Hour), Reason: "x"}
	if err := unknown.Validate(now); err == nil {
		t.Fatalf("unknown asset passed")
	}
}

func TestAssetScoreCloneIsIndependent(t *testing.T) {
	s := &AssetScore{Asset: AssetUSD, BullishFactors: []string{"inflation"}}
	c := s.Clone()
	c.BullishFactors[0] = "mutated"
	if s.BullishFactors[0] != "inflation" {
		t.Fatalf("clone shares factor slice with original")
	}
}
