package scoring

import (
	"testing"

	"BiasEngine/internal/domain/models"
)

func TestContrarianBuyExample(t *testing.T) {
	cot := &models.COTData{
		Asset:           models.AssetEUR,
		Commercial:      models.Positioning{Long: 5000, Short: 3800, Net: 999}, // bogus source net
		Retail:          models.Positioning{Long: 2000, Short: 2900, Net: 999},
		ConfidenceLevel: 1,
	}
	cot.Normalize()

	if cot.Commercial.Net != 1200 {
		t.Fatalf("commercial net = %g, want 1200 (recomputed, source ignored)", cot.Commercial.Net)
	}
	if cot.Retail.Net != -900 {
		t.Fatalf("retail net = %g, want -900", cot.Retail.Net)
	}
	if got := cot.CommercialSentiment(); got != models.SentimentBullish {
		t.Fatalf("commercial sentiment = %s, want BULLISH", got)
	}
	if got := cot.RetailSentiment(); got != models.SentimentBearish {
		t.Fatalf("retail sentiment = %s, want BEARISH", got)
	}
	if got := cot.Contrarian(); got != models.ContrarianBuy {
		t.Fatalf("contrarian signal = %s, want BUY", got)
	}

	res := ScoreCOT(cot, DefaultParams())
	if res.Score <= 0 {
		t.Fatalf("BUY signal scored %g, want > 0", res.Score)
	}
}

func TestContrarianHoldWhenClassesAgree(t *testing.T) {
	cot := &models.COTData{
		Commercial: models.Positioning{Long: 100, Short: 50},
		Retail:     models.Positioning{Long: 80, Short: 20},
	}
	cot.Normalize()
	if got := cot.Contrarian(); got != models.ContrarianHold {
		t.Fatalf("agreeing classes: signal = %s, want HOLD", got)
	}
	if res := ScoreCOT(cot, DefaultParams()); res.Score != 0 || res.ConfWeight != 0 {
		t.Fatalf("HOLD scored %g with weight %g, want zeros", res.Score, res.ConfWeight)
	}
}

func TestContrarianHoldOnZeroNet(t *testing.T) {
	cot := &models.COTData{
		Commercial: models.Positioning{Long: 100, Short: 100},
		Retail:     models.Positioning{Long: 20, Short: 80},
	}
	cot.Normalize()
	if got := cot.Contrarian(); got != models.ContrarianHold {
		t.Fatalf("zero commercial net: signal = %s, want HOLD", got)
	}
}

func TestWeakPositioningWeakensSignal(t *testing.T) {
	p := DefaultParams()
	strong := &models.COTData{
		Commercial:      models.Positioning{Long: 9000, Short: 1000},
		Retail:          models.Positioning{Long: 100, Short: 900},
		ConfidenceLevel: 1,
	}
	strong.Normalize()
	weak := &models.COTData{
		Commercial:      models.Positioning{Long: 5050, Short: 4950},
		Retail:          models.Positioning{Long: 100, Short: 900},
		ConfidenceLevel: 1,
	}
	weak.Normalize()

	sr := ScoreCOT(strong, p)
	wr := ScoreCOT(weak, p)
	if sr.Score != models.SubScoreMax {
		t.Fatalf("saturated positioning scored %g, want 5", sr.Score)
	}
	if wr.Score >= sr.Score || wr.Score <= 0 {
		t.Fatalf("weak positioning scored %g, want in (0,%g)", wr.Score, sr.Score)
	}
}

func TestNilCOTIsLegitimate(t *testing.T) {
	res := ScoreCOT(nil, DefaultParams())
	if res.Score != 0 || res.ConfWeight != 0 || len(res.Bullish)+len(res.Bearish) != 0 {
		t.Fatalf("nil snapshot must be a zero result, got %+v", res)
	}
}
