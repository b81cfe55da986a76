package scoring

import (
	"math"
	"testing"

	"BiasEngine/internal/domain/models"
)

func TestRetailLongCrowdScoresContrarianBearish(t *testing.T) {
	snap := &models.SentimentData{
		Asset:           models.AssetUSD,
		RetailLongPct:   70,
		RetailShortPct:  30,
		ConfidenceLevel: 0.9,
	}
	if cs := snap.ContrarianScore(); math.Abs(cs-(-0.4)) > 1e-12 {
		t.Fatalf("contrarian score = %g, want -0.4", cs)
	}
	res := ScoreSentiment(snap)
	if res.Score >= -1.5 {
		t.Fatalf("70/30 long crowd scored %g, want strongly negative", res.Score)
	}
	if len(res.Bearish) == 0 {
		t.Fatalf("expected a bearish factor name")
	}
}

func TestInstitutionalNudgeAndClipping(t *testing.T) {
	bull := models.SentimentBullish
	snap := &models.SentimentData{
		RetailLongPct:   5,
		RetailShortPct:  95,
		Institutional:   &bull,
		ConfidenceLevel: 1,
	}
	// contrarian 0.9*5 = 4.5, +1 institutional = 5.5 -> clipped to 5
	res := ScoreSentiment(snap)
	if res.Score != models.SubScoreMax {
		t.Fatalf("score = %g, want clipped to 5", res.Score)
	}

	bear := models.SentimentBearish
	snap2 := &models.SentimentData{
		RetailLongPct:   50,
		RetailShortPct:  50,
		Institutional:   &bear,
		ConfidenceLevel: 1,
	}
	if res2 := ScoreSentiment(snap2); res2.Score != -1 {
		t.Fatalf("balanced crowd with bearish institutions scored %g, want -1", res2.Score)
	}
}

func TestNilSentimentIsLegitimate(t *testing.T) {
	res := ScoreSentiment(nil)
	if res.Score != 0 || res.ConfWeight != 0 {
		t.Fatalf("nil snapshot must be a zero result, got %+v", res)
	}
}
