package scoring

import (
	"fmt"

	"BiasEngine/internal/domain/models"
)

// ScoreCOT maps the contrarian signal to +/-5 (HOLD -> 0), scaled toward 0
// as commercial net positioning approaches zero relative to gross
// positioning. The scale is continuous: strength/saturation, capped at 1.
func ScoreCOT(cot *models.COTData, p Params) DimensionResult {
	res := empty("cot")
	if cot == nil {
		return res
	}

	var base float64
	switch cot.Contrarian() {
	case models.ContrarianBuy:
		base = models.SubScoreMax
	case models.ContrarianSell:
		base = models.SubScoreMin
	default:
		return res
	}

	sat := p.COTSaturation
	if sat <= 0 {
		sat = 1
	}
	scale := cot.CommercialStrength() / sat
	if scale > 1 {
		scale = 1
	}

	res.Score = base * scale
	res.addContribution(cot.ConfidenceLevel, res.Score)

	side := fmt.Sprintf("commercials %s vs retail %s",
		lower(cot.CommercialSentiment()), lower(cot.RetailSentiment()))
	if res.Score > 0 {
		res.Bullish = append(res.Bullish, side)
	} else if res.Score < 0 {
		res.Bearish = append(res.Bearish, side)
	}
	return res
}

func lower(s models.Sentiment) string {
	switch s {
	case models.SentimentBullish:
		return "bullish"
	case models.SentimentBearish:
		return "bearish"
	default:
		return "neutral"
	}
}
