package scoring

import (
	"BiasEngine/internal/domain/models"
)

// ScoreSentiment maps the latest retail positioning snapshot to a
// contrarian sub-score: contrarian_score * 5, nudged +/-1 by institutional
// sentiment when present, then clipped.
func ScoreSentiment(snap *models.SentimentData) DimensionResult {
	res := empty("sentiment")
	if snap == nil {
		return res
	}

	score := snap.ContrarianScore() * models.SubScoreMax
	if snap.Institutional != nil {
		switch *snap.Institutional {
		case models.SentimentBullish:
			score++
			res.Bullish = append(res.Bullish, "institutional sentiment")
		case models.SentimentBearish:
			score--
			res.Bearish = append(res.Bearish, "institutional sentiment")
		}
	}
	score = clamp(score, models.SubScoreMin, models.SubScoreMax)

	switch {
	case score > 0:
		res.Bullish = append(res.Bullish, "retail crowd short (contrarian)")
	case score < 0:
		res.Bearish = append(res.Bearish, "retail crowd long (contrarian)")
	}

	res.Score = score
	res.addContribution(snap.ConfidenceLevel, score)
	return res
}
