package scoring

import (
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/registry"
)

// ScoreEconomic reduces the asset's economic releases within the lookback
// window into a bounded sub-score. Each valid point contributes
// surprise_score * importance_weight * factor weight; the raw sum is
// rescaled so a single maximal surprise on the highest-weighted factor
// saturates the dimension.
func ScoreEconomic(points []models.EconomicDataPoint, reg *registry.Registry, p Params, now time.Time) DimensionResult {
	res := empty("economic")
	cutoff := now.Add(-p.LookbackWindow)

	denom := models.ImportanceMax * reg.MaxWeight()
	if denom < p.MinScaleDenominator {
		denom = p.MinScaleDenominator
	}

	var raw float64
	bullish := map[string]struct{}{}
	bearish := map[string]struct{}{}

	for i := range points {
		pt := &points[i]
		if !pt.Scoreable() || pt.Timestamp.Before(cutoff) {
			continue
		}
		ss := pt.SurpriseScore(p.SurpriseDeadBand)
		if ss == 0 {
			continue
		}
		name, weight := reg.Lookup(pt.Indicator)
		contrib := float64(ss) * pt.ImportanceWeight * weight
		raw += contrib
		res.addContribution(pt.ConfidenceLevel, contrib/denom*models.SubScoreMax)
		if contrib > 0 {
			bullish[name] = struct{}{}
		} else {
			bearish[name] = struct{}{}
		}
	}

	if res.ConfWeight == 0 {
		return empty("economic")
	}

	res.Score = clamp(raw/denom, -1, 1) * models.SubScoreMax
	res.Bullish = sortedKeys(bullish)
	res.Bearish = sortedKeys(bearish)
	return res
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// insertion sort; factor sets are tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
