package scoring

// DimensionResult is one dimension's bounded sub-score plus the raw
// material for the composite confidence: the sum of contribution
// magnitudes and the confidence-weighted sum across contributing records.
type DimensionResult struct {
	Name    string
	Score   float64 // within [-5,5]
	Bullish []string
	Bearish []string

	ConfWeight float64 // sum of |contribution|
	ConfSum    float64 // sum of confidence_level * |contribution|

	Diagnostics []string
}

// empty is the legitimate no-data result: zero score, zero confidence
// contribution, no factors.
func empty(name string) DimensionResult {
	return DimensionResult{Name: name}
}

func (d *DimensionResult) addContribution(confidence, magnitude float64) {
	if magnitude < 0 {
		magnitude = -magnitude
	}
	d.ConfWeight += magnitude
	d.ConfSum += confidence * magnitude
}
