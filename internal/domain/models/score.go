package models

import "time"

// Signal is the categorical directional call derived from the normalized
// composite score.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalHold       Signal = "HOLD"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// SubScore bounds for every dimension.
const (
	SubScoreMin = -5.0
	SubScoreMax = 5.0

	// TotalScoreRange is the normalization denominator: five dimensions
	// at the sub-score bound.
	TotalScoreRange = 25.0
)

// ImportanceMax is the ceiling of an economic release's importance weight.
const ImportanceMax = 5.0

// ClassifySignal maps a normalized score in [-1,1] to its Signal.
// Thresholds are boundary-inclusive on the buy/sell side.
func ClassifySignal(normalized float64) Signal {
	switch {
	case normalized >= 0.6:
		return SignalStrongBuy
	case normalized >= 0.2:
		return SignalBuy
	case normalized <= -0.6:
		return SignalStrongSell
	case normalized <= -0.2:
		return SignalSell
	default:
		return SignalHold
	}
}

// SubScores holds the five bounded dimension contributions.
type SubScores struct {
	Economic    float64 `json:"economic"`
	Sentiment   float64 `json:"sentiment"`
	COT         float64 `json:"cot"`
	Technical   float64 `json:"technical"`
	CentralBank float64 `json:"central_bank"`
}

// Sum is the composite total in [-25,25].
func (s SubScores) Sum() float64 {
	return s.Economic + s.Sentiment + s.COT + s.Technical + s.CentralBank
}

// AssetScore is one complete scoring result for one asset. It is created
// atomically by one scoring run and replaced wholesale; readers always
// receive copies.
type AssetScore struct {
	Asset Asset `json:"asset"`

	Scores          SubScores `json:"scores"`
	TotalScore      float64   `json:"total_score"`
	NormalizedScore float64   `json:"normalized_score"`
	Signal          Signal    `json:"signal"`
	Confidence      float64   `json:"confidence"`

	BullishFactors []string `json:"bullish_factors"`
	BearishFactors []string `json:"bearish_factors"`

	// Diagnostics carries per-run notes (collaborator failures, registry
	// revision changes observed mid-run). Observability only.
	Diagnostics []string `json:"diagnostics,omitempty"`

	RegistryRevision uint64        `json:"registry_revision"`
	CalculatedAt     time.Time     `json:"calculated_at"`
	ProcessingTime   time.Duration `json:"processing_time_ns"`
}

// Clone returns an independent copy safe to hand to readers.
func (s *AssetScore) Clone() *AssetScore {
	if s == nil {
		return nil
	}
	cp := *s
	cp.BullishFactors = append([]string(nil), s.BullishFactors...)
	cp.BearishFactors = append([]string(nil), s.BearishFactors...)
	cp.Diagnostics = append([]string(nil), s.Diagnostics...)
	return &cp
}

// Factor is one registry entry: a named fundamental driver, the
// indicator(s) it reads, and its weight multiplier.
type Factor struct {
	Name       string   `json:"name"`
	Indicators []string `json:"indicators"`
	Weight     float64  `json:"weight"`
}
