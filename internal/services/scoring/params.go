package scoring

import "time"

// Params are the engine tunables. The source behavior does not pin these
// values; they are deliberate configuration with documented defaults.
type Params struct {
	// LookbackWindow bounds which economic points the economic dimension
	// reads.
	LookbackWindow time.Duration
	// SurpriseDeadBand is the |surprise| below which a release counts as
	// in-line (surprise_score 0).
	SurpriseDeadBand float64
	// COTSaturation is the commercial-strength ratio at which the COT
	// dimension reaches full magnitude.
	COTSaturation float64
	// MinScaleDenominator floors the economic saturation denominator so an
	// empty registry cannot divide by zero.
	MinScaleDenominator float64
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		LookbackWindow:      14 * 24 * time.Hour,
		SurpriseDeadBand:    0.02,
		COTSaturation:       0.25,
		MinScaleDenominator: 1.0,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
