package models

import (
	"math"
	"time"
)

// Sentiment is a directional read of one trader class's positioning.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// ContrarianSignal is a trade direction inferred from commercial/retail
// positioning disagreement.
type ContrarianSignal string

const (
	ContrarianBuy  ContrarianSignal = "BUY"
	ContrarianSell ContrarianSignal = "SELL"
	ContrarianHold ContrarianSignal = "HOLD"
)

// Impact classifies a calendar event's expected market impact.
type Impact string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"
)

// MarketReaction classifies the realized direction of a release.
type MarketReaction string

const (
	ReactionPositive MarketReaction = "POSITIVE"
	ReactionNegative MarketReaction = "NEGATIVE"
	ReactionNeutral  MarketReaction = "NEUTRAL"
)

// EconomicDataPoint is one observed/forecast/previous triple for one
// (asset, indicator, source) at a release timestamp. Points that failed
// scraping or validation are retained for health reporting only and never
// contribute to a score.
type EconomicDataPoint struct {
	Asset     Asset     `json:"asset"`
	Indicator string    `json:"indicator"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	Actual   *float64 `json:"actual,omitempty"`
	Forecast *float64 `json:"forecast,omitempty"`
	Previous *float64 `json:"previous,omitempty"`

	Unit     string      `json:"unit,omitempty"`
	Cadence  string      `json:"cadence,omitempty"` // monthly, quarterly, weekly
	Releases []time.Time `json:"releases,omitempty"`

	ImportanceWeight float64 `json:"importance_weight"` // 1..5
	ConfidenceLevel  float64 `json:"confidence_level"`  // 0..1

	ScrapeSuccess    bool `json:"scrape_success"`
	ValidationPassed bool `json:"validation_passed"`
}

// Scoreable reports whether the point may contribute to a sub-score.
func (p *EconomicDataPoint) Scoreable() bool {
	return p.ScrapeSuccess && p.ValidationPassed
}

// Surprise is the relative deviation of actual from forecast,
// (actual-forecast)/|forecast|. The second result is false when either
// actual or forecast is absent, or forecast is zero.
func (p *EconomicDataPoint) Surprise() (float64, bool) {
	if p.Actual == nil || p.Forecast == nil || *p.Forecast == 0 {
		return 0, false
	}
	return (*p.Actual - *p.Forecast) / math.Abs(*p.Forecast), true
}

// SurpriseScore is the sign of the surprise, 0 when the surprise is
// undefined or within the dead-band.
func (p *EconomicDataPoint) SurpriseScore(deadBand float64) int {
	s, ok := p.Surprise()
	if !ok || math.Abs(s) <= deadBand {
		return 0
	}
	if s > 0 {
		return 1
	}
	return -1
}

// TrendScore is the sign of actual versus previous, 0 when either is absent
// or they are equal.
func (p *EconomicDataPoint) TrendScore() int {
	if p.Actual == nil || p.Previous == nil {
		return 0
	}
	switch {
	case *p.Actual > *p.Previous:
		return 1
	case *p.Actual < *p.Previous:
		return -1
	default:
		return 0
	}
}

// Positioning holds long/short/net contracts for one trader class.
// Net is always recomputed as long-short; source-provided nets are not
// trusted.
type Positioning struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
	Net   float64 `json:"net"`
}

// COTData is one weekly positioning snapshot per asset.
type COTData struct {
	Asset      Asset     `json:"asset"`
	ReportDate time.Time `json:"report_date"`

	Commercial    Positioning `json:"commercial"`
	NonCommercial Positioning `json:"non_commercial"`
	Retail        Positioning `json:"retail"`

	ConfidenceLevel float64 `json:"confidence_level"`
}

// Normalize recomputes every class's net from long-short.
func (c *COTData) Normalize() {
	c.Commercial.Net = c.Commercial.Long - c.Commercial.Short
	c.NonCommercial.Net = c.NonCommercial.Long - c.NonCommercial.Short
	c.Retail.Net = c.Retail.Long - c.Retail.Short
}

func sentimentOfNet(net float64) Sentiment {
	switch {
	case net > 0:
		return SentimentBullish
	case net < 0:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// CommercialSentiment is the directional read of commercial (smart money)
// positioning.
func (c *COTData) CommercialSentiment() Sentiment {
	return sentimentOfNet(c.Commercial.Net)
}

// RetailSentiment is the directional read of retail positioning.
func (c *COTData) RetailSentiment() Sentiment {
	return sentimentOfNet(c.Retail.Net)
}

// Contrarian derives the trade direction from commercial/retail
// disagreement: follow commercial's sign when the two classes disagree,
// HOLD when they agree or either net is exactly zero.
func (c *COTData) Contrarian() ContrarianSignal {
	comm, ret := c.Commercial.Net, c.Retail.Net
	if comm == 0 || ret == 0 || (comm > 0) == (ret > 0) {
		return ContrarianHold
	}
	if comm > 0 {
		return ContrarianBuy
	}
	return ContrarianSell
}

// CommercialStrength is |commercial net| relative to gross commercial
// positioning, in [0,1]. Weak positioning yields values near 0.
func (c *COTData) CommercialStrength() float64 {
	gross := c.Commercial.Long + c.Commercial.Short
	if gross <= 0 {
		return 0
	}
	return math.Abs(c.Commercial.Net) / gross
}

// SentimentData is one snapshot of retail positioning percentages plus
// optional institutional and index readings.
type SentimentData struct {
	Asset     Asset     `json:"asset"`
	Timestamp time.Time `json:"timestamp"`

	RetailLongPct  float64 `json:"retail_long_percentage"`
	RetailShortPct float64 `json:"retail_short_percentage"`

	Institutional   *Sentiment `json:"institutional,omitempty"`
	FearGreedIndex  *float64   `json:"fear_greed_index,omitempty"`
	VolatilityIndex *float64   `json:"volatility_index,omitempty"`

	ConfidenceLevel float64 `json:"confidence_level"`
}

// ContrarianScore is the negative of the normalized retail skew, in [-1,1].
// A heavily long retail crowd produces a negative (contrarian-bearish)
// score.
func (s *SentimentData) ContrarianScore() float64 {
	return -(s.RetailLongPct - s.RetailShortPct) / 100
}

// EconomicCalendarEvent is one scheduled or realized release.
type EconomicCalendarEvent struct {
	Asset    Asset     `json:"asset"`
	Name     string    `json:"name"`
	At       time.Time `json:"at"`
	Impact   Impact    `json:"impact"`
	Forecast *float64  `json:"forecast,omitempty"`
	Previous *float64  `json:"previous,omitempty"`
	Actual   *float64  `json:"actual,omitempty"`
}

// Surprise mirrors EconomicDataPoint.Surprise for calendar releases.
func (e *EconomicCalendarEvent) Surprise() (float64, bool) {
	if e.Actual == nil || e.Forecast == nil || *e.Forecast == 0 {
		return 0, false
	}
	return (*e.Actual - *e.Forecast) / math.Abs(*e.Forecast), true
}

// Reaction classifies the realized direction of the release.
func (e *EconomicCalendarEvent) Reaction(deadBand float64) MarketReaction {
	s, ok := e.Surprise()
	if !ok || math.Abs(s) <= deadBand {
		return ReactionNeutral
	}
	if s > 0 {
		return ReactionPositive
	}
	return ReactionNegative
}
