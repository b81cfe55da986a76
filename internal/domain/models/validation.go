package models

import (
	"fmt"
	"math"
	"regexp"
)

// RuleKind tags one validation rule variant. The set is closed: every rule
// is exactly one of these kinds and carries that kind's parameter struct.
type RuleKind string

const (
	RuleRange    RuleKind = "RANGE"
	RuleRequired RuleKind = "REQUIRED"
	RuleFormat   RuleKind = "FORMAT"
	RuleLogical  RuleKind = "LOGICAL"
)

// RangeParams bounds a numeric field inclusively.
type RangeParams struct {
	Field string
	Min   float64
	Max   float64
}

// RequiredParams requires a non-empty string field.
type RequiredParams struct {
	Field string
}

// FormatParams matches a string field against a pattern.
type FormatParams struct {
	Field   string
	Pattern *regexp.Regexp
}

// LogicalParams names a cross-field predicate.
type LogicalParams struct {
	Name      string
	Tolerance float64
}

// Rule is a tagged variant: Kind selects which parameter set is populated.
type Rule struct {
	Kind     RuleKind
	Range    *RangeParams
	Required *RequiredParams
	Format   *FormatParams
	Logical  *LogicalParams
}

func (r Rule) String() string {
	switch r.Kind {
	case RuleRange:
		return fmt.Sprintf("RANGE(%s in [%g,%g])", r.Range.Field, r.Range.Min, r.Range.Max)
	case RuleRequired:
		return fmt.Sprintf("REQUIRED(%s)", r.Required.Field)
	case RuleFormat:
		return fmt.Sprintf("FORMAT(%s ~ %s)", r.Format.Field, r.Format.Pattern)
	case RuleLogical:
		return fmt.Sprintf("LOGICAL(%s)", r.Logical.Name)
	default:
		return string(r.Kind)
	}
}

var assetCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// recordView exposes the fields rules inspect, decoupling rule evaluation
// from the concrete record type.
type recordView struct {
	numbers map[string]float64
	strings map[string]string
	checks  map[string]func(tolerance float64) bool
}

func evaluate(rules []Rule, v recordView) error {
	for _, r := range rules {
		switch r.Kind {
		case RuleRange:
			n, ok := v.numbers[r.Range.Field]
			if !ok || n < r.Range.Min || n > r.Range.Max {
				return fmt.Errorf("validation failed: %s (got %g)", r, n)
			}
		case RuleRequired:
			if v.strings[r.Required.Field] == "" {
				return fmt.Errorf("validation failed: %s", r)
			}
		case RuleFormat:
			if !r.Format.Pattern.MatchString(v.strings[r.Format.Field]) {
				return fmt.Errorf("validation failed: %s (got %q)", r, v.strings[r.Format.Field])
			}
		case RuleLogical:
			check, ok := v.checks[r.Logical.Name]
			if !ok || !check(r.Logical.Tolerance) {
				return fmt.Errorf("validation failed: %s", r)
			}
		}
	}
	return nil
}

var economicRules = []Rule{
	{Kind: RuleRequired, Required: &RequiredParams{Field: "indicator"}},
	{Kind: RuleRequired, Required: &RequiredParams{Field: "source"}},
	{Kind: RuleFormat, Format: &FormatParams{Field: "asset", Pattern: assetCodePattern}},
	{Kind: RuleRange, Range: &RangeParams{Field: "importance_weight", Min: 1, Max: 5}},
	{Kind: RuleRange, Range: &RangeParams{Field: "confidence_level", Min: 0, Max: 1}},
	{Kind: RuleLogical, Logical: &LogicalParams{Name: "known_asset"}},
}

// ValidateEconomicDataPoint applies the economic record rule set.
func ValidateEconomicDataPoint(p *EconomicDataPoint) error {
	return evaluate(economicRules, recordView{
		numbers: map[string]float64{
			"importance_weight": p.ImportanceWeight,
			"confidence_level":  p.ConfidenceLevel,
		},
		strings: map[string]string{
			"indicator": p.Indicator,
			"source":    p.Source,
			"asset":     string(p.Asset),
		},
		checks: map[string]func(float64) bool{
			"known_asset": func(float64) bool { return KnownAsset(p.Asset) },
		},
	})
}

var cotRules = []Rule{
	{Kind: RuleFormat, Format: &FormatParams{Field: "asset", Pattern: assetCodePattern}},
	{Kind: RuleRange, Range: &RangeParams{Field: "commercial_long", Min: 0, Max: math.MaxFloat64}},
	{Kind: RuleRange, Range: &RangeParams{Field: "commercial_short", Min: 0, Max: math.MaxFloat64}},
	{Kind: RuleRange, Range: &RangeParams{Field: "retail_long", Min: 0, Max: math.MaxFloat64}},
	{Kind: RuleRange, Range: &RangeParams{Field: "retail_short", Min: 0, Max: math.MaxFloat64}},
	{Kind: RuleLogical, Logical: &LogicalParams{Name: "known_asset"}},
}

// ValidateCOTData applies the positioning record rule set.
func ValidateCOTData(c *COTData) error {
	return evaluate(cotRules, recordView{
		numbers: map[string]float64{
			"commercial_long":  c.Commercial.Long,
			"commercial_short": c.Commercial.Short,
			"retail_long":      c.Retail.Long,
			"retail_short":     c.Retail.Short,
		},
		strings: map[string]string{"asset": string(c.Asset)},
		checks: map[string]func(float64) bool{
			"known_asset": func(float64) bool { return KnownAsset(c.Asset) },
		},
	})
}

// SentimentSumTolerance is the allowed deviation of retail long+short from
// 100 percent.
const SentimentSumTolerance = 0.5

var sentimentRules = []Rule{
	{Kind: RuleFormat, Format: &FormatParams{Field: "asset", Pattern: assetCodePattern}},
	{Kind: RuleRange, Range: &RangeParams{Field: "retail_long_percentage", Min: 0, Max: 100}},
	{Kind: RuleRange, Range: &RangeParams{Field: "retail_short_percentage", Min: 0, Max: 100}},
	{Kind: RuleLogical, Logical: &LogicalParams{Name: "percentages_sum_100", Tolerance: SentimentSumTolerance}},
	{Kind: RuleLogical, Logical: &LogicalParams{Name: "known_asset"}},
}

// ValidateSentimentData applies the sentiment record rule set. Records whose
// retail percentages do not sum to 100 within tolerance are rejected.
func ValidateSentimentData(s *SentimentData) error {
	return evaluate(sentimentRules, recordView{
		numbers: map[string]float64{
			"retail_long_percentage":  s.RetailLongPct,
			"retail_short_percentage": s.RetailShortPct,
		},
		strings: map[string]string{"asset": string(s.Asset)},
		checks: map[string]func(float64) bool{
			"percentages_sum_100": func(tol float64) bool {
				return math.Abs(s.RetailLongPct+s.RetailShortPct-100) <= tol
			},
			"known_asset": func(float64) bool { return KnownAsset(s.Asset) },
		},
	})
}

var calendarRules = []Rule{
	{Kind: RuleRequired, Required: &RequiredParams{Field: "name"}},
	{Kind: RuleFormat, Format: &FormatParams{Field: "asset", Pattern: assetCodePattern}},
	{Kind: RuleLogical, Logical: &LogicalParams{Name: "known_asset"}},
	{Kind: RuleLogical, Logical: &LogicalParams{Name: "known_impact"}},
}

// ValidateCalendarEvent applies the calendar record rule set.
func ValidateCalendarEvent(e *EconomicCalendarEvent) error {
	return evaluate(calendarRules, recordView{
		strings: map[string]string{
			"name":  e.Name,
			"asset": string(e.Asset),
		},
		checks: map[string]func(float64) bool{
			"known_asset": func(float64) bool { return KnownAsset(e.Asset) },
			"known_impact": func(float64) bool {
				switch e.Impact {
				case ImpactLow, ImpactMedium, ImpactHigh:
					return true
				}
				return false
			},
		},
	})
}
