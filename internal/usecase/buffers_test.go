package usecase

import (
	"testing"
	"time"

	"BiasEngine/internal/domain/models"
)

func TestWindowCopiesAreIsolated(t *testing.T) {
	b := NewRecordBuffers(16, 0.02)
	res := b.SubmitSentiment(models.SentimentData{
		Asset:           "EUR",
		Timestamp:       time.Now(),
		RetailLongPct:   75,
		RetailShortPct:  25,
		ConfidenceLevel: 1,
	})
	if !res.Accepted {
		t.Fatalf("submit rejected: %s", res.Reject)
	}

	w := b.Window("EUR")
	if w.Sentiment == nil {
		t.Fatal("expected sentiment in window")
	}
	w.Sentiment.RetailLongPct = 1

	again := b.Window("EUR")
	if again.Sentiment.RetailLongPct != 75 {
		t.Fatalf("buffer mutated through window copy: %g", again.Sentiment.RetailLongPct)
	}
}

func TestEconomicBufferCapped(t *testing.T) {
	b := NewRecordBuffers(3, 0.02)
	for i := 0; i < 10; i++ {
		res := b.SubmitEconomic(models.EconomicDataPoint{
			Asset:            "USD",
			Indicator:        "cpi",
			Timestamp:        time.Now().Add(time.Duration(i) * time.Minute),
			Actual:           floatPtr(3.1),
			Forecast:         floatPtr(3.0),
			ImportanceWeight: 3,
			Source:           "test",
			ScrapeSuccess:    true,
			ValidationPassed: true,
		})
		if !res.Accepted {
			t.Fatalf("submit %d rejected: %s", i, res.Reject)
		}
	}
	if got := len(b.Window("USD").Economic); got != 3 {
		t.Fatalf("expected buffer capped at 3, got %d", got)
	}
}

func TestCalendarSignificanceByImpact(t *testing.T) {
	b := NewRecordBuffers(16, 0.02)
	cases := []struct {
		impact models.Impact
		want   float64
	}{
		{models.ImpactHigh, 1},
		{models.ImpactMedium, 0.6},
		{models.ImpactLow, 0.3},
	}
	for _, tc := range cases {
		res := b.SubmitCalendar(models.EconomicCalendarEvent{
			Asset:    "USD",
			Name:     "nfp",
			At:       time.Now(),
			Impact:   tc.impact,
			Forecast: floatPtr(200),
			Actual:   floatPtr(250),
		})
		if !res.Accepted {
			t.Fatalf("%s: rejected %q", tc.impact, res.Reject)
		}
		if res.Significance != tc.want {
			t.Fatalf("%s: significance %g, want %g", tc.impact, res.Significance, tc.want)
		}
	}

	// unrealized event: no actual, neutral reaction, never triggers
	res := b.SubmitCalendar(models.EconomicCalendarEvent{
		Asset:    "USD",
		Name:     "nfp",
		At:       time.Now(),
		Impact:   models.ImpactHigh,
		Forecast: floatPtr(200),
	})
	if !res.Accepted || res.Significance != 0 {
		t.Fatalf("unrealized event: accepted=%v significance=%g", res.Accepted, res.Significance)
	}
}

func TestUnvalidatedPointRetainedButNeverScoreable(t *testing.T) {
	b := NewRecordBuffers(16, 0.02)
	res := b.SubmitEconomic(models.EconomicDataPoint{
		Asset:            "USD",
		Indicator:        "cpi",
		Timestamp:        time.Now(),
		Actual:           floatPtr(1e9),
		Forecast:         floatPtr(1),
		ImportanceWeight: 5,
		Source:           "test",
		ScrapeSuccess:    true,
		ValidationPassed: false, // upstream parser marked it failed
	})
	if !res.Accepted {
		t.Fatalf("audit point should be retained, got reject %q", res.Reject)
	}
	if res.Significance != 0 {
		t.Fatalf("unvalidated point must not trigger, significance %g", res.Significance)
	}

	w := b.Window("USD")
	if len(w.Economic) != 1 {
		t.Fatalf("expected 1 buffered point, got %d", len(w.Economic))
	}
	p := w.Economic[0]
	if p.ValidationPassed {
		t.Fatal("inbound validation_passed=false was overwritten")
	}
	if p.Scoreable() {
		t.Fatal("unvalidated point must never be scoreable")
	}
}

func floatPtr(f float64) *float64 { return &f }
