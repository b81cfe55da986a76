package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/registry"
	"BiasEngine/internal/services/scoring"
)

type countingMetrics struct {
	submitted int64
	rejected  int64
	runs      int64
	coalesced int64
	scores    int64
	errs      int64
}

func (m *countingMetrics) RecordSubmitted(string)      { atomic.AddInt64(&m.submitted, 1) }
func (m *countingMetrics) RecordRejected(string)       { atomic.AddInt64(&m.rejected, 1) }
func (m *countingMetrics) RecordRun(string, float64)   { atomic.AddInt64(&m.runs, 1) }
func (m *countingMetrics) RecordScore(string, float64) { atomic.AddInt64(&m.scores, 1) }
func (m *countingMetrics) RecordCoalesced(string)      { atomic.AddInt64(&m.coalesced, 1) }
func (m *countingMetrics) RecordError(string)          { atomic.AddInt64(&m.errs, 1) }
func (m *countingMetrics) RecordLatency(string, float64) {}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *countingMetrics) {
	t.Helper()
	reg := registry.New()
	engine := scoring.NewEngine(reg, nil, nil, scoring.DefaultParams(), nil)
	m := &countingMetrics{}
	o := NewOrchestrator(OrchestratorConfig{Workers: 2}, reg, engine, m, nil, nil, nil, nil)
	return o, m
}

func TestLifecycleTransitions(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	if err := o.Start(context.Background()); !errors.Is(err, ErrLifecycle) {
		t.Fatalf("start before initialize should fail, got %v", err)
	}
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Initialize(); !errors.Is(err, ErrLifecycle) {
		t.Fatalf("double initialize should fail, got %v", err)
	}

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start on started instance should be idempotent, got %v", err)
	}
	if got := o.GetServiceStatus().Lifecycle; got != models.LifecycleStarted {
		t.Fatalf("lifecycle = %s, want STARTED", got)
	}

	if err := o.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := o.Stop(); err != nil {
		t.Fatalf("stop when stopped should be a no-op, got %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("close when closed should be a no-op, got %v", err)
	}
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if err := o.Stop(); err != nil {
		t.Fatalf("stop on uninitialized instance: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("close on uninitialized instance: %v", err)
	}
}

func TestTriggerAssetUpdateOutcomes(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer o.Close()

	// first run: no previous score, every numeric check reports a change
	first, err := o.TriggerAssetUpdate(context.Background(), "EUR", "manual")
	if err != nil {
		t.Fatalf("trigger update: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(first))
	}
	if !first[0].HasChanges {
		t.Fatal("first recompute should report a normalized score change")
	}

	// same inputs, deterministic engine: nothing may change
	second, err := o.TriggerAssetUpdate(context.Background(), "EUR", "manual")
	if err != nil {
		t.Fatalf("second trigger update: %v", err)
	}
	for _, out := range second {
		if out.HasChanges {
			t.Fatalf("check %s reported a change on identical inputs: %s", out.Check, out.Detail)
		}
	}

	// new data beyond the epsilon flips hasChanges back on
	o.SubmitSentiment(models.SentimentData{
		Asset:           "EUR",
		Timestamp:       time.Now(),
		RetailLongPct:   80,
		RetailShortPct:  20,
		ConfidenceLevel: 1,
	})
	third, err := o.TriggerAssetUpdate(context.Background(), "EUR", "manual")
	if err != nil {
		t.Fatalf("third trigger update: %v", err)
	}
	if !third[0].HasChanges {
		t.Fatal("new sentiment data should move the normalized score")
	}
}

func TestRecalculateAllScores(t *testing.T) {
	o, m := newTestOrchestrator(t)
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer o.Close()

	scores, err := o.RecalculateAllScores(context.Background())
	if err != nil {
		t.Fatalf("recalculate all: %v", err)
	}
	if len(scores) != len(models.Universe) {
		t.Fatalf("expected %d scores, got %d", len(models.Universe), len(scores))
	}
	for i, a := range models.Universe {
		if scores[i] == nil || scores[i].Asset != a {
			t.Fatalf("position %d: want %s, got %+v", i, a, scores[i])
		}
	}
	if got := atomic.LoadInt64(&m.runs); got < int64(len(models.Universe)) {
		t.Fatalf("expected at least one run per asset, got %d", got)
	}
}

func TestSignificantSubmissionTriggersRecompute(t *testing.T) {
	o, m := newTestOrchestrator(t)
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer o.Close()

	// weekly positioning report: significance 1, must trigger
	o.SubmitCOT(models.COTData{
		Asset:      "XAU",
		ReportDate: time.Now(),
		Commercial: models.Positioning{Long: 5000, Short: 3800},
		Retail:     models.Positioning{Long: 2000, Short: 2900},
	})
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := o.GetAssetBiasScore("XAU"); err == nil {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	sc, err := o.GetAssetBiasScore("XAU")
	if err != nil {
		t.Fatalf("no score after significant submission: %v", err)
	}
	if sc.Scores.COT <= 0 {
		t.Fatalf("commercials long vs retail short should score bullish, got %g", sc.Scores.COT)
	}
	if atomic.LoadInt64(&m.submitted) != 1 {
		t.Fatalf("submitted counter = %d, want 1", m.submitted)
	}
}

func TestMalformedSubmissionRejectedWithoutPanic(t *testing.T) {
	o, m := newTestOrchestrator(t)
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer o.Close()

	o.SubmitSentiment(models.SentimentData{
		Asset:          "EUR",
		RetailLongPct:  70,
		RetailShortPct: 70, // sums to 140, outside tolerance
	})
	if atomic.LoadInt64(&m.rejected) != 1 {
		t.Fatalf("rejected counter = %d, want 1", m.rejected)
	}
	health := o.GetServiceStatus().Health
	if health.Submitted != 1 || health.Rejected != 1 {
		t.Fatalf("health counters %d/%d, want 1/1", health.Submitted, health.Rejected)
	}
}

func TestGetAllBiasScoresPlaceholders(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer o.Close()

	all := o.GetAllBiasScores()
	if len(all) != len(models.Universe) {
		t.Fatalf("expected %d entries, got %d", len(models.Universe), len(all))
	}
	for _, sc := range all {
		if sc.Signal != models.SignalHold {
			t.Fatalf("never-scored asset %s should report HOLD, got %s", sc.Asset, sc.Signal)
		}
	}
}

func TestGetFundamentalFactors(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	factors := o.GetFundamentalFactors()
	if _, ok := factors["inflation"]; !ok {
		t.Fatal("default registry should expose the inflation factor")
	}
	if factors["inflation"].Weight != 1.5 {
		t.Fatalf("inflation weight = %g, want 1.5", factors["inflation"].Weight)
	}
}

func TestSetFactorWeightRecomputes(t *testing.T) {
	o, m := newTestOrchestrator(t)
	if err := o.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer o.Close()

	if err := o.SetFactorWeight("inflation", 2.0); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if got := o.GetFundamentalFactors()["inflation"].Weight; got != 2.0 {
		t.Fatalf("inflation weight = %g, want 2.0", got)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&m.runs) >= int64(len(models.Universe)) {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if got := atomic.LoadInt64(&m.runs); got < int64(len(models.Universe)) {
		t.Fatalf("reweight should recompute every asset, got %d runs", got)
	}

	if err := o.SetFactorWeight("inflation", 0); err == nil {
		t.Fatal("zero weight should be rejected")
	}
	if err := o.SetFactorWeight("nonexistent", 1); err == nil {
		t.Fatal("unknown factor should be rejected")
	}
}

func TestHistoryWithoutArchive(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	now := time.Now()
	if _, err := o.History(context.Background(), "BTC", now.Add(-time.Hour), now, 10); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("unknown asset should be rejected, got %v", err)
	}
	if _, err := o.History(context.Background(), "EUR", now.Add(-time.Hour), now, 10); err == nil {
		t.Fatal("history without an archive should error")
	}
}
