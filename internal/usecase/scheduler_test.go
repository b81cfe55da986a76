package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"BiasEngine/internal/domain/models"
)

func holdScore(asset models.Asset) *models.AssetScore {
	return &models.AssetScore{Asset: asset, Signal: models.SignalHold, CalculatedAt: time.Now()}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestTriggerBurstCoalesces(t *testing.T) {
	var runs int64
	gate := make(chan struct{})
	compute := func(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore {
		atomic.AddInt64(&runs, 1)
		<-gate
		return holdScore(asset)
	}
	s := NewScheduler(compute, nil, nil, 2, 0)
	s.Start(context.Background())
	defer s.Close()

	if err := s.Trigger("EUR", "first"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return s.States()["EUR"] == models.StateRunning
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Trigger("EUR", "burst"); err != nil {
				t.Errorf("burst trigger: %v", err)
			}
		}()
	}
	wg.Wait()
	close(gate)

	waitFor(t, time.Second, func() bool {
		return s.States()["EUR"] == models.StateIdle
	})
	if got := atomic.LoadInt64(&runs); got != 2 {
		t.Fatalf("expected the burst to collapse into one rerun, got %d runs", got)
	}
}

func TestAtMostOneRunningPerAsset(t *testing.T) {
	var inFlight, maxInFlight int64
	compute := func(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			prev := atomic.LoadInt64(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt64(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return holdScore(asset)
	}
	s := NewScheduler(compute, nil, nil, 4, 0)
	s.Start(context.Background())
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Trigger("JPY", "concurrent")
		}()
	}
	wg.Wait()
	waitFor(t, 2*time.Second, func() bool {
		return s.States()["JPY"] == models.StateIdle
	})
	if got := atomic.LoadInt64(&maxInFlight); got > 1 {
		t.Fatalf("observed %d concurrent runs for one asset", got)
	}
}

func TestTriggerWaitReturnsFreshScore(t *testing.T) {
	compute := func(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore {
		sc := holdScore(asset)
		sc.NormalizedScore = 0.42
		return sc
	}
	s := NewScheduler(compute, nil, nil, 2, 0)
	s.Start(context.Background())
	defer s.Close()

	sc, err := s.TriggerWait(context.Background(), "XAU", "test")
	if err != nil {
		t.Fatalf("trigger wait: %v", err)
	}
	if sc.Asset != "XAU" || sc.NormalizedScore != 0.42 {
		t.Fatalf("unexpected score %+v", sc)
	}

	// the cached copy is independent of the returned one
	sc.NormalizedScore = 99
	cached, err := s.Score("XAU")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if cached.NormalizedScore != 0.42 {
		t.Fatalf("cached score mutated through returned snapshot: %v", cached.NormalizedScore)
	}
}

func TestUnknownAssetRejected(t *testing.T) {
	s := NewScheduler(func(ctx context.Context, a models.Asset, r []string) *models.AssetScore {
		return holdScore(a)
	}, nil, nil, 1, 0)
	s.Start(context.Background())
	defer s.Close()

	if err := s.Trigger("BTC", "nope"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if _, err := s.Score("BTC"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset from Score, got %v", err)
	}
	if _, err := s.Score("EUR"); !errors.Is(err, ErrNoScore) {
		t.Fatalf("expected ErrNoScore before first run, got %v", err)
	}
}

func TestStopBlocksNewTriggersButFinishesAccepted(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	var runs int64
	compute := func(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore {
		atomic.AddInt64(&runs, 1)
		close(started)
		<-gate
		return holdScore(asset)
	}
	s := NewScheduler(compute, nil, nil, 1, 0)
	s.Start(context.Background())

	if err := s.Trigger("GBP", "pre-stop"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	// stop must wait for the in-flight run
	select {
	case <-done:
		t.Fatal("Stop returned while a run was in flight")
	case <-time.After(20 * time.Millisecond):
	}
	close(gate)
	<-done

	if err := s.Trigger("GBP", "post-stop"); !errors.Is(err, ErrNotAccepting) {
		t.Fatalf("expected ErrNotAccepting after stop, got %v", err)
	}
	if got := atomic.LoadInt64(&runs); got != 1 {
		t.Fatalf("expected exactly one run, got %d", got)
	}
	// cached scores survive Stop
	if _, err := s.Score("GBP"); err != nil {
		t.Fatalf("score after stop: %v", err)
	}
	s.Close()
	if _, err := s.Score("GBP"); !errors.Is(err, ErrNoScore) {
		t.Fatalf("expected scores discarded after Close, got %v", err)
	}
}

func TestSeedLosesToComputed(t *testing.T) {
	compute := func(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore {
		sc := holdScore(asset)
		sc.NormalizedScore = 0.7
		return sc
	}
	s := NewScheduler(compute, nil, nil, 1, 0)
	s.Start(context.Background())
	defer s.Close()

	seed := holdScore("CAD")
	seed.NormalizedScore = -0.3
	s.Seed(seed)

	sc, err := s.Score("CAD")
	if err != nil || sc.NormalizedScore != -0.3 {
		t.Fatalf("seed not visible: %v %v", sc, err)
	}

	if _, err := s.TriggerWait(context.Background(), "CAD", "refresh"); err != nil {
		t.Fatalf("trigger wait: %v", err)
	}
	// a second seed must not clobber the computed value
	s.Seed(seed)
	sc, err = s.Score("CAD")
	if err != nil || sc.NormalizedScore != 0.7 {
		t.Fatalf("computed score lost to seed: %v %v", sc, err)
	}
}

func TestAllScoresUniverseOrder(t *testing.T) {
	s := NewScheduler(func(ctx context.Context, a models.Asset, r []string) *models.AssetScore {
		return holdScore(a)
	}, nil, nil, 1, 0)
	s.Start(context.Background())
	defer s.Close()

	if _, err := s.TriggerWait(context.Background(), "USD", "one"); err != nil {
		t.Fatalf("trigger wait: %v", err)
	}
	all := s.AllScores()
	if len(all) != len(models.Universe) {
		t.Fatalf("expected %d entries, got %d", len(models.Universe), len(all))
	}
	for i, a := range models.Universe {
		if all[i].Asset != a {
			t.Fatalf("position %d: want %s, got %s", i, a, all[i].Asset)
		}
		if a != "USD" && all[i].Signal != models.SignalHold {
			t.Fatalf("placeholder for %s should report HOLD, got %s", a, all[i].Signal)
		}
	}
}

func TestAddEventValidation(t *testing.T) {
	triggered := make(chan models.Asset, 1)
	s := NewScheduler(func(ctx context.Context, a models.Asset, r []string) *models.AssetScore {
		select {
		case triggered <- a:
		default:
		}
		return holdScore(a)
	}, nil, nil, 1, 0)
	s.Start(context.Background())
	defer s.Close()

	bad := models.ScheduledEvent{Asset: "EUR", Reason: "past", At: time.Now().Add(-time.Minute)}
	if err := s.AddEvent(bad); err == nil {
		t.Fatal("expected rejection of past event")
	}
	bad = models.ScheduledEvent{Asset: "DOGE", Reason: "x", At: time.Now().Add(time.Hour)}
	if err := s.AddEvent(bad); err == nil {
		t.Fatal("expected rejection of unknown asset")
	}

	ok := models.ScheduledEvent{Asset: "NZD", Reason: "rbnz", At: time.Now().Add(10 * time.Millisecond)}
	if err := s.AddEvent(ok); err != nil {
		t.Fatalf("add event: %v", err)
	}
	select {
	case a := <-triggered:
		if a != "NZD" {
			t.Fatalf("event fired for wrong asset %s", a)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduled event never fired")
	}
}
