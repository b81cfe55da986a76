package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"BiasEngine/internal/domain/models"
	domrepo "BiasEngine/internal/domain/repository"
	applogger "BiasEngine/pkg/logger"
)

var (
	// ErrNotAccepting is returned when a trigger arrives after Stop.
	ErrNotAccepting = errors.New("scheduler: not accepting triggers")
	// ErrUnknownAsset is returned for assets outside the universe.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrNoScore is returned before any run has completed for an asset.
	ErrNoScore = errors.New("no score computed yet")
)

// ComputeFunc performs one recompute for an asset. The scheduler guarantees
// at most one in-flight call per asset; the reasons list is the coalesced
// set of requests this run satisfies.
type ComputeFunc func(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore

type assetState struct {
	phase   models.SchedulerState
	again   bool // a request arrived while RUNNING
	reasons []string
	waiters []chan *models.AssetScore
}

// Scheduler owns per-asset recompute scheduling: periodic ticks,
// significance triggers, explicit triggers, and scheduled events. Requests
// for the same asset are deduplicated into one pending run; the cached
// score map it maintains is the single authoritative copy per asset.
type Scheduler struct {
	compute ComputeFunc
	metrics domrepo.Metrics
	log     *applogger.Logger

	workers int
	tick    time.Duration

	mu        sync.Mutex
	accepting bool
	states    map[models.Asset]*assetState
	scores    map[models.Asset]*models.AssetScore
	timers    map[*time.Timer]struct{}

	queue   chan models.Asset
	stopCh  chan struct{}
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler builds an idle scheduler; Start launches workers and ticks.
func NewScheduler(compute ComputeFunc, metrics domrepo.Metrics, log *applogger.Logger, workers int, tick time.Duration) *Scheduler {
	if workers <= 0 {
		workers = 2
	}
	states := make(map[models.Asset]*assetState, len(models.Universe))
	for _, a := range models.Universe {
		states[a] = &assetState{phase: models.StateIdle}
	}
	return &Scheduler{
		compute: compute,
		metrics: metrics,
		log:     log,
		workers: workers,
		tick:    tick,
		states:  states,
		scores:  make(map[models.Asset]*models.AssetScore, len(models.Universe)),
		timers:  make(map[*time.Timer]struct{}),
		// one slot per asset suffices: an asset is enqueued only on its
		// IDLE->PENDING edge and once per rerun handoff
		queue:  make(chan models.Asset, 2*len(models.Universe)),
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker pool and the periodic tick loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.accepting = true
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	if s.tick > 0 {
		s.wg.Add(1)
		go s.tickLoop()
	}
	if s.log != nil {
		s.log.Info("scheduler started",
			applogger.Int("workers", s.workers),
			applogger.Duration("tick", s.tick))
	}
}

// Trigger requests a recompute for one asset. A request arriving while the
// asset is PENDING is coalesced; while RUNNING it marks the asset for one
// immediate rerun. Never spawns a second concurrent run for the asset.
func (s *Scheduler) Trigger(asset models.Asset, reason string) error {
	_, err := s.trigger(asset, reason, nil)
	return err
}

// TriggerWait requests a recompute and blocks until the run that satisfies
// this request completes, returning the fresh score.
func (s *Scheduler) TriggerWait(ctx context.Context, asset models.Asset, reason string) (*models.AssetScore, error) {
	waiter := make(chan *models.AssetScore, 1)
	if _, err := s.trigger(asset, reason, waiter); err != nil {
		return nil, err
	}
	select {
	case sc := <-waiter:
		return sc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, ErrNotAccepting
	}
}

func (s *Scheduler) trigger(asset models.Asset, reason string, waiter chan *models.AssetScore) (models.SchedulerState, error) {
	if !models.KnownAsset(asset) {
		return "", ErrUnknownAsset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting {
		return "", ErrNotAccepting
	}
	st := s.states[asset]
	st.reasons = append(st.reasons, reason)
	if waiter != nil {
		st.waiters = append(st.waiters, waiter)
	}
	switch st.phase {
	case models.StateIdle:
		st.phase = models.StatePending
		s.queue <- asset
	case models.StatePending:
		if s.metrics != nil {
			s.metrics.RecordCoalesced(string(asset))
		}
	case models.StateRunning:
		st.again = true
		if s.metrics != nil {
			s.metrics.RecordCoalesced(string(asset))
		}
	}
	return st.phase, nil
}

// TriggerAll enqueues a dedicated recompute request for every asset.
func (s *Scheduler) TriggerAll(reason string) {
	for _, a := range models.Universe {
		if err := s.Trigger(a, reason); err != nil {
			return // stopped
		}
	}
}

// AddEvent schedules a future trigger. Malformed events are rejected
// synchronously and nothing is scheduled.
func (s *Scheduler) AddEvent(ev models.ScheduledEvent) error {
	if err := ev.Validate(time.Now()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting {
		return ErrNotAccepting
	}
	var t *time.Timer
	t = time.AfterFunc(time.Until(ev.At), func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		if err := s.Trigger(ev.Asset, ev.Reason); err != nil && s.log != nil {
			s.log.Warn("scheduled event dropped", applogger.Error(err),
				applogger.String("asset", string(ev.Asset)))
		}
	})
	s.timers[t] = struct{}{}
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.TriggerAll("periodic")
		}
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			// drain requests that were accepted before stop
			for {
				select {
				case a := <-s.queue:
					s.run(a)
				default:
					return
				}
			}
		case a := <-s.queue:
			s.run(a)
		}
	}
}

// run executes recomputes for one asset until no request remains. The
// PENDING->RUNNING edge happens under the lock, so a second worker pulling
// the same asset observes a non-PENDING phase and backs off.
func (s *Scheduler) run(asset models.Asset) {
	s.mu.Lock()
	st := s.states[asset]
	if st.phase != models.StatePending {
		s.mu.Unlock()
		return
	}
	st.phase = models.StateRunning
	reasons := st.reasons
	waiters := st.waiters
	st.reasons, st.waiters = nil, nil
	s.mu.Unlock()

	for {
		start := time.Now()
		score := s.compute(s.runCtx, asset, reasons)
		if s.metrics != nil {
			s.metrics.RecordRun(string(asset), time.Since(start).Seconds())
		}

		s.mu.Lock()
		if score != nil {
			s.scores[asset] = score
		}
		for _, w := range waiters {
			select {
			case w <- score.Clone():
			default:
			}
		}
		if st.again {
			// a burst during the run collapses to exactly one rerun
			st.again = false
			reasons = st.reasons
			waiters = st.waiters
			st.reasons, st.waiters = nil, nil
			s.mu.Unlock()
			continue
		}
		st.phase = models.StateIdle
		s.mu.Unlock()
		return
	}
}

// Score returns an immutable snapshot of the asset's cached score.
func (s *Scheduler) Score(asset models.Asset) (*models.AssetScore, error) {
	if !models.KnownAsset(asset) {
		return nil, ErrUnknownAsset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[asset]
	if !ok {
		return nil, ErrNoScore
	}
	return sc.Clone(), nil
}

// Seed installs a warm-start score, losing to any computed value.
func (s *Scheduler) Seed(score *models.AssetScore) {
	if score == nil || !models.KnownAsset(score.Asset) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scores[score.Asset]; !ok {
		s.scores[score.Asset] = score.Clone()
	}
}

// AllScores lists cached snapshots in universe enumeration order. Assets
// with no completed run yet yield a zero-valued placeholder.
func (s *Scheduler) AllScores() []*models.AssetScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.AssetScore, 0, len(models.Universe))
	for _, a := range models.Universe {
		if sc, ok := s.scores[a]; ok {
			out = append(out, sc.Clone())
		} else {
			out = append(out, &models.AssetScore{Asset: a, Signal: models.SignalHold})
		}
	}
	return out
}

// States reports every asset's scheduler phase.
func (s *Scheduler) States() map[models.Asset]models.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.Asset]models.SchedulerState, len(s.states))
	for a, st := range s.states {
		out[a] = st.phase
	}
	return out
}

// Stop blocks new triggers and cancels timers; in-flight and already
// accepted runs complete. Cached scores are retained.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || !s.accepting {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// Close stops if needed, waits for the last run, and discards state.
func (s *Scheduler) Close() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.scores = make(map[models.Asset]*models.AssetScore)
	for _, st := range s.states {
		st.phase = models.StateIdle
		st.reasons, st.waiters = nil, nil
		st.again = false
	}
}
