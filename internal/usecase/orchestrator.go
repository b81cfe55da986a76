package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"BiasEngine/internal/domain/models"
	domrepo "BiasEngine/internal/domain/repository"
	"BiasEngine/internal/registry"
	"BiasEngine/internal/services/scoring"
	applogger "BiasEngine/pkg/logger"
)

// ErrLifecycle is returned when an operation is invalid for the current
// lifecycle state.
var ErrLifecycle = errors.New("invalid lifecycle state")

// OrchestratorConfig carries the orchestrator tunables.
type OrchestratorConfig struct {
	Workers               int
	TickInterval          time.Duration
	SignificanceThreshold float64
	ChangeEpsilon         float64
	MaxEconomicBuffer     int
}

// Orchestrator owns the engine's lifecycle and exposes the operations the
// external API layer invokes. It is constructed explicitly and injected;
// there is no ambient singleton.
type Orchestrator struct {
	cfg     OrchestratorConfig
	reg     *registry.Registry
	engine  *scoring.Engine
	buffers *RecordBuffers
	metrics domrepo.Metrics
	log     *applogger.Logger

	snapshot domrepo.SnapshotStore  // optional
	archive  domrepo.ScoreArchive   // optional
	pub      domrepo.ScorePublisher // optional

	mu        sync.Mutex
	lifecycle models.LifecycleState
	sched     *Scheduler
	startedAt time.Time
}

// NewOrchestrator wires the engine together. Optional collaborators may be
// nil; the corresponding side effects are skipped.
func NewOrchestrator(
	cfg OrchestratorConfig,
	reg *registry.Registry,
	engine *scoring.Engine,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	snapshot domrepo.SnapshotStore,
	archive domrepo.ScoreArchive,
	pub domrepo.ScorePublisher,
) *Orchestrator {
	if cfg.ChangeEpsilon <= 0 {
		cfg.ChangeEpsilon = 1e-4
	}
	if cfg.SignificanceThreshold <= 0 {
		cfg.SignificanceThreshold = 0.5
	}
	return &Orchestrator{
		cfg:       cfg,
		reg:       reg,
		engine:    engine,
		buffers:   NewRecordBuffers(cfg.MaxEconomicBuffer, engine.Params().SurpriseDeadBand),
		metrics:   metrics,
		log:       log,
		snapshot:  snapshot,
		archive:   archive,
		pub:       pub,
		lifecycle: models.LifecycleUninitialized,
	}
}

// Initialize constructs the scheduler. No timers run yet.
func (o *Orchestrator) Initialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lifecycle != models.LifecycleUninitialized {
		return fmt.Errorf("%w: initialize from %s", ErrLifecycle, o.lifecycle)
	}
	o.sched = NewScheduler(o.computeAndPublish, o.metrics, o.log, o.cfg.Workers, o.cfg.TickInterval)
	o.lifecycle = models.LifecycleInitialized
	return nil
}

// computeAndPublish is the scheduler's ComputeFunc: one pure engine run,
// then the side effects the engine itself must not perform.
func (o *Orchestrator) computeAndPublish(ctx context.Context, asset models.Asset, reasons []string) *models.AssetScore {
	w := o.buffers.Window(asset)
	score := o.engine.Calculate(ctx, asset, w)
	if len(reasons) > 1 && o.log != nil {
		o.log.Debug("coalesced recompute",
			applogger.String("asset", string(asset)),
			applogger.Int("requests", len(reasons)))
	}

	if o.metrics != nil {
		o.metrics.RecordScore(string(asset), score.NormalizedScore)
	}
	if o.snapshot != nil {
		if err := o.snapshot.Save(ctx, score); err != nil && o.log != nil {
			o.log.Warn("snapshot save failed", applogger.Error(err))
		}
	}
	if o.archive != nil {
		if err := o.archive.AppendScore(ctx, score); err != nil && o.log != nil {
			o.log.Warn("score archive append failed", applogger.Error(err))
		}
	}
	if o.pub != nil {
		if err := o.pub.Publish(ctx, score); err != nil && o.log != nil {
			o.log.Warn("score publish failed", applogger.Error(err))
		}
	}
	return score
}

// Start activates periodic ticks and event timers. Idempotent on a
// STARTED instance.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.lifecycle {
	case models.LifecycleStarted:
		return nil
	case models.LifecycleInitialized:
	default:
		return fmt.Errorf("%w: start from %s", ErrLifecycle, o.lifecycle)
	}

	if o.snapshot != nil {
		if cached, err := o.snapshot.LoadAll(ctx); err == nil {
			for _, sc := range cached {
				o.sched.Seed(sc)
			}
		} else if o.log != nil {
			o.log.Warn("snapshot warm-start failed", applogger.Error(err))
		}
	}

	o.sched.Start(ctx)
	o.startedAt = time.Now()
	o.lifecycle = models.LifecycleStarted
	if o.log != nil {
		o.log.Info("bias engine started", applogger.Int("assets", len(models.Universe)))
	}
	return nil
}

// Stop cancels timers and blocks new recompute requests; running
// computations finish and cached scores are retained. No-op when not
// started.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lifecycle != models.LifecycleStarted {
		return nil
	}
	o.sched.Stop()
	o.lifecycle = models.LifecycleStopped
	if o.log != nil {
		o.log.Info("bias engine stopped")
	}
	return nil
}

// Close waits for the last running computation, then releases resources
// and discards cached scores. Only teardown failures propagate.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.lifecycle {
	case models.LifecycleClosed, models.LifecycleUninitialized:
		return nil
	}
	if o.sched != nil {
		o.sched.Close()
	}

	var errs []error
	if o.archive != nil {
		if err := o.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("archive close: %w", err))
		}
	}
	if o.pub != nil {
		if err := o.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close: %w", err))
		}
	}
	o.lifecycle = models.LifecycleClosed
	return errors.Join(errs...)
}

// GetAssetBiasScore returns the cached score snapshot for one asset.
func (o *Orchestrator) GetAssetBiasScore(asset models.Asset) (*models.AssetScore, error) {
	sched := o.scheduler()
	if sched == nil {
		return nil, ErrNoScore
	}
	return sched.Score(asset)
}

// GetAllBiasScores lists scores for every known asset in enumeration order.
func (o *Orchestrator) GetAllBiasScores() []*models.AssetScore {
	sched := o.scheduler()
	if sched == nil {
		return nil
	}
	return sched.AllScores()
}

// GetServiceStatus reports lifecycle, per-asset scheduler state, and
// ingestion health.
func (o *Orchestrator) GetServiceStatus() models.ServiceStatus {
	o.mu.Lock()
	lc := o.lifecycle
	sched := o.sched
	startedAt := o.startedAt
	o.mu.Unlock()

	status := models.ServiceStatus{Lifecycle: lc}
	if sched != nil {
		status.Assets = sched.States()
	}
	var uptime time.Duration
	if !startedAt.IsZero() {
		uptime = time.Since(startedAt)
	}
	var recent []string
	if o.log != nil {
		recent = o.log.RecentErrors()
	}
	status.Health = o.buffers.Health(uptime, recent)
	return status
}

// GetFundamentalFactors returns the factor registry contents.
func (o *Orchestrator) GetFundamentalFactors() map[string]models.Factor {
	return o.reg.All()
}

// SetFactorWeight reweights one registry factor and requests a recompute
// for every asset, since economic scores depend on the weight table.
func (o *Orchestrator) SetFactorWeight(name string, weight float64) error {
	if err := o.reg.SetWeight(name, weight); err != nil {
		return err
	}
	if sched := o.scheduler(); sched != nil {
		for _, a := range models.Universe {
			if err := sched.Trigger(a, "factor weight change"); err != nil && !errors.Is(err, ErrNotAccepting) && o.log != nil {
				o.log.Warn("reweight trigger failed",
					applogger.String("asset", string(a)), applogger.Error(err))
			}
		}
	}
	return nil
}

// History reads archived scores for one asset, newest first.
func (o *Orchestrator) History(ctx context.Context, asset models.Asset, from, to time.Time, limit int) ([]*models.AssetScore, error) {
	if !models.KnownAsset(asset) {
		return nil, ErrUnknownAsset
	}
	if o.archive == nil {
		return nil, errors.New("score history is not configured")
	}
	return o.archive.History(ctx, asset, from, to, limit)
}

// TriggerAssetUpdate forces one recompute and reports what changed. The
// hasChanges flags compare against the previously cached score beyond the
// configured epsilon.
func (o *Orchestrator) TriggerAssetUpdate(ctx context.Context, asset models.Asset, reason string) ([]models.UpdateOutcome, error) {
	sched := o.scheduler()
	if sched == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrLifecycle)
	}
	prev, prevErr := sched.Score(asset)

	next, err := sched.TriggerWait(ctx, asset, reason)
	if err != nil {
		return nil, err
	}

	var prevNorm, prevConf float64
	prevSignal := models.Signal("")
	if prevErr == nil {
		prevNorm, prevConf, prevSignal = prev.NormalizedScore, prev.Confidence, prev.Signal
	}

	eps := o.cfg.ChangeEpsilon
	outcomes := []models.UpdateOutcome{
		{
			Check:      "normalized_score",
			HasChanges: math.Abs(next.NormalizedScore-prevNorm) > eps || prevErr != nil,
			Detail:     fmt.Sprintf("%.4f -> %.4f", prevNorm, next.NormalizedScore),
			Previous:   prevNorm,
			Current:    next.NormalizedScore,
		},
		{
			Check:      "signal",
			HasChanges: next.Signal != prevSignal,
			Detail:     fmt.Sprintf("%s -> %s", prevSignal, next.Signal),
			Previous:   prevNorm,
			Current:    next.NormalizedScore,
		},
		{
			Check:      "confidence",
			HasChanges: math.Abs(next.Confidence-prevConf) > eps,
			Detail:     fmt.Sprintf("%.4f -> %.4f", prevConf, next.Confidence),
			Previous:   prevConf,
			Current:    next.Confidence,
		},
	}
	return outcomes, nil
}

// RecalculateAllScores requests a dedicated recompute for every asset and
// returns the post-recompute values in enumeration order. Fan-out is
// concurrent across assets; per-asset exclusivity still holds.
func (o *Orchestrator) RecalculateAllScores(ctx context.Context) ([]*models.AssetScore, error) {
	sched := o.scheduler()
	if sched == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrLifecycle)
	}

	results := make([]*models.AssetScore, len(models.Universe))
	errsCh := make(chan error, len(models.Universe))
	var wg sync.WaitGroup
	for i, a := range models.Universe {
		wg.Add(1)
		go func(i int, a models.Asset) {
			defer wg.Done()
			sc, err := sched.TriggerWait(ctx, a, "recalculate_all")
			if err != nil {
				errsCh <- fmt.Errorf("%s: %w", a, err)
				return
			}
			results[i] = sc
		}(i, a)
	}
	wg.Wait()
	close(errsCh)
	for err := range errsCh {
		return nil, err
	}
	return results, nil
}

// AddScheduledEvent registers a future trigger; malformed events are
// rejected synchronously.
func (o *Orchestrator) AddScheduledEvent(ev models.ScheduledEvent) error {
	sched := o.scheduler()
	if sched == nil {
		return fmt.Errorf("%w: not initialized", ErrLifecycle)
	}
	return sched.AddEvent(ev)
}

// SubmitEconomic ingests one release. Never raises; rejects are counted.
func (o *Orchestrator) SubmitEconomic(p models.EconomicDataPoint) {
	res := o.buffers.SubmitEconomic(p)
	o.afterSubmit(p.Asset, res, "economic", p.Source,
		fmt.Sprintf("significant %s release", p.Indicator))
}

// SubmitCOT ingests one weekly positioning snapshot.
func (o *Orchestrator) SubmitCOT(c models.COTData) {
	res := o.buffers.SubmitCOT(c)
	o.afterSubmit(c.Asset, res, "cot", "cot", "weekly positioning report")
}

// SubmitSentiment ingests one sentiment snapshot.
func (o *Orchestrator) SubmitSentiment(s models.SentimentData) {
	res := o.buffers.SubmitSentiment(s)
	o.afterSubmit(s.Asset, res, "sentiment", "sentiment", "retail sentiment shift")
}

// Process adapts the submit path to the realtime pipeline's downstream
// interface. Submission itself never raises.
func (o *Orchestrator) Process(ctx context.Context, s *models.SentimentData) error {
	o.SubmitSentiment(*s)
	return nil
}

// SubmitCalendar ingests one calendar event.
func (o *Orchestrator) SubmitCalendar(e models.EconomicCalendarEvent) {
	res := o.buffers.SubmitCalendar(e)
	o.afterSubmit(e.Asset, res, "calendar", "calendar",
		fmt.Sprintf("calendar event %s realized", e.Name))
}

func (o *Orchestrator) afterSubmit(asset models.Asset, res SubmitResult, kind, source, reason string) {
	if o.metrics != nil {
		if res.Accepted {
			o.metrics.RecordSubmitted(kind)
		} else {
			o.metrics.RecordRejected(kind)
		}
	}
	if !res.Accepted {
		if o.archive != nil {
			// best-effort audit row; the submit path never raises
			_ = o.archive.AppendRejection(context.Background(), source, res.Reject, time.Now())
		}
		if o.log != nil {
			o.log.Warn("record rejected",
				applogger.String("kind", kind),
				applogger.String("rule", res.Reject))
		}
		return
	}
	if res.Significance >= o.cfg.SignificanceThreshold {
		sched := o.scheduler()
		if sched == nil {
			return
		}
		if err := sched.Trigger(asset, reason); err != nil && !errors.Is(err, ErrNotAccepting) && o.log != nil {
			o.log.Warn("significance trigger failed", applogger.Error(err))
		}
	}
}

func (o *Orchestrator) scheduler() *Scheduler {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sched
}
