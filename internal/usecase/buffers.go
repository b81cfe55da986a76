package usecase

import (
	"math"
	"sync"
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/services/scoring"
)

// SubmitResult reports whether a record was buffered and how significant it
// is for trigger purposes (0..1).
type SubmitResult struct {
	Accepted     bool
	Reject       string // rule description when not accepted
	Significance float64
}

// RecordBuffers holds the per-asset windows of normalized records the
// scorers read, plus the ingestion counters behind SystemHealth. Submission
// never raises: malformed records are dropped and counted.
type RecordBuffers struct {
	mu        sync.RWMutex
	econ      map[models.Asset][]models.EconomicDataPoint
	cot       map[models.Asset]*models.COTData
	sentiment map[models.Asset]*models.SentimentData

	maxEconomic int
	deadBand    float64

	submitted   int64
	rejected    int64
	scrapeTotal int64
	scrapeOK    int64
	lastSuccess map[string]time.Time
}

// NewRecordBuffers creates empty buffers. maxEconomic bounds the retained
// release history per asset.
func NewRecordBuffers(maxEconomic int, deadBand float64) *RecordBuffers {
	if maxEconomic <= 0 {
		maxEconomic = 256
	}
	return &RecordBuffers{
		econ:        make(map[models.Asset][]models.EconomicDataPoint),
		cot:         make(map[models.Asset]*models.COTData),
		sentiment:   make(map[models.Asset]*models.SentimentData),
		maxEconomic: maxEconomic,
		deadBand:    deadBand,
		lastSuccess: make(map[string]time.Time),
	}
}

// SubmitEconomic validates and buffers one release. Points that scraped or
// validated badly are still retained for audit but can never score.
func (b *RecordBuffers) SubmitEconomic(p models.EconomicDataPoint) SubmitResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted++
	b.scrapeTotal++
	if p.ScrapeSuccess {
		b.scrapeOK++
		b.lastSuccess[p.Source] = time.Now()
	}
	if err := models.ValidateEconomicDataPoint(&p); err != nil {
		b.rejected++
		return SubmitResult{Reject: err.Error()}
	}
	buf := append(b.econ[p.Asset], p)
	if len(buf) > b.maxEconomic {
		buf = buf[len(buf)-b.maxEconomic:]
	}
	b.econ[p.Asset] = buf

	sig := 0.0
	if p.Scoreable() {
		sig = math.Abs(float64(p.SurpriseScore(b.deadBand))) * p.ImportanceWeight / models.ImportanceMax
	}
	return SubmitResult{Accepted: true, Significance: sig}
}

// SubmitCOT validates, normalizes nets, and replaces the weekly snapshot.
func (b *RecordBuffers) SubmitCOT(c models.COTData) SubmitResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted++
	if err := models.ValidateCOTData(&c); err != nil {
		b.rejected++
		return SubmitResult{Reject: err.Error()}
	}
	c.Normalize()
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = 1
	}
	b.cot[c.Asset] = &c
	// a fresh positioning report always warrants a recompute
	return SubmitResult{Accepted: true, Significance: 1}
}

// SubmitSentiment validates and replaces the sentiment snapshot. Records
// whose percentages do not sum to 100 within tolerance are dropped.
func (b *RecordBuffers) SubmitSentiment(s models.SentimentData) SubmitResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted++
	if err := models.ValidateSentimentData(&s); err != nil {
		b.rejected++
		return SubmitResult{Reject: err.Error()}
	}
	if s.ConfidenceLevel == 0 {
		s.ConfidenceLevel = 1
	}
	b.sentiment[s.Asset] = &s
	return SubmitResult{Accepted: true, Significance: math.Abs(s.ContrarianScore())}
}

// SubmitCalendar validates one calendar event. Calendar events matter only
// for trigger significance; nothing downstream rereads them. Realized
// high-impact surprises are maximally significant.
func (b *RecordBuffers) SubmitCalendar(e models.EconomicCalendarEvent) SubmitResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted++
	if err := models.ValidateCalendarEvent(&e); err != nil {
		b.rejected++
		return SubmitResult{Reject: err.Error()}
	}

	sig := 0.0
	if e.Reaction(b.deadBand) != models.ReactionNeutral {
		switch e.Impact {
		case models.ImpactHigh:
			sig = 1
		case models.ImpactMedium:
			sig = 0.6
		default:
			sig = 0.3
		}
	}
	return SubmitResult{Accepted: true, Significance: sig}
}

// Window returns copies of the asset's buffered records for one scoring
// run. The engine never sees shared state.
func (b *RecordBuffers) Window(asset models.Asset) scoring.Window {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w := scoring.Window{
		Economic: append([]models.EconomicDataPoint(nil), b.econ[asset]...),
	}
	if c := b.cot[asset]; c != nil {
		cc := *c
		w.COT = &cc
	}
	if s := b.sentiment[asset]; s != nil {
		ss := *s
		w.Sentiment = &ss
	}
	return w
}

// Health summarizes ingestion counters for the status surface.
func (b *RecordBuffers) Health(uptime time.Duration, recentErrors []string) models.SystemHealth {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h := models.SystemHealth{
		Submitted:           b.submitted,
		Rejected:            b.rejected,
		ValidationPassRate:  1,
		ScrapeSuccessRate:   1,
		LastSuccessBySource: make(map[string]time.Time, len(b.lastSuccess)),
		RecentErrors:        recentErrors,
		Uptime:              uptime,
	}
	if b.submitted > 0 {
		h.ValidationPassRate = float64(b.submitted-b.rejected) / float64(b.submitted)
	}
	if b.scrapeTotal > 0 {
		h.ScrapeSuccessRate = float64(b.scrapeOK) / float64(b.scrapeTotal)
	}
	for k, v := range b.lastSuccess {
		h.LastSuccessBySource[k] = v
	}
	return h
}
