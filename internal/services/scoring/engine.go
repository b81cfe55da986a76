package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"BiasEngine/internal/domain/models"
	domsvc "BiasEngine/internal/domain/service"
	"BiasEngine/internal/registry"
	applogger "BiasEngine/pkg/logger"
)

// Window is the per-asset slice of buffered records one scoring run reads.
// The caller hands in copies; the engine never mutates shared state.
type Window struct {
	Economic  []models.EconomicDataPoint
	COT       *models.COTData
	Sentiment *models.SentimentData
}

// Engine combines the five dimension sub-scores into one AssetScore.
// It is a pure function of its inputs plus the registry; publishing the
// result is the caller's job.
type Engine struct {
	reg    *registry.Registry
	tech   domsvc.TechnicalProvider
	cb     domsvc.CentralBankProvider
	params Params
	log    *applogger.Logger
}

// NewEngine builds the bias scoring engine. Either provider may be nil,
// in which case that dimension scores 0 with a diagnostic.
func NewEngine(reg *registry.Registry, tech domsvc.TechnicalProvider, cb domsvc.CentralBankProvider, params Params, log *applogger.Logger) *Engine {
	return &Engine{reg: reg, tech: tech, cb: cb, params: params, log: log}
}

// Params returns the engine tunables.
func (e *Engine) Params() Params { return e.params }

// Calculate runs all five dimension scorers against the window and derives
// the composite. Never fails: collaborator errors degrade to zero
// contributions recorded in Diagnostics.
func (e *Engine) Calculate(ctx context.Context, asset models.Asset, w Window) *models.AssetScore {
	start := time.Now()
	revBefore := e.reg.Revision()

	econ := ScoreEconomic(w.Economic, e.reg, e.params, start)
	sent := ScoreSentiment(w.Sentiment)
	cot := ScoreCOT(w.COT, e.params)
	tech := e.external(ctx, asset, "technical", e.techFn())
	bank := e.external(ctx, asset, "central_bank", e.cbFn())

	dims := []DimensionResult{econ, sent, cot, tech, bank}

	score := &models.AssetScore{
		Asset: asset,
		Scores: models.SubScores{
			Economic:    econ.Score,
			Sentiment:   sent.Score,
			COT:         cot.Score,
			Technical:   tech.Score,
			CentralBank: bank.Score,
		},
		RegistryRevision: revBefore,
		CalculatedAt:     start,
	}
	score.TotalScore = score.Scores.Sum()
	score.NormalizedScore = clamp(score.TotalScore/models.TotalScoreRange, -1, 1)
	score.Signal = models.ClassifySignal(score.NormalizedScore)

	var confSum, confWeight float64
	for _, d := range dims {
		confSum += d.ConfSum
		confWeight += d.ConfWeight
		score.BullishFactors = append(score.BullishFactors, d.Bullish...)
		score.BearishFactors = append(score.BearishFactors, d.Bearish...)
		score.Diagnostics = append(score.Diagnostics, d.Diagnostics...)
	}
	if confWeight > 0 {
		score.Confidence = clamp(confSum/confWeight, 0, 1)
	}

	if revAfter := e.reg.Revision(); revAfter != revBefore {
		score.Diagnostics = append(score.Diagnostics,
			fmt.Sprintf("factor weights changed mid-run (revision %d -> %d)", revBefore, revAfter))
	}

	score.ProcessingTime = time.Since(start)
	if e.log != nil {
		e.log.Debug("bias score calculated",
			applogger.String("asset", string(asset)),
			applogger.Any("signal", score.Signal),
			applogger.Duration("took", score.ProcessingTime),
		)
	}
	return score
}

type externalFn func(context.Context, models.Asset) (domsvc.ExternalScore, error)

func (e *Engine) techFn() externalFn {
	if e.tech == nil {
		return nil
	}
	return e.tech.Technical
}

func (e *Engine) cbFn() externalFn {
	if e.cb == nil {
		return nil
	}
	return e.cb.CentralBank
}

// external wraps a pluggable provider: validates the bound and converts
// failure into a zero-contribution result with a diagnostic.
func (e *Engine) external(ctx context.Context, asset models.Asset, name string, fn externalFn) DimensionResult {
	res := empty(name)
	if fn == nil {
		res.Diagnostics = append(res.Diagnostics, name+": no provider configured")
		return res
	}
	ext, err := fn(ctx, asset)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s: %v", name, err))
		return res
	}
	if math.Abs(ext.Score) > models.SubScoreMax {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("%s: score %g outside [-5,5], excluded", name, ext.Score))
		return res
	}
	res.Score = ext.Score
	res.Bullish = ext.Bullish
	res.Bearish = ext.Bearish
	res.addContribution(ext.Confidence, ext.Score)
	return res
}
