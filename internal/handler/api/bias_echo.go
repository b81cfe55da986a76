package api

import (
	"encoding/json"
	"errors"
	"time"

	models "BiasEngine/internal/domain/models"
	"BiasEngine/internal/usecase"
	xhttp "BiasEngine/pkg/http"
	xlogger "BiasEngine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BiasEchoHandler exposes the bias engine over Echo.
type BiasEchoHandler struct {
	logger *xlogger.Logger
	orch   *usecase.Orchestrator
}

func NewBiasEchoHandler(logger *xlogger.Logger, orch *usecase.Orchestrator) *BiasEchoHandler {
	return &BiasEchoHandler{logger: logger, orch: orch}
}

func (h *BiasEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scores", h.AllScores)
	g.GET("/scores/:asset", h.AssetScore)
	g.GET("/history", h.History)
	g.GET("/status", h.Status)
	g.GET("/factors", h.Factors)
	g.PUT("/factors", h.SetFactorWeight)
	g.POST("/trigger", h.Trigger)
	g.POST("/recalculate", h.Recalculate)
	g.POST("/events", h.AddEvent)
	g.POST("/records", h.SubmitRecord)
}

func (h *BiasEchoHandler) AllScores(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.GetAllBiasScores())
}

func (h *BiasEchoHandler) AssetScore(c echo.Context) error {
	asset := models.Asset(c.Param("asset"))
	score, err := h.orch.GetAssetBiasScore(asset)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownAsset) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		if errors.Is(err, usecase.ErrNoScore) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		h.logger.Error("asset score error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, score)
}

// History reads archived score rows, newest first. The range defaults to
// the last 7 days and is capped at 90.
func (h *BiasEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now().UTC()
	to := xhttp.ParseTimeDefault(req.To, now)
	from := xhttp.ParseTimeDefault(req.From, to.Add(-7*24*time.Hour))
	from, to = xhttp.ClampRange(from, to, 90*24*time.Hour)

	scores, err := h.orch.History(c.Request().Context(), models.Asset(req.Asset), from, to, req.Limit)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownAsset) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		h.logger.Error("history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, scores)
}

func (h *BiasEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.GetServiceStatus())
}

func (h *BiasEchoHandler) Factors(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.GetFundamentalFactors())
}

// SetFactorWeight reweights one fundamental factor and kicks off a
// recompute across the universe.
func (h *BiasEchoHandler) SetFactorWeight(c echo.Context) error {
	req := &models.FactorWeightRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.orch.SetFactorWeight(req.Name, req.Weight); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, h.orch.GetFundamentalFactors())
}

func (h *BiasEchoHandler) Trigger(c echo.Context) error {
	req := &models.TriggerUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	outcomes, err := h.orch.TriggerAssetUpdate(c.Request().Context(), models.Asset(req.Asset), req.Reason)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownAsset) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		h.logger.Error("trigger update error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, outcomes)
}

func (h *BiasEchoHandler) Recalculate(c echo.Context) error {
	scores, err := h.orch.RecalculateAllScores(c.Request().Context())
	if err != nil {
		h.logger.Error("recalculate error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, scores)
}

func (h *BiasEchoHandler) AddEvent(c echo.Context) error {
	req := &models.ScheduledEventRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	at, ok := xhttp.ParseTime(req.At)
	if !ok {
		return xhttp.BadRequestResponse(c, "at must be RFC3339 or unix seconds")
	}
	ev := models.ScheduledEvent{Asset: models.Asset(req.Asset), At: at, Reason: req.Reason}
	if err := h.orch.AddScheduledEvent(ev); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.CreatedResponse(c, ev)
}

// SubmitRecord accepts one normalized record of any kind. Rejections are
// counted, not surfaced as HTTP errors; the submit path never raises.
func (h *BiasEchoHandler) SubmitRecord(c echo.Context) error {
	req := &models.SubmitRecordRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	switch req.Kind {
	case "economic":
		var p models.EconomicDataPoint
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.orch.SubmitEconomic(p)
	case "cot":
		var cot models.COTData
		if err := json.Unmarshal(req.Payload, &cot); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.orch.SubmitCOT(cot)
	case "sentiment":
		var s models.SentimentData
		if err := json.Unmarshal(req.Payload, &s); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.orch.SubmitSentiment(s)
	case "calendar":
		var ev models.EconomicCalendarEvent
		if err := json.Unmarshal(req.Payload, &ev); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.orch.SubmitCalendar(ev)
	}
	return xhttp.SuccessResponse(c, map[string]string{"accepted_at": time.Now().UTC().Format(time.RFC3339)})
}
