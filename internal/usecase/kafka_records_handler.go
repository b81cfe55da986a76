package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BiasEngine/internal/domain/models"
	domrepo "BiasEngine/internal/domain/repository"
	pkgkafka "BiasEngine/pkg/kafka"
)

// KafkaRecordsHandler consumes normalized record envelopes from Kafka and
// feeds them into the orchestrator's submit path.
type KafkaRecordsHandler struct {
	topic   string
	orch    *Orchestrator
	metrics domrepo.Metrics
}

func NewKafkaRecordsHandler(topic string, orch *Orchestrator, metrics domrepo.Metrics) *KafkaRecordsHandler {
	return &KafkaRecordsHandler{topic: topic, orch: orch, metrics: metrics}
}

func (h *KafkaRecordsHandler) Topic() string { return h.topic }

// envelope schema: {record_type, produced_at, payload}
type recordEnvelope struct {
	RecordType string          `json:"record_type"` // economic, cot, sentiment, calendar
	ProducedAt int64           `json:"produced_at"` // unix seconds or millis
	Payload    json.RawMessage `json:"payload"`
}

func (h *KafkaRecordsHandler) Handle(ctx context.Context, b []byte) error {
	var env recordEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if env.ProducedAt > 1e11 { // ms
		env.ProducedAt = env.ProducedAt / 1000
	}
	if env.ProducedAt > 0 {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(env.ProducedAt, 0)).Seconds())
	}

	switch env.RecordType {
	case "economic":
		var p models.EconomicDataPoint
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.metrics.RecordError("consumer_payload")
			return err
		}
		h.orch.SubmitEconomic(p)
	case "cot":
		var c models.COTData
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			h.metrics.RecordError("consumer_payload")
			return err
		}
		h.orch.SubmitCOT(c)
	case "sentiment":
		var s models.SentimentData
		if err := json.Unmarshal(env.Payload, &s); err != nil {
			h.metrics.RecordError("consumer_payload")
			return err
		}
		h.orch.SubmitSentiment(s)
	case "calendar":
		var e models.EconomicCalendarEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			h.metrics.RecordError("consumer_payload")
			return err
		}
		h.orch.SubmitCalendar(e)
	default:
		h.metrics.RecordError("consumer_record_type")
		return fmt.Errorf("unknown record type %q", env.RecordType)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRecordsHandler)(nil)
