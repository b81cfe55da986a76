package repository

import (
	"context"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/domain/repository"
	pkgkafka "BiasEngine/pkg/kafka"
)

// KafkaScorePublisher fans completed scores out to a Kafka topic.
type KafkaScorePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaScorePublisher creates the Kafka fan-out.
func NewKafkaScorePublisher(producer *pkgkafka.Producer, topic string) repository.ScorePublisher {
	return &KafkaScorePublisher{producer: producer, topic: topic}
}

func (p *KafkaScorePublisher) Publish(ctx context.Context, s *models.AssetScore) error {
	// key by asset so downstream consumers get per-asset ordering
	return p.producer.Publish(ctx, p.topic, []byte(s.Asset), s)
}

func (p *KafkaScorePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
