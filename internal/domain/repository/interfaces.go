package repository

import (
	"context"
	"time"

	"BiasEngine/internal/domain/models"
)

// RecordStream is a live feed of normalized sentiment records (the
// ingestion collaborator). Implementations own reconnection.
type RecordStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.SentimentData, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ScorePublisher fans completed scores out to downstream consumers.
type ScorePublisher interface {
	Publish(ctx context.Context, s *models.AssetScore) error
	Close() error
}

// ScoreArchive is the append-only history of completed scoring runs and
// rejected records. Audit only; never read back into scoring.
type ScoreArchive interface {
	Init(ctx context.Context) error
	AppendScore(ctx context.Context, s *models.AssetScore) error
	AppendRejection(ctx context.Context, source, kind string, at time.Time) error
	History(ctx context.Context, asset models.Asset, from, to time.Time, limit int) ([]*models.AssetScore, error)
	Health(ctx context.Context) error
	Close() error
}

// SnapshotStore persists last-known scores so a restart can serve cached
// values before the first recompute completes.
type SnapshotStore interface {
	Save(ctx context.Context, s *models.AssetScore) error
	Load(ctx context.Context, asset models.Asset) (*models.AssetScore, error)
	LoadAll(ctx context.Context) ([]*models.AssetScore, error)
}

// Metrics records operational telemetry.
type Metrics interface {
	RecordSubmitted(source string)
	RecordRejected(kind string)
	RecordRun(asset string, seconds float64)
	RecordScore(asset string, normalized float64)
	RecordCoalesced(asset string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
