package repository

import (
	"context"
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/domain/repository"
	"BiasEngine/pkg/cache"
)

const snapshotTTL = 48 * time.Hour

// RedisSnapshotStore persists last-known scores so a restart serves cached
// values until the first recompute lands.
type RedisSnapshotStore struct {
	cache cache.Service
}

// NewRedisSnapshotStore creates the warm-start store.
func NewRedisSnapshotStore(c cache.Service) repository.SnapshotStore {
	return &RedisSnapshotStore{cache: c}
}

func snapshotKey(asset models.Asset) string {
	return "score:" + string(asset)
}

func (r *RedisSnapshotStore) Save(ctx context.Context, s *models.AssetScore) error {
	return r.cache.Set(ctx, snapshotKey(s.Asset), s, snapshotTTL)
}

func (r *RedisSnapshotStore) Load(ctx context.Context, asset models.Asset) (*models.AssetScore, error) {
	var s models.AssetScore
	if err := r.cache.Get(ctx, snapshotKey(asset), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadAll returns every cached snapshot; assets with no snapshot are
// skipped, not errors.
func (r *RedisSnapshotStore) LoadAll(ctx context.Context) ([]*models.AssetScore, error) {
	out := make([]*models.AssetScore, 0, len(models.Universe))
	for _, a := range models.Universe {
		s, err := r.Load(ctx, a)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
