package sqlite

import (
	"context"
	"fmt"
	"time"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/store"

	"gorm.io/gorm"
)

// SetCached пишет запись кэша с TTL. ttl <= 0 — без истечения.
func (s *PartitionStore) SetCached(ctx context.Context, key string, payload any, ttl time.Duration) (*model.CacheEnvelope, error) {
	env, err := s.Set(ctx, model.PartitionCache, key, payload, model.SetOptions{ExpiresIn: ttl})
	if err != nil {
		return nil, err
	}
	return env.(*model.CacheEnvelope), nil
}

// ClearExpiredCache удаляет все записи с expires_at <= now и возвращает их число.
func (s *PartitionStore) ClearExpiredCache(ctx context.Context) (int, error) {
	h, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	now := store.Millis(s.now())
	var removed int64
	err = h.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&store.CacheRow{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("clear expired cache: %w", err)
	}
	if removed > 0 {
		s.log.Infow("expired cache entries removed", "count", removed)
	}
	return int(removed), nil
}
