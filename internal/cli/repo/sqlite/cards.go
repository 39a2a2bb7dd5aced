package sqlite

import (
	"context"
	"fmt"
	"time"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/store"

	"gorm.io/gorm"
)

// GetCard возвращает карточку или (nil, nil).
func (s *PartitionStore) GetCard(ctx context.Context, id string) (*model.CardEnvelope, error) {
	env, err := s.Get(ctx, model.PartitionCards, id)
	if err != nil || env == nil {
		return nil, err
	}
	return env.(*model.CardEnvelope), nil
}

// ListCards сканирует карточки по индексу created_at или updated_at.
func (s *PartitionStore) ListCards(ctx context.Context, q model.CardQuery) ([]model.CardEnvelope, error) {
	h, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	column := "created_at"
	if q.OrderBy == model.OrderByUpdated {
		column = "updated_at"
	}
	order := column
	if q.Desc {
		order += " DESC"
	}
	order += ", id"

	var rows []store.CardRow
	err = h.Read(ctx, func(tx *gorm.DB) error {
		query := tx.Order(order)
		if q.CreatorID != "" {
			query = query.Where(&store.CardRow{CreatorID: q.CreatorID})
		}
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
		return query.Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return toCardEnvelopes(rows), nil
}

// ListDirtyCards returns every card that still has to be pushed, oldest edit first.
func (s *PartitionStore) ListDirtyCards(ctx context.Context) ([]model.CardEnvelope, error) {
	h, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var rows []store.CardRow
	err = h.Read(ctx, func(tx *gorm.DB) error {
		return tx.Where("dirty = ?", true).Order("updated_at, id").Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list dirty cards: %w", err)
	}
	return toCardEnvelopes(rows), nil
}

// MarkCardSynced снимает dirty только с той версии, которая была отправлена.
func (s *PartitionStore) MarkCardSynced(ctx context.Context, id string, pushedUpdatedAt, syncedAt time.Time) (bool, error) {
	h, err := s.handle(ctx)
	if err != nil {
		return false, err
	}
	var affected int64
	err = h.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&store.CardRow{}).
			Where("id = ? AND updated_at = ?", id, store.Millis(pushedUpdatedAt)).
			Updates(map[string]any{"dirty": false, "synced_at": store.Millis(syncedAt)})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("mark card %s synced: %w", id, err)
	}
	if affected == 0 {
		s.log.Debugw("card changed during sync, keeping dirty", "id", id)
	}
	return affected > 0, nil
}

func toCardEnvelopes(rows []store.CardRow) []model.CardEnvelope {
	out := make([]model.CardEnvelope, 0, len(rows))
	for i := range rows {
		out = append(out, *cardEnvelope(&rows[i]))
	}
	return out
}
