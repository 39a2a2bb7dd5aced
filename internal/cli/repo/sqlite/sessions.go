package sqlite

import (
	"context"
	"fmt"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/store"

	"gorm.io/gorm"
)

// ListSessions returns sessions of the given type, newest first.
// Пустой тип возвращает все сессии.
func (s *PartitionStore) ListSessions(ctx context.Context, sessionType string) ([]model.SessionEnvelope, error) {
	h, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var rows []store.SessionRow
	err = h.Read(ctx, func(tx *gorm.DB) error {
		q := tx.Order("updated_at DESC, id")
		if sessionType != "" {
			q = q.Where("session_type = ?", sessionType)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]model.SessionEnvelope, 0, len(rows))
	for i := range rows {
		out = append(out, *sessionEnvelope(&rows[i]))
	}
	return out, nil
}
