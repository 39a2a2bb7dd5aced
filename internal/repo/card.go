package repo

import (
	"context"
	"errors"
	"fmt"

	"CardKeeper/internal/common"
	"CardKeeper/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardRepository — доступ к таблице cards.
type CardRepository interface {
	// Upsert вставляет карточку или перезаписывает её по id. created_at
	// существующей строки не меняется.
	Upsert(ctx context.Context, c *model.Card) error
	// Delete идемпотентен: отсутствующая карточка — не ошибка.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Card, error)
}

type cardRepo struct {
	db *gorm.DB
}

// NewCardRepository создаёт реализацию репозитория для Card.
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepo{db: db}
}

var upsertColumns = []string{
	"title", "description", "creator_id", "image_url", "thumbnail_url", "tags",
	"rarity", "visibility", "design_metadata", "is_public", "marketplace_listing",
	"print_available", "verification_status", "updated_at",
}

func (r *cardRepo) Upsert(ctx context.Context, c *model.Card) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(c).Error
}

func (r *cardRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Card{}, "id = ?", id).Error
}

func (r *cardRepo) GetByID(ctx context.Context, id string) (*model.Card, error) {
	var c model.Card
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("card %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
