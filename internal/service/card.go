package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CardKeeper/internal/common"
	"CardKeeper/internal/model"
	"CardKeeper/internal/repo"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// правила полей — в validate-тегах model.Card
var validate = validator.New(validator.WithRequiredStructEnabled())

// CardService — валидация и запись карточек, присланных клиентами.
type CardService struct {
	repo repo.CardRepository
	log  *zap.SugaredLogger
	now  func() time.Time
}

func NewCardService(r repo.CardRepository, log *zap.SugaredLogger) *CardService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CardService{repo: r, log: log, now: time.Now}
}

// normalize проверяет обязательные поля и заполняет значения по умолчанию.
func (s *CardService) normalize(c *model.Card) error {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", common.ErrValidationFailed)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: card %s: title is required", common.ErrValidationFailed, c.ID)
	}
	if c.Rarity == "" {
		c.Rarity = "common"
	}
	if c.Visibility == "" {
		c.Visibility = "private"
	}
	c.IsPublic = c.Visibility == "public"
	if c.VerificationStatus == "" {
		c.VerificationStatus = "pending"
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: card %s: field %s fails %q (got %v)", common.ErrValidationFailed, c.ID, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: card %s: %v", common.ErrValidationFailed, c.ID, err)
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.DesignMetadata == nil {
		c.DesignMetadata = map[string]any{}
	}
	now := s.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return nil
}

// Upsert сохраняет карточку (last writer wins по id).
func (s *CardService) Upsert(ctx context.Context, clientID string, c *model.Card) error {
	if err := s.normalize(c); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		s.log.Errorw("card upsert failed", "card_id", c.ID, "client_id", clientID, "error", err)
		return err
	}
	s.log.Debugw("card upserted", "card_id", c.ID, "client_id", clientID)
	return nil
}

// Delete удаляет карточку. Отсутствующая карточка — не ошибка.
func (s *CardService) Delete(ctx context.Context, clientID, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", common.ErrValidationFailed)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Errorw("card delete failed", "card_id", id, "client_id", clientID, "error", err)
		return err
	}
	return nil
}

func (s *CardService) Get(ctx context.Context, id string) (*model.Card, error) {
	return s.repo.GetByID(ctx, id)
}
