package service

import (
	"context"
	"fmt"
	"time"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/repo"

	"go.uber.org/zap"
)

// CardStore — то, что CardService нужно от локального хранилища.
type CardStore interface {
	repo.PartitionRepository
	repo.CardRepository
}

// Enqueuer принимает id карточки для фоновой отправки.
type Enqueuer interface {
	Enqueue(id string) bool
}

// CardService — операции с карточками для UI: локально сразу, удалённо в фоне.
type CardService struct {
	store   CardStore
	queue   Enqueuer
	remote  api.RemoteStore
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewCardService creates the service. queue and remote may be nil (offline build).
func NewCardService(store CardStore, queue Enqueuer, remote api.RemoteStore, timeout time.Duration, log *zap.SugaredLogger) *CardService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &CardService{store: store, queue: queue, remote: remote, timeout: timeout, log: log}
}

// SaveCard сохраняет карточку как dirty и ставит её в очередь отправки.
// Результат синхронизации на возврат не влияет.
func (s *CardService) SaveCard(ctx context.Context, card model.CardData) (*model.CardEnvelope, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}
	env, err := s.store.Set(ctx, model.PartitionCards, card.ID, card, model.SetOptions{CreatorID: card.CreatorID})
	if err != nil {
		return nil, fmt.Errorf("save card: %w", err)
	}
	if s.queue != nil && !s.queue.Enqueue(card.ID) {
		s.log.Debugw("card left for the next sweep", "card_id", card.ID)
	}
	return env.(*model.CardEnvelope), nil
}

// GetCard returns the card or (nil, nil).
func (s *CardService) GetCard(ctx context.Context, id string) (*model.CardEnvelope, error) {
	return s.store.GetCard(ctx, id)
}

func (s *CardService) ListCards(ctx context.Context, q model.CardQuery) ([]model.CardEnvelope, error) {
	return s.store.ListCards(ctx, q)
}

// DeleteCard удаляет карточку локально, затем пытается удалить её на сервере.
// Ошибка удалённого удаления только логируется.
func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, model.PartitionCards, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if s.remote == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.remote.DeleteCard(callCtx, id); err != nil {
		s.log.Warnw("remote delete failed, local delete kept", "card_id", id, "error", err)
	}
	return nil
}
