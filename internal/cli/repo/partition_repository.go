package repo

import (
	"context"
	"time"

	"CardKeeper/internal/cli/model"
)

// PartitionRepository — единая CRUD-поверхность над всеми партициями хранилища.
type PartitionRepository interface {
	// Get возвращает (nil, nil), если записи нет. Просроченная запись кэша
	// удаляется и тоже считается отсутствующей.
	Get(ctx context.Context, p model.Partition, key string) (model.Envelope, error)

	// Set строит конверт нужной партиции и перезаписывает существующую запись.
	Set(ctx context.Context, p model.Partition, key string, payload any, opts model.SetOptions) (model.Envelope, error)

	// Delete и Clear удаляют только локально.
	Delete(ctx context.Context, p model.Partition, key string) error
	Clear(ctx context.Context, p model.Partition) error
}

// CardRepository — операции партиции cards, нужные синхронизации.
type CardRepository interface {
	GetCard(ctx context.Context, id string) (*model.CardEnvelope, error)
	ListCards(ctx context.Context, q model.CardQuery) ([]model.CardEnvelope, error)
	ListDirtyCards(ctx context.Context) ([]model.CardEnvelope, error)
	// MarkCardSynced снимает dirty, только если updated_at не изменился с момента отправки.
	// Возвращает false, если карточку успели отредактировать или удалить.
	MarkCardSynced(ctx context.Context, id string, pushedUpdatedAt, syncedAt time.Time) (bool, error)
}

// CacheRepository — TTL-политика партиции cache.
type CacheRepository interface {
	SetCached(ctx context.Context, key string, payload any, ttl time.Duration) (*model.CacheEnvelope, error)
	ClearExpiredCache(ctx context.Context) (int, error)
}

// SessionRepository — скан сессий по типу.
type SessionRepository interface {
	ListSessions(ctx context.Context, sessionType string) ([]model.SessionEnvelope, error)
}

// Store объединяет все порты локального хранилища.
type Store interface {
	PartitionRepository
	CardRepository
	CacheRepository
	SessionRepository
}
