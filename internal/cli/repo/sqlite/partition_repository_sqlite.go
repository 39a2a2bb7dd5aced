package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/repo"
	"CardKeeper/internal/cli/store"
	"CardKeeper/internal/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleProvider лениво открывает встроенное хранилище. *store.Opener подходит.
type HandleProvider interface {
	Open(ctx context.Context) (*store.Handle, error)
}

// PartitionStore — реализация repo.Store поверх SQLite (gorm).
type PartitionStore struct {
	opener HandleProvider
	log    *zap.SugaredLogger
	now    func() time.Time
}

var _ repo.Store = (*PartitionStore)(nil)

// Option настраивает PartitionStore.
type Option func(*PartitionStore)

// WithClock подменяет источник времени (для тестов истечения кэша).
func WithClock(now func() time.Time) Option {
	return func(s *PartitionStore) { s.now = now }
}

// New creates the partition accessor. The store is opened on first use.
func New(opener HandleProvider, log *zap.SugaredLogger, opts ...Option) *PartitionStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &PartitionStore{opener: opener, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *PartitionStore) handle(ctx context.Context) (*store.Handle, error) {
	return s.opener.Open(ctx)
}

func codecFor(p model.Partition) (envelopeCodec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c, ok := codecs[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownPartition, string(p))
	}
	return c, nil
}

// byKey quotes the column name: "key" is an SQL keyword.
func byKey(column, key string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: column}, Value: key}
}

func marshalPayload(payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformed, err)
	}
	return b, nil
}

// Get читает запись партиции. Для cache просроченная запись удаляется в той же транзакции.
func (s *PartitionStore) Get(ctx context.Context, p model.Partition, key string) (model.Envelope, error) {
	codec, err := codecFor(p)
	if err != nil {
		return nil, err
	}
	h, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var env model.Envelope
	if p != model.PartitionCache {
		err = h.Read(ctx, func(tx *gorm.DB) error {
			env, err = codec.load(tx, key)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("get %s/%s: %w", p, key, err)
		}
		return env, nil
	}

	now := s.now()
	expired := false
	err = h.Write(ctx, func(tx *gorm.DB) error {
		loaded, err := codec.load(tx, key)
		if err != nil || loaded == nil {
			return err
		}
		if ce := loaded.(*model.CacheEnvelope); ce.Expired(now) {
			expired = true
			return tx.Where(byKey(codec.keyColumn(), key)).Delete(codec.row()).Error
		}
		env = loaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", p, key, err)
	}
	if expired {
		s.log.Debugw("evicted expired cache entry on read", "key", key)
	}
	return env, nil
}

// Set перезаписывает запись целиком: без слияния и без проверки версии.
func (s *PartitionStore) Set(ctx context.Context, p model.Partition, key string, payload any, opts model.SetOptions) (model.Envelope, error) {
	codec, err := codecFor(p)
	if err != nil {
		return nil, err
	}
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	h, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var env model.Envelope
	err = h.Write(ctx, func(tx *gorm.DB) error {
		row, built, err := codec.build(tx, key, raw, opts, now)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
			return err
		}
		env = built
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set %s/%s: %w", p, key, err)
	}
	return env, nil
}

// Delete удаляет запись локально. Удалённое хранилище не трогается.
func (s *PartitionStore) Delete(ctx context.Context, p model.Partition, key string) error {
	codec, err := codecFor(p)
	if err != nil {
		return err
	}
	h, err := s.handle(ctx)
	if err != nil {
		return err
	}
	err = h.Write(ctx, func(tx *gorm.DB) error {
		return tx.Where(byKey(codec.keyColumn(), key)).Delete(codec.row()).Error
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", p, key, err)
	}
	return nil
}

// Clear удаляет все записи партиции.
func (s *PartitionStore) Clear(ctx context.Context, p model.Partition) error {
	codec, err := codecFor(p)
	if err != nil {
		return err
	}
	h, err := s.handle(ctx)
	if err != nil {
		return err
	}
	err = h.Write(ctx, func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(codec.row()).Error
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", p, err)
	}
	s.log.Infow("partition cleared", "partition", p)
	return nil
}
