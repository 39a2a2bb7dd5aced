package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/repo"
	"CardKeeper/internal/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSyncTimeout = 10 * time.Second
	DefaultSyncWorkers = 2
)

// SyncResult — итог прохода синхронизации.
type SyncResult struct {
	Synced int
	Failed int
	Errors []error
}

// SyncEngine отправляет dirty-карточки в удалённое хранилище.
type SyncEngine struct {
	cards   repo.CardRepository
	remote  api.RemoteStore
	timeout time.Duration
	workers int
	log     *zap.SugaredLogger
	now     func() time.Time

	sweeps singleflight.Group
}

// SyncOption настраивает SyncEngine.
type SyncOption func(*SyncEngine)

// WithSyncTimeout ограничивает каждый удалённый вызов.
func WithSyncTimeout(d time.Duration) SyncOption {
	return func(e *SyncEngine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSyncWorkers задаёт число параллельных отправок в SyncAll.
func WithSyncWorkers(n int) SyncOption {
	return func(e *SyncEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithSyncClock подменяет источник времени для synced_at.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(e *SyncEngine) { e.now = now }
}

func NewSyncEngine(cards repo.CardRepository, remote api.RemoteStore, log *zap.SugaredLogger, opts ...SyncOption) *SyncEngine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &SyncEngine{
		cards:   cards,
		remote:  remote,
		timeout: DefaultSyncTimeout,
		workers: DefaultSyncWorkers,
		log:     log,
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SyncOne отправляет одну карточку. При ошибке карточка остаётся dirty;
// повтор — забота очереди или следующего прохода SyncAll.
func (e *SyncEngine) SyncOne(ctx context.Context, id string) error {
	env, err := e.cards.GetCard(ctx, id)
	if err != nil {
		return fmt.Errorf("sync %s: %w", id, err)
	}
	if env == nil {
		return fmt.Errorf("sync %s: %w", id, common.ErrNotFound)
	}
	if !env.Dirty {
		return nil
	}
	card, coerced, err := model.DecodeCardData(env.Payload)
	if err != nil {
		e.log.Errorw("card payload cannot be decoded, leaving dirty", "card_id", id, "error", err)
		return fmt.Errorf("sync %s: %w", id, err)
	}
	if len(coerced) > 0 {
		e.log.Warnw("card fields of unexpected type replaced by defaults", "card_id", id, "fields", coerced)
	}

	row := BuildRemoteRow(card, e.log)
	row.ID = env.ID
	if row.CreatorID == "" {
		row.CreatorID = env.CreatorID
	}
	row.CreatedAt = env.CreatedAt
	row.UpdatedAt = env.UpdatedAt

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.remote.UpsertCard(callCtx, row); err != nil {
		if !errors.Is(err, common.ErrRemoteUnavailable) {
			err = fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
		}
		e.log.Warnw("card sync failed", "card_id", id, "error", err)
		return fmt.Errorf("sync %s: %w", id, err)
	}

	ok, err := e.cards.MarkCardSynced(ctx, id, env.UpdatedAt, e.now())
	if err != nil {
		e.log.Errorw("failed to mark card synced", "card_id", id, "error", err)
		return fmt.Errorf("sync %s: %w", id, err)
	}
	if !ok {
		e.log.Debugw("card edited during sync, stays dirty", "card_id", id)
	}
	return nil
}

// SyncAll отправляет все dirty-карточки, не прерываясь на первой ошибке.
// Параллельные вызовы разделяют один проход.
func (e *SyncEngine) SyncAll(ctx context.Context) SyncResult {
	v, _, _ := e.sweeps.Do("sync_all", func() (any, error) {
		return e.syncAll(ctx), nil
	})
	res := v.(SyncResult)
	res.Errors = append([]error(nil), res.Errors...)
	return res
}

func (e *SyncEngine) syncAll(ctx context.Context) SyncResult {
	var res SyncResult
	dirty, err := e.cards.ListDirtyCards(ctx)
	if err != nil {
		e.log.Errorw("failed to list dirty cards", "error", err)
		res.Errors = append(res.Errors, err)
		return res
	}
	if len(dirty) == 0 {
		return res
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, c := range dirty {
		id := c.ID
		g.Go(func() error {
			err := e.SyncOne(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, err)
			} else {
				res.Synced++
			}
			return nil
		})
	}
	_ = g.Wait()

	e.log.Infow("sync sweep finished", "synced", res.Synced, "failed", res.Failed)
	return res
}
