// Package bootstrap собирает хранилище, миграцию и синхронизацию в один
// объект с явным жизненным циклом.
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/migrate"
	"CardKeeper/internal/cli/netwatch"
	"CardKeeper/internal/cli/repo"
	reposqlite "CardKeeper/internal/cli/repo/sqlite"
	"CardKeeper/internal/cli/service"
	"CardKeeper/internal/cli/store"
	"CardKeeper/internal/common"

	"go.uber.org/zap"
)

// Config — расписание фоновых задач.
type Config struct {
	MigrationDelay      time.Duration
	CacheSweepInterval  time.Duration
	SyncInterval        time.Duration // 0 отключает периодический SyncAll
	OnlineCheckInterval time.Duration
	SyncTimeout         time.Duration
	DedupPolicy         migrate.DedupPolicy
	Queue               service.QueueConfig
}

// Deps — внешние зависимости контроллера. Legacy и Remote могут быть nil:
// тогда миграция или синхронизация не выполняются.
type Deps struct {
	Opener *store.Opener
	Legacy migrate.LegacySource
	Remote api.RemoteStore
	Log    *zap.SugaredLogger
	// Now подменяет часы хранилища (тесты).
	Now func() time.Time
}

// Diagnostics — сводное состояние для отладки и телеметрии.
type Diagnostics struct {
	StoreOpened    bool
	Degraded       bool
	SchemaVersion  int
	Migration      *migrate.Result
	LastSync       *service.SyncResult
	LastSyncAt     time.Time
	SyncRuns       int
	CacheEvicted   int // сумма удалённых истёкших записей кэша с начала работы
	LastCacheSweep time.Time
	Online         bool
	QueueLen       int
}

// Controller владеет хранилищем и фоновыми задачами. Хранилище открывается
// лениво, при первом обращении к Cards или Partitions.
type Controller struct {
	cfg    Config
	opener *store.Opener
	log    *zap.SugaredLogger

	partitions *reposqlite.PartitionStore
	cards      *service.CardService
	engine     *service.SyncEngine
	queue      *service.SyncQueue
	migrator   *migrate.Migrator
	watcher    *netwatch.Watcher

	notify chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce     sync.Once
	stopOnce      sync.Once
	migrationOnce sync.Once

	mu      sync.Mutex
	stopped bool
	diag    Diagnostics
}

// NewController wires the engine. Nothing is opened or started here.
func NewController(cfg Config, deps Deps) *Controller {
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.CacheSweepInterval <= 0 {
		cfg.CacheSweepInterval = 5 * time.Minute
	}
	if cfg.MigrationDelay < 0 {
		cfg.MigrationDelay = 0
	}

	var storeOpts []reposqlite.Option
	if deps.Now != nil {
		storeOpts = append(storeOpts, reposqlite.WithClock(deps.Now))
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:        cfg,
		opener:     deps.Opener,
		log:        log,
		partitions: reposqlite.New(deps.Opener, log, storeOpts...),
		notify:     make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	if deps.Remote != nil {
		c.engine = service.NewSyncEngine(c.partitions, deps.Remote, log,
			service.WithSyncTimeout(cfg.SyncTimeout),
			service.WithSyncWorkers(cfg.Queue.Workers),
		)
		c.queue = service.NewSyncQueue(c.engine, cfg.Queue, log)
		c.watcher = netwatch.New(deps.Remote.Ping, cfg.OnlineCheckInterval, cfg.SyncTimeout, log)
	}
	var enq service.Enqueuer
	if c.queue != nil {
		enq = c.queue
	}
	c.cards = service.NewCardService(c.partitions, enq, deps.Remote, cfg.SyncTimeout, log)
	if deps.Legacy != nil {
		c.migrator = migrate.NewMigrator(deps.Legacy, c.partitions, cfg.DedupPolicy, log)
	}
	return c
}

// Start запускает фоновые задачи. Повторный вызов ничего не делает.
// Остановка — только через Stop.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		if c.isStopped() {
			return
		}
		// внешний ctx тоже останавливает фоновые задачи
		c.goTask(func() {
			select {
			case <-ctx.Done():
				c.cancel()
			case <-c.ctx.Done():
			}
		})
		if c.queue != nil {
			c.queue.Start(c.ctx)
		}
		c.goTask(c.sweepLoop)
		if c.engine != nil {
			c.goTask(func() { c.watcher.Run(c.ctx) })
			c.goTask(c.onlineLoop)
			if c.cfg.SyncInterval > 0 {
				c.goTask(c.syncLoop)
			}
		}
		c.log.Infow("controller started",
			"sync_enabled", c.engine != nil,
			"migration_enabled", c.migrator != nil,
		)
	})
}

// Stop останавливает фоновые задачи, дожидается их и закрывает хранилище.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()

		c.cancel()
		if c.queue != nil {
			c.queue.Stop()
		}
		c.wg.Wait()
		if err := c.opener.Close(); err != nil {
			c.log.Warnw("failed to close local store", "error", err)
		}
		c.log.Infow("controller stopped")
	})
}

func (c *Controller) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Controller) goTask(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// ensureOpen открывает хранилище и после первого успешного открытия
// планирует миграцию.
func (c *Controller) ensureOpen(ctx context.Context) error {
	if c.isStopped() {
		return fmt.Errorf("%w: controller stopped", common.ErrStorageUnavailable)
	}
	h, err := c.opener.Open(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.diag.StoreOpened = true
	c.diag.Degraded = h.Degraded()
	c.diag.SchemaVersion = h.SchemaVersion()
	c.mu.Unlock()
	c.scheduleMigration()
	return nil
}

func (c *Controller) scheduleMigration() {
	if c.migrator == nil {
		return
	}
	c.migrationOnce.Do(func() {
		c.goTask(func() {
			t := time.NewTimer(c.cfg.MigrationDelay)
			defer t.Stop()
			select {
			case <-c.ctx.Done():
				return
			case <-t.C:
			}
			res := c.migrator.Run(c.ctx)
			c.mu.Lock()
			c.diag.Migration = &res
			c.mu.Unlock()
		})
	})
}

// MigrateNow запускает миграцию немедленно, не дожидаясь задержки.
// Повторные вызовы возвращают результат первого прогона с AlreadyAttempted.
func (c *Controller) MigrateNow(ctx context.Context) (migrate.Result, error) {
	if c.migrator == nil {
		return migrate.Result{}, fmt.Errorf("%w: no legacy source configured", common.ErrNotFound)
	}
	if err := c.ensureOpen(ctx); err != nil {
		return migrate.Result{}, err
	}
	res := c.migrator.Run(ctx)
	c.mu.Lock()
	if c.diag.Migration == nil {
		c.diag.Migration = &res
	}
	c.mu.Unlock()
	return res, nil
}

// Cards returns the card service, opening the store on first use.
func (c *Controller) Cards(ctx context.Context) (*service.CardService, error) {
	if err := c.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return c.cards, nil
}

// Partitions returns the raw partition accessor, opening the store on first use.
func (c *Controller) Partitions(ctx context.Context) (repo.Store, error) {
	if err := c.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return c.partitions, nil
}

// NotifyOnline передаёт сигнал «сеть вернулась» от окружения. Запускает
// ровно один SyncAll: либо через переход watcher в online, либо через notify.
func (c *Controller) NotifyOnline() {
	if c.watcher != nil && c.watcher.Set(true) {
		return
	}
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// SyncNow runs a sweep synchronously. Without a remote store it is a no-op.
func (c *Controller) SyncNow(ctx context.Context) service.SyncResult {
	if c.engine == nil {
		return service.SyncResult{}
	}
	if err := c.ensureOpen(ctx); err != nil {
		return service.SyncResult{Errors: []error{err}}
	}
	res := c.engine.SyncAll(ctx)
	c.mu.Lock()
	c.diag.LastSync = &res
	c.diag.LastSyncAt = time.Now()
	c.diag.SyncRuns++
	c.mu.Unlock()
	return res
}

// Diagnostics returns a snapshot of the controller state.
func (c *Controller) Diagnostics() Diagnostics {
	c.mu.Lock()
	d := c.diag
	c.mu.Unlock()
	if c.watcher != nil {
		d.Online = c.watcher.IsOnline()
	}
	if c.queue != nil {
		d.QueueLen = c.queue.Len()
	}
	return d
}

func (c *Controller) sweepLoop() {
	ticker := time.NewTicker(c.cfg.CacheSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			// хранилище ещё не нужно никому: не открываем его ради уборки
			if !c.opener.Opened() {
				continue
			}
			n, err := c.partitions.ClearExpiredCache(c.ctx)
			if err != nil {
				c.log.Warnw("cache sweep failed", "error", err)
				continue
			}
			c.mu.Lock()
			c.diag.CacheEvicted += n
			c.diag.LastCacheSweep = time.Now()
			c.mu.Unlock()
		}
	}
}

func (c *Controller) onlineLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.watcher.Online():
		case <-c.notify:
		}
		res := c.SyncNow(c.ctx)
		c.log.Infow("reconnect sync", "synced", res.Synced, "failed", res.Failed)
	}
}

func (c *Controller) syncLoop() {
	ticker := time.NewTicker(c.cfg.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.SyncNow(c.ctx)
		}
	}
}
