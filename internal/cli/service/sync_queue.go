package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"CardKeeper/internal/common"

	"go.uber.org/zap"
)

// Pusher отправляет одну карточку. *SyncEngine подходит.
type Pusher interface {
	SyncOne(ctx context.Context, id string) error
}

// QueueConfig — параметры очереди фоновых отправок.
type QueueConfig struct {
	Workers     int
	Size        int
	MaxAttempts int
	// BaseDelay — пауза перед первым повтором, дальше удваивается.
	BaseDelay time.Duration
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = DefaultSyncWorkers
	}
	if c.Size <= 0 {
		c.Size = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	return c
}

// SyncQueue — ограниченная очередь отправок после локального сохранения.
// Повторные id, ещё не взятые в работу, схлопываются; при переполнении запрос
// отбрасывается (карточка остаётся dirty до следующего SyncAll).
type SyncQueue struct {
	pusher Pusher
	cfg    QueueConfig
	log    *zap.SugaredLogger

	ch chan string

	mu      sync.Mutex
	pending map[string]struct{}
	started bool
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSyncQueue(pusher Pusher, cfg QueueConfig, log *zap.SugaredLogger) *SyncQueue {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cfg = cfg.withDefaults()
	return &SyncQueue{
		pusher:  pusher,
		cfg:     cfg,
		log:     log,
		ch:      make(chan string, cfg.Size),
		pending: make(map[string]struct{}),
	}
}

// Start запускает воркеры. Повторный вызов ничего не делает.
func (q *SyncQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop останавливает воркеры и ждёт их завершения. Необработанные id
// остаются dirty в хранилище.
func (q *SyncQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
}

// Enqueue ставит карточку в очередь. Возвращает false, если запрос отброшен.
func (q *SyncQueue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	if _, ok := q.pending[id]; ok {
		return true
	}
	select {
	case q.ch <- id:
		q.pending[id] = struct{}{}
		return true
	default:
		q.log.Warnw("sync queue is full, push deferred to next sweep", "card_id", id)
		return false
	}
}

// Len returns the number of ids waiting for a worker.
func (q *SyncQueue) Len() int {
	return len(q.ch)
}

func (q *SyncQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.ch:
			// снимаем до отправки: правка во время push снова попадёт в очередь
			q.mu.Lock()
			delete(q.pending, id)
			q.mu.Unlock()
			q.push(ctx, id)
		}
	}
}

func (q *SyncQueue) push(ctx context.Context, id string) {
	delay := q.cfg.BaseDelay
	for attempt := 1; ; attempt++ {
		err := q.pusher.SyncOne(ctx, id)
		if err == nil {
			return
		}
		if !errors.Is(err, common.ErrRemoteUnavailable) || attempt >= q.cfg.MaxAttempts {
			q.log.Warnw("background push gave up", "card_id", id, "attempts", attempt, "error", err)
			return
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		delay *= 2
	}
}
