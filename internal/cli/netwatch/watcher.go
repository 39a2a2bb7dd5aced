// Package netwatch следит за доступностью удалённого хранилища и сообщает
// о переходах offline → online.
package netwatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultInterval = 3 * time.Second
	DefaultTimeout  = 3 * time.Second
)

// PingFunc проверяет доступность. nil — доступно.
type PingFunc func(ctx context.Context) error

// Watcher периодически вызывает ping. До первой успешной проверки
// считается offline, поэтому первая успешная проверка тоже даёт событие.
type Watcher struct {
	ping     PingFunc
	interval time.Duration
	timeout  time.Duration
	log      *zap.SugaredLogger

	online atomic.Bool
	events chan struct{}

	setMu sync.Mutex
}

func New(ping PingFunc, interval, timeout time.Duration, log *zap.SugaredLogger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Watcher{
		ping:     ping,
		interval: interval,
		timeout:  timeout,
		log:      log,
		events:   make(chan struct{}, 1),
	}
}

// Online returns a channel that receives a value on every offline → online
// transition. Transitions that nobody consumed yet are coalesced.
func (w *Watcher) Online() <-chan struct{} { return w.events }

// IsOnline reports the result of the last check.
func (w *Watcher) IsOnline() bool { return w.online.Load() }

// Run проверяет сразу, затем каждые Interval, пока ctx не отменён.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.ping(pingCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}
	w.Set(err == nil)
	if err != nil {
		w.log.Debugw("remote ping failed", "error", err)
	}
}

// Set records reachability from an external source (for example an OS
// network event). Going online emits a transition; the result reports
// whether this call did so.
func (w *Watcher) Set(online bool) bool {
	w.setMu.Lock()
	defer w.setMu.Unlock()
	was := w.online.Swap(online)
	if was == online {
		return false
	}
	if !online {
		w.log.Infow("remote store went offline")
		return false
	}
	w.log.Infow("remote store is back online")
	select {
	case w.events <- struct{}{}:
	default:
	}
	return true
}
