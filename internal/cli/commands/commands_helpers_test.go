package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/bootstrap"
	"CardKeeper/internal/cli/repo/fs"
	"CardKeeper/internal/cli/service"
	"CardKeeper/internal/cli/store"
	"CardKeeper/internal/config"

	"go.uber.org/zap"
)

// fakeRemote — шлюз в памяти.
type fakeRemote struct {
	mu      sync.Mutex
	rows    map[string]api.CardRow
	deleted []string
	down    bool
	authed  int
}

func newFakeRemote() *fakeRemote { return &fakeRemote{rows: map[string]api.CardRow{}} }

func (r *fakeRemote) UpsertCard(_ context.Context, row api.CardRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errors.New("offline")
	}
	r.rows[row.ID] = row
	return nil
}

func (r *fakeRemote) DeleteCard(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRemote) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errors.New("offline")
	}
	return nil
}

func (r *fakeRemote) Authenticate(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return "", errors.New("offline")
	}
	r.authed++
	return "tok", nil
}

// newTestApp собирает App поверх временного каталога.
func newTestApp(t *testing.T, remote api.RemoteStore) (*App, *fs.LegacyStore) {
	t.Helper()
	dir := t.TempDir()
	legacy := &fs.LegacyStore{Dir: filepath.Join(dir, "legacy")}
	log := zap.NewNop().Sugar()
	ctrl := bootstrap.NewController(bootstrap.Config{
		MigrationDelay:      time.Hour,
		CacheSweepInterval:  time.Hour,
		OnlineCheckInterval: time.Hour,
		SyncTimeout:         time.Second,
		Queue:               service.QueueConfig{Workers: 1, MaxAttempts: 1, BaseDelay: time.Millisecond},
	}, bootstrap.Deps{
		Opener: store.NewOpener(filepath.Join(dir, "client.sqlite"), "", log),
		Legacy: legacy,
		Remote: remote,
		Log:    log,
	})
	app := &App{Cfg: &config.Config{}, Controller: ctrl, Remote: remote, Log: log}
	t.Cleanup(app.Close)
	return app, legacy
}

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}
