package service

import (
	"context"
	"path/filepath"
	"testing"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/repo/sqlite"
	"CardKeeper/internal/cli/store"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// mockRemote — мок удалённого хранилища.
type mockRemote struct{ mock.Mock }

func (m *mockRemote) UpsertCard(ctx context.Context, row api.CardRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockRemote) DeleteCard(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func rowID(id string) any {
	return mock.MatchedBy(func(r api.CardRow) bool { return r.ID == id })
}

func newTestStore(t *testing.T) *sqlite.PartitionStore {
	t.Helper()
	o := store.NewOpener(filepath.Join(t.TempDir(), "client.sqlite"), "", zap.NewNop().Sugar())
	t.Cleanup(func() { _ = o.Close() })
	return sqlite.New(o, zap.NewNop().Sugar())
}
