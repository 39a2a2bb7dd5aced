package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/store"
	"CardKeeper/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock — управляемое время для проверок TTL.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*PartitionStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	o := store.NewOpener(filepath.Join(t.TempDir(), "client.sqlite"), "", zap.NewNop().Sugar())
	t.Cleanup(func() { _ = o.Close() })
	return New(o, zap.NewNop().Sugar(), WithClock(clock.Now)), clock
}

func boolPtr(b bool) *bool { return &b }

func TestPartitionStore_RoundTripAllPartitions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		p       model.Partition
		key     string
		payload any
		opts    model.SetOptions
	}{
		{model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "Dragon"}, model.SetOptions{}},
		{model.PartitionSessions, "card_wizard", map[string]any{"step": 2}, model.SetOptions{SessionType: "wizard"}},
		{model.PartitionCache, "feed", []string{"a", "b"}, model.SetOptions{ExpiresIn: time.Minute}},
		{model.PartitionPreferences, "u1", map[string]any{"theme": "dark"}, model.SetOptions{}},
		{model.PartitionAppState, "theme_preference", "dark", model.SetOptions{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.p), func(t *testing.T) {
			written, err := s.Set(ctx, tc.p, tc.key, tc.payload, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.p, written.Partition())
			assert.Equal(t, tc.key, written.Key())

			got, err := s.Get(ctx, tc.p, tc.key)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.JSONEq(t, string(written.RawPayload()), string(got.RawPayload()))
		})
	}
}

func TestPartitionStore_GetMissingReturnsNil(t *testing.T) {
	s, _ := newTestStore(t)
	for _, p := range model.Partitions {
		env, err := s.Get(context.Background(), p, "nope")
		require.NoError(t, err)
		assert.Nil(t, env, p)
	}
}

func TestPartitionStore_UnknownPartition(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "users", "k")
	assert.ErrorIs(t, err, common.ErrUnknownPartition)
	_, err = s.Set(ctx, "users", "k", 1, model.SetOptions{})
	assert.ErrorIs(t, err, common.ErrUnknownPartition)
	assert.ErrorIs(t, s.Delete(ctx, "users", "k"), common.ErrUnknownPartition)
	assert.ErrorIs(t, s.Clear(ctx, "users"), common.ErrUnknownPartition)
}

func TestPartitionStore_Malformed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, model.PartitionAppState, "bad", func() {}, model.SetOptions{})
	assert.ErrorIs(t, err, common.ErrMalformed)

	_, err = s.Set(ctx, model.PartitionCards, "", map[string]any{"title": "x"}, model.SetOptions{})
	assert.ErrorIs(t, err, common.ErrMalformed)

	_, err = s.Set(ctx, model.PartitionPreferences, "u1", []int{1, 2}, model.SetOptions{})
	assert.ErrorIs(t, err, common.ErrMalformed)

	// сессия без ключа получает сгенерированный id
	env, err := s.Set(ctx, model.PartitionSessions, "", map[string]any{"step": 1}, model.SetOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, env.Key())
}

func TestPartitionStore_CardDirtyFlags(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	env, err := s.Set(ctx, model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "A", "creator_id": "u1"}, model.SetOptions{})
	require.NoError(t, err)
	card := env.(*model.CardEnvelope)
	assert.True(t, card.Dirty)
	assert.Nil(t, card.SyncedAt)
	assert.Equal(t, "u1", card.CreatorID)
	created := card.CreatedAt

	clock.Advance(time.Second)
	env, err = s.Set(ctx, model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "B"}, model.SetOptions{NeedsSync: boolPtr(false), CreatorID: "u2"})
	require.NoError(t, err)
	card = env.(*model.CardEnvelope)
	assert.False(t, card.Dirty)
	require.NotNil(t, card.SyncedAt)
	assert.Equal(t, "u2", card.CreatorID)
	assert.Equal(t, created, card.CreatedAt, "createdAt is preserved on overwrite")
	assert.True(t, card.UpdatedAt.After(created))

	dirty, err := s.ListDirtyCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestPartitionStore_UpdatedAtStrictlyIncreases(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Set(ctx, model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "A"}, model.SetOptions{})
	require.NoError(t, err)
	// часы стоят на месте
	second, err := s.Set(ctx, model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "B"}, model.SetOptions{})
	require.NoError(t, err)

	assert.True(t, second.(*model.CardEnvelope).UpdatedAt.After(first.(*model.CardEnvelope).UpdatedAt))
}

func TestPartitionStore_MarkCardSyncedGuard(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	env, err := s.Set(ctx, model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "A"}, model.SetOptions{})
	require.NoError(t, err)
	pushed := env.(*model.CardEnvelope).UpdatedAt

	// правка во время отправки
	clock.Advance(time.Second)
	_, err = s.Set(ctx, model.PartitionCards, "c1", map[string]any{"id": "c1", "title": "A2"}, model.SetOptions{})
	require.NoError(t, err)

	ok, err := s.MarkCardSynced(ctx, "c1", pushed, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	card, err := s.GetCard(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, card.Dirty)

	ok, err = s.MarkCardSynced(ctx, "c1", card.UpdatedAt, clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	card, err = s.GetCard(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, card.Dirty)
	require.NotNil(t, card.SyncedAt)

	ok, err = s.MarkCardSynced(ctx, "missing", pushed, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPartitionStore_ListCardsOrdering(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Set(ctx, model.PartitionCards, id, map[string]any{"id": id, "title": id}, model.SetOptions{CreatorID: "u1"})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	// "a" правится последней
	_, err := s.Set(ctx, model.PartitionCards, "a", map[string]any{"id": "a", "title": "a2"}, model.SetOptions{CreatorID: "u2"})
	require.NoError(t, err)

	ids := func(list []model.CardEnvelope) []string {
		out := make([]string, 0, len(list))
		for _, c := range list {
			out = append(out, c.ID)
		}
		return out
	}

	byCreated, err := s.ListCards(ctx, model.CardQuery{OrderBy: model.OrderByCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(byCreated))

	byUpdated, err := s.ListCards(ctx, model.CardQuery{OrderBy: model.OrderByUpdated, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(byUpdated))

	mine, err := s.ListCards(ctx, model.CardQuery{CreatorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(mine))

	limited, err := s.ListCards(ctx, model.CardQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPartitionStore_CacheExpiryBoundary(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	_, err := s.SetCached(ctx, "k", "v", time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute - time.Millisecond)
	env, err := s.Get(ctx, model.PartitionCache, "k")
	require.NoError(t, err)
	require.NotNil(t, env, "still alive one ms before expiry")

	clock.Advance(time.Millisecond)
	env, err = s.Get(ctx, model.PartitionCache, "k")
	require.NoError(t, err)
	assert.Nil(t, env, "expiresAt == now is expired")

	// ленивое удаление убрало запись физически
	removed, err := s.ClearExpiredCache(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPartitionStore_CacheWithoutTTLNeverExpires(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	env, err := s.SetCached(ctx, "forever", 1, 0)
	require.NoError(t, err)
	assert.Nil(t, env.ExpiresAt)

	clock.Advance(365 * 24 * time.Hour)
	got, err := s.Get(ctx, model.PartitionCache, "forever")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestPartitionStore_ClearExpiredCache(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	_, err := s.SetCached(ctx, "short1", 1, time.Second)
	require.NoError(t, err)
	_, err = s.SetCached(ctx, "short2", 2, time.Second)
	require.NoError(t, err)
	_, err = s.SetCached(ctx, "long", 3, time.Hour)
	require.NoError(t, err)
	_, err = s.SetCached(ctx, "forever", 4, 0)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	removed, err := s.ClearExpiredCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, k := range []string{"long", "forever"} {
		env, err := s.Get(ctx, model.PartitionCache, k)
		require.NoError(t, err)
		assert.NotNil(t, env, k)
	}
}

func TestPartitionStore_DeleteAndClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		_, err := s.Set(ctx, model.PartitionAppState, k, k, model.SetOptions{})
		require.NoError(t, err)
	}
	require.NoError(t, s.Delete(ctx, model.PartitionAppState, "a"))
	require.NoError(t, s.Delete(ctx, model.PartitionAppState, "a"), "deleting a missing key is a no-op")

	env, err := s.Get(ctx, model.PartitionAppState, "a")
	require.NoError(t, err)
	assert.Nil(t, env)

	require.NoError(t, s.Clear(ctx, model.PartitionAppState))
	env, err = s.Get(ctx, model.PartitionAppState, "b")
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestPartitionStore_ListSessions(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, model.PartitionSessions, "w1", map[string]any{"step": 1}, model.SetOptions{SessionType: "wizard"})
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = s.Set(ctx, model.PartitionSessions, "w2", map[string]any{"step": 3}, model.SetOptions{SessionType: "wizard"})
	require.NoError(t, err)
	_, err = s.Set(ctx, model.PartitionSessions, "e1", map[string]any{}, model.SetOptions{SessionType: "editor"})
	require.NoError(t, err)

	wizards, err := s.ListSessions(ctx, "wizard")
	require.NoError(t, err)
	require.Len(t, wizards, 2)
	assert.Equal(t, "w2", wizards[0].ID)

	all, err := s.ListSessions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPartitionStore_StorageUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	o := store.NewOpener(filepath.Join(blocker, "sub", "client.sqlite"), "", zap.NewNop().Sugar())
	s := New(o, nil)

	_, err := s.Get(context.Background(), model.PartitionCards, "c1")
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	_, err = s.Set(context.Background(), model.PartitionCards, "c1", map[string]any{}, model.SetOptions{})
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}
