package fs

import (
	"os"
	"path/filepath"
	"testing"

	"CardKeeper/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_SaveLoad_TrimsWhitespace(t *testing.T) {
	st := &TokenStore{Path: filepath.Join(t.TempDir(), "cfg", "auth_token")}
	require.NoError(t, st.Save("tok-123"))

	// дописываем мусор в конец файла, чтобы проверить trim
	f, err := os.OpenFile(st.Path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, _ = f.WriteString("  \r\n")
	require.NoError(t, f.Close())

	tok, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestTokenStore_MissingAndClear(t *testing.T) {
	st := &TokenStore{Path: filepath.Join(t.TempDir(), "auth_token")}

	tok, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	assert.Error(t, st.Save(""))
	require.NoError(t, st.Save("t"))
	require.NoError(t, st.Clear())
	require.NoError(t, st.Clear(), "clear is idempotent")

	tok, err = st.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestLegacyStore_KeysReadRemove(t *testing.T) {
	st := &LegacyStore{Dir: filepath.Join(t.TempDir(), "legacy")}

	keys, err := st.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys, "missing dir means no legacy data")

	require.NoError(t, st.Write("cards", []byte(`[]`)))
	require.NoError(t, st.Write("user_cards_a/b", []byte(`[{"id":"1"}]`)))

	keys, err = st.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"cards", "user_cards_a/b"}, keys)

	b, err := st.Read("user_cards_a/b")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(b))

	require.NoError(t, st.Remove("cards"))
	require.NoError(t, st.Remove("cards"))
	_, err = st.Read("cards")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
