package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"CardKeeper/internal/common"
)

// LegacyStore — дамп старого key/value хранилища: один файл на ключ.
// Имена файлов — ключи в url.PathEscape, чтобы ключ с "/" не уходил в подкаталог.
type LegacyStore struct {
	Dir string
}

func (s *LegacyStore) path(key string) string {
	return filepath.Join(s.Dir, url.PathEscape(key))
}

// Keys returns all keys in sorted order. A missing directory means no legacy data.
func (s *LegacyStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy dir: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := url.PathUnescape(e.Name())
		if err != nil {
			// не наш файл
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Read returns the raw value; ErrNotFound if the key is absent.
func (s *LegacyStore) Read(key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("legacy key %q: %w", key, common.ErrNotFound)
	}
	return b, err
}

// Write is used by tests and tooling that produce legacy dumps.
func (s *LegacyStore) Write(key string, value []byte) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path(key), value, 0o600)
}

// Remove deletes the key. Removing a missing key is not an error.
func (s *LegacyStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	return err
}
