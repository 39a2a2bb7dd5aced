package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"CardKeeper/internal/cli/repo"
)

// TokenStore — файловое хранилище JWT шлюза.
type TokenStore struct {
	Path string
}

var _ repo.TokenStore = (*TokenStore)(nil)

// Save сохраняет токен в файл (0600).
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Load читает токен; отсутствующий или пустой файл — не ошибка.
func (s *TokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	return strings.TrimRight(string(b), " \t\r\n"), nil
}

// Clear удаляет файл токена (например, после 401 от шлюза).
func (s *TokenStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	return err
}
