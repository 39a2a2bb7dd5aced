package repo

// TokenStore описывает абстракцию хранилища auth-токена шлюза на клиенте.
type TokenStore interface {
	Save(token string) error
	// Load возвращает ("", nil), если токен ещё не сохранён.
	Load() (string, error)
	Clear() error
}
