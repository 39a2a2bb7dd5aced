package store

import "time"

// Schema versions:
// 1 - cards, sessions, app_state
// 2 - cache (expires_at index), preferences
// 3 - cards.synced_at, cards creator index
const CurrentSchemaVersion = 3

const schemaVersionKey = "schema_version"

// SchemaMeta — служебная таблица с версией схемы.
type SchemaMeta struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

func (SchemaMeta) TableName() string { return "schema_meta" }

// Временные метки хранятся как unix-миллисекунды. Поля намеренно не называются
// CreatedAt/UpdatedAt: gorm заполнял бы их сам.

// CardRow — строка партиции cards.
type CardRow struct {
	ID        string `gorm:"primaryKey"`
	Payload   []byte `gorm:"not null"`
	Created   int64  `gorm:"column:created_at;not null;index:idx_cards_created_at"`
	Updated   int64  `gorm:"column:updated_at;not null;index:idx_cards_updated_at"`
	Dirty     bool   `gorm:"not null;index:idx_cards_dirty"`
	CreatorID string `gorm:"not null;index:idx_cards_creator_id"`
	SyncedAt  *int64 `gorm:"column:synced_at"`
}

func (CardRow) TableName() string { return "cards" }

// SessionRow — строка партиции sessions.
type SessionRow struct {
	ID          string `gorm:"primaryKey"`
	Payload     []byte `gorm:"not null"`
	SessionType string `gorm:"not null;index:idx_sessions_type"`
	Created     int64  `gorm:"column:created_at;not null;index:idx_sessions_created_at"`
	Updated     int64  `gorm:"column:updated_at;not null;index:idx_sessions_updated_at"`
}

func (SessionRow) TableName() string { return "sessions" }

// CacheRow — строка партиции cache. ExpiresAt == nil: запись без срока жизни.
type CacheRow struct {
	Key       string `gorm:"primaryKey"`
	Payload   []byte `gorm:"not null"`
	Created   int64  `gorm:"column:created_at;not null"`
	ExpiresAt *int64 `gorm:"column:expires_at;index:idx_cache_expires_at"`
}

func (CacheRow) TableName() string { return "cache" }

// PreferenceRow — настройки пользователя.
type PreferenceRow struct {
	UserID  string `gorm:"primaryKey"`
	Payload []byte `gorm:"not null"`
	Updated int64  `gorm:"column:updated_at;not null"`
}

func (PreferenceRow) TableName() string { return "preferences" }

// AppStateRow — именованное значение состояния приложения.
type AppStateRow struct {
	Key     string `gorm:"primaryKey"`
	Payload []byte `gorm:"not null"`
	Updated int64  `gorm:"column:updated_at;not null"`
}

func (AppStateRow) TableName() string { return "app_state" }

type schemaStep struct {
	Version int
	Models  []any
}

// schemaSteps are additive only: AutoMigrate creates missing tables, columns
// and indexes and never drops anything.
var schemaSteps = []schemaStep{
	{Version: 1, Models: []any{&CardRow{}, &SessionRow{}, &AppStateRow{}}},
	{Version: 2, Models: []any{&CacheRow{}, &PreferenceRow{}}},
	{Version: 3, Models: []any{&CardRow{}}},
}

// Millis converts t to the stored representation.
func Millis(t time.Time) int64 { return t.UnixMilli() }

// FromMillis converts a stored timestamp back to UTC time.
func FromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
