package model

import (
	"encoding/json"
	"fmt"
	"time"

	"CardKeeper/internal/common"
)

// Envelope — хранимая обёртка над payload вызывающего кода.
// Реализации: CardEnvelope, SessionEnvelope, CacheEnvelope,
// PreferenceEnvelope, AppStateEnvelope.
type Envelope interface {
	Partition() Partition
	Key() string
	RawPayload() json.RawMessage
	Decode(v any) error
}

func decodePayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformed, err)
	}
	return nil
}

// CardEnvelope — запись партиции cards.
type CardEnvelope struct {
	ID        string
	Payload   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	Dirty     bool
	CreatorID string
	SyncedAt  *time.Time
}

func (e *CardEnvelope) Partition() Partition        { return PartitionCards }
func (e *CardEnvelope) Key() string                 { return e.ID }
func (e *CardEnvelope) RawPayload() json.RawMessage { return e.Payload }
func (e *CardEnvelope) Decode(v any) error          { return decodePayload(e.Payload, v) }

// Card decodes the payload as CardData. Mistyped optional fields are left
// empty, see DecodeCardData.
func (e *CardEnvelope) Card() (CardData, error) {
	c, _, err := DecodeCardData(e.Payload)
	return c, err
}

// SessionEnvelope — эфемерное состояние рабочего процесса (например, мастер создания карточки).
type SessionEnvelope struct {
	ID          string
	Payload     json.RawMessage
	SessionType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *SessionEnvelope) Partition() Partition        { return PartitionSessions }
func (e *SessionEnvelope) Key() string                 { return e.ID }
func (e *SessionEnvelope) RawPayload() json.RawMessage { return e.Payload }
func (e *SessionEnvelope) Decode(v any) error          { return decodePayload(e.Payload, v) }

// CacheEnvelope — запись кэша. ExpiresAt == nil означает бессрочную запись.
type CacheEnvelope struct {
	CacheKey  string
	Payload   json.RawMessage
	CreatedAt time.Time
	ExpiresAt *time.Time
}

func (e *CacheEnvelope) Partition() Partition        { return PartitionCache }
func (e *CacheEnvelope) Key() string                 { return e.CacheKey }
func (e *CacheEnvelope) RawPayload() json.RawMessage { return e.Payload }
func (e *CacheEnvelope) Decode(v any) error          { return decodePayload(e.Payload, v) }

// Expired reports whether the entry is logically absent at now.
func (e *CacheEnvelope) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// PreferenceEnvelope — настройки пользователя, одна запись на пользователя.
type PreferenceEnvelope struct {
	UserID    string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

func (e *PreferenceEnvelope) Partition() Partition        { return PartitionPreferences }
func (e *PreferenceEnvelope) Key() string                 { return e.UserID }
func (e *PreferenceEnvelope) RawPayload() json.RawMessage { return e.Payload }
func (e *PreferenceEnvelope) Decode(v any) error          { return decodePayload(e.Payload, v) }

// AppStateEnvelope — именованный синглтон состояния приложения.
type AppStateEnvelope struct {
	StateKey  string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

func (e *AppStateEnvelope) Partition() Partition        { return PartitionAppState }
func (e *AppStateEnvelope) Key() string                 { return e.StateKey }
func (e *AppStateEnvelope) RawPayload() json.RawMessage { return e.Payload }
func (e *AppStateEnvelope) Decode(v any) error          { return decodePayload(e.Payload, v) }

var (
	_ Envelope = (*CardEnvelope)(nil)
	_ Envelope = (*SessionEnvelope)(nil)
	_ Envelope = (*CacheEnvelope)(nil)
	_ Envelope = (*PreferenceEnvelope)(nil)
	_ Envelope = (*AppStateEnvelope)(nil)
)
