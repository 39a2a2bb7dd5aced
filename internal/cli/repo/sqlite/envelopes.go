package sqlite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/cli/store"
	"CardKeeper/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// envelopeCodec строит и читает конверт одной партиции.
type envelopeCodec interface {
	// build возвращает строку для upsert и соответствующий ей конверт.
	build(tx *gorm.DB, key string, payload []byte, opts model.SetOptions, now time.Time) (any, model.Envelope, error)
	// load возвращает (nil, nil), если записи нет.
	load(tx *gorm.DB, key string) (model.Envelope, error)
	row() any
	keyColumn() string
}

var codecs = map[model.Partition]envelopeCodec{
	model.PartitionCards:       cardCodec{},
	model.PartitionSessions:    sessionCodec{},
	model.PartitionCache:       cacheCodec{},
	model.PartitionPreferences: preferenceCodec{},
	model.PartitionAppState:    appStateCodec{},
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", common.ErrMalformed)
	}
	return nil
}

func findOne[T any](tx *gorm.DB, column, key string) (*T, error) {
	var rows []T
	if err := tx.Where(byKey(column, key)).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// --- cards ---

type cardCodec struct{}

func (cardCodec) row() any          { return &store.CardRow{} }
func (cardCodec) keyColumn() string { return "id" }

// creatorFromPayload достаёт автора из payload карточки, если он там есть.
func creatorFromPayload(payload []byte) string {
	var head struct {
		CreatorID      string `json:"creator_id"`
		CreatorIDCamel string `json:"creatorId"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return ""
	}
	if head.CreatorID != "" {
		return head.CreatorID
	}
	return head.CreatorIDCamel
}

func (cardCodec) build(tx *gorm.DB, key string, payload []byte, opts model.SetOptions, now time.Time) (any, model.Envelope, error) {
	if err := requireKey(key); err != nil {
		return nil, nil, err
	}
	prev, err := findOne[store.CardRow](tx, "id", key)
	if err != nil {
		return nil, nil, err
	}
	row := &store.CardRow{
		ID:        key,
		Payload:   payload,
		Created:   store.Millis(now),
		Updated:   store.Millis(now),
		Dirty:     opts.SyncRequired(),
		CreatorID: opts.CreatorID,
	}
	if row.CreatorID == "" {
		row.CreatorID = creatorFromPayload(payload)
	}
	if prev != nil {
		row.Created = prev.Created
		// updated_at строго растёт: по нему MarkCardSynced отличает правку, сделанную во время отправки.
		if row.Updated <= prev.Updated {
			row.Updated = prev.Updated + 1
		}
	}
	if !row.Dirty {
		synced := row.Updated
		row.SyncedAt = &synced
	}
	return row, cardEnvelope(row), nil
}

func (cardCodec) load(tx *gorm.DB, key string) (model.Envelope, error) {
	row, err := findOne[store.CardRow](tx, "id", key)
	if err != nil || row == nil {
		return nil, err
	}
	return cardEnvelope(row), nil
}

func cardEnvelope(r *store.CardRow) *model.CardEnvelope {
	env := &model.CardEnvelope{
		ID:        r.ID,
		Payload:   json.RawMessage(r.Payload),
		CreatedAt: store.FromMillis(r.Created),
		UpdatedAt: store.FromMillis(r.Updated),
		Dirty:     r.Dirty,
		CreatorID: r.CreatorID,
	}
	if r.SyncedAt != nil {
		t := store.FromMillis(*r.SyncedAt)
		env.SyncedAt = &t
	}
	return env
}

// --- sessions ---

type sessionCodec struct{}

func (sessionCodec) row() any          { return &store.SessionRow{} }
func (sessionCodec) keyColumn() string { return "id" }

func (sessionCodec) build(tx *gorm.DB, key string, payload []byte, opts model.SetOptions, now time.Time) (any, model.Envelope, error) {
	if strings.TrimSpace(key) == "" {
		key = uuid.NewString()
	}
	row := &store.SessionRow{
		ID:          key,
		Payload:     payload,
		SessionType: opts.SessionType,
		Created:     store.Millis(now),
		Updated:     store.Millis(now),
	}
	prev, err := findOne[store.SessionRow](tx, "id", key)
	if err != nil {
		return nil, nil, err
	}
	if prev != nil {
		row.Created = prev.Created
	}
	return row, sessionEnvelope(row), nil
}

func (sessionCodec) load(tx *gorm.DB, key string) (model.Envelope, error) {
	row, err := findOne[store.SessionRow](tx, "id", key)
	if err != nil || row == nil {
		return nil, err
	}
	return sessionEnvelope(row), nil
}

func sessionEnvelope(r *store.SessionRow) *model.SessionEnvelope {
	return &model.SessionEnvelope{
		ID:          r.ID,
		Payload:     json.RawMessage(r.Payload),
		SessionType: r.SessionType,
		CreatedAt:   store.FromMillis(r.Created),
		UpdatedAt:   store.FromMillis(r.Updated),
	}
}

// --- cache ---

type cacheCodec struct{}

func (cacheCodec) row() any          { return &store.CacheRow{} }
func (cacheCodec) keyColumn() string { return "key" }

func (cacheCodec) build(_ *gorm.DB, key string, payload []byte, opts model.SetOptions, now time.Time) (any, model.Envelope, error) {
	if err := requireKey(key); err != nil {
		return nil, nil, err
	}
	row := &store.CacheRow{Key: key, Payload: payload, Created: store.Millis(now)}
	if opts.ExpiresIn > 0 {
		exp := store.Millis(now.Add(opts.ExpiresIn))
		row.ExpiresAt = &exp
	}
	return row, cacheEnvelope(row), nil
}

func (cacheCodec) load(tx *gorm.DB, key string) (model.Envelope, error) {
	row, err := findOne[store.CacheRow](tx, "key", key)
	if err != nil || row == nil {
		return nil, err
	}
	return cacheEnvelope(row), nil
}

func cacheEnvelope(r *store.CacheRow) *model.CacheEnvelope {
	env := &model.CacheEnvelope{
		CacheKey:  r.Key,
		Payload:   json.RawMessage(r.Payload),
		CreatedAt: store.FromMillis(r.Created),
	}
	if r.ExpiresAt != nil {
		t := store.FromMillis(*r.ExpiresAt)
		env.ExpiresAt = &t
	}
	return env
}

// --- preferences ---

type preferenceCodec struct{}

func (preferenceCodec) row() any          { return &store.PreferenceRow{} }
func (preferenceCodec) keyColumn() string { return "user_id" }

func (preferenceCodec) build(_ *gorm.DB, key string, payload []byte, _ model.SetOptions, now time.Time) (any, model.Envelope, error) {
	if err := requireKey(key); err != nil {
		return nil, nil, err
	}
	// настройки — всегда JSON-объект
	if !bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		return nil, nil, fmt.Errorf("%w: preferences payload must be an object", common.ErrMalformed)
	}
	row := &store.PreferenceRow{UserID: key, Payload: payload, Updated: store.Millis(now)}
	return row, preferenceEnvelope(row), nil
}

func (preferenceCodec) load(tx *gorm.DB, key string) (model.Envelope, error) {
	row, err := findOne[store.PreferenceRow](tx, "user_id", key)
	if err != nil || row == nil {
		return nil, err
	}
	return preferenceEnvelope(row), nil
}

func preferenceEnvelope(r *store.PreferenceRow) *model.PreferenceEnvelope {
	return &model.PreferenceEnvelope{
		UserID:    r.UserID,
		Payload:   json.RawMessage(r.Payload),
		UpdatedAt: store.FromMillis(r.Updated),
	}
}

// --- app_state ---

type appStateCodec struct{}

func (appStateCodec) row() any          { return &store.AppStateRow{} }
func (appStateCodec) keyColumn() string { return "key" }

func (appStateCodec) build(_ *gorm.DB, key string, payload []byte, _ model.SetOptions, now time.Time) (any, model.Envelope, error) {
	if err := requireKey(key); err != nil {
		return nil, nil, err
	}
	row := &store.AppStateRow{Key: key, Payload: payload, Updated: store.Millis(now)}
	return row, appStateEnvelope(row), nil
}

func (appStateCodec) load(tx *gorm.DB, key string) (model.Envelope, error) {
	row, err := findOne[store.AppStateRow](tx, "key", key)
	if err != nil || row == nil {
		return nil, err
	}
	return appStateEnvelope(row), nil
}

func appStateEnvelope(r *store.AppStateRow) *model.AppStateEnvelope {
	return &model.AppStateEnvelope{
		StateKey:  r.Key,
		Payload:   json.RawMessage(r.Payload),
		UpdatedAt: store.FromMillis(r.Updated),
	}
}
