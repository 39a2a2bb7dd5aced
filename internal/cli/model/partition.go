package model

import (
	"fmt"
	"time"

	"CardKeeper/internal/common"
)

// Partition — логическая таблица встроенного хранилища.
type Partition string

const (
	PartitionCards       Partition = "cards"
	PartitionSessions    Partition = "sessions"
	PartitionCache       Partition = "cache"
	PartitionPreferences Partition = "preferences"
	PartitionAppState    Partition = "app_state"
)

// Partitions lists every partition in schema order.
var Partitions = []Partition{
	PartitionCards,
	PartitionSessions,
	PartitionCache,
	PartitionPreferences,
	PartitionAppState,
}

// Validate returns ErrUnknownPartition for names outside the fixed set.
func (p Partition) Validate() error {
	for _, known := range Partitions {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", common.ErrUnknownPartition, string(p))
}

// SetOptions — параметры записи. Каждое поле имеет смысл только для своей партиции.
type SetOptions struct {
	// ExpiresIn задаёт TTL записи кэша. Ноль — без истечения.
	ExpiresIn time.Duration
	// NeedsSync помечает карточку как dirty. nil означает true.
	NeedsSync *bool
	// SessionType — тег типа сессии.
	SessionType string
	// CreatorID переопределяет автора карточки (иначе берётся из payload).
	CreatorID string
}

// SyncRequired reports the effective dirty flag for a card write.
func (o SetOptions) SyncRequired() bool {
	if o.NeedsSync == nil {
		return true
	}
	return *o.NeedsSync
}

// CardOrder — индекс, по которому сортируется скан карточек.
type CardOrder string

const (
	OrderByCreated CardOrder = "created"
	OrderByUpdated CardOrder = "updated"
)

// CardQuery — параметры упорядоченного скана партиции cards.
type CardQuery struct {
	OrderBy   CardOrder
	Desc      bool
	CreatorID string
	Limit     int
}
