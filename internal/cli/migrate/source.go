package migrate

import (
	"fmt"
	"strings"
)

// LegacySource — старое key/value хранилище, из которого переносятся данные.
// Реализация на файлах: fs.LegacyStore.
type LegacySource interface {
	Keys() ([]string, error)
	Read(key string) ([]byte, error)
	Remove(key string) error
}

// Известные ключи старого хранилища.
const (
	KeyCards         = "cards"
	KeyUserCardsPref = "user_cards_"
	KeyProfiles      = "profiles"
	KeyWizardState   = "card_wizard_state"

	// WizardSessionKey — ключ состояния мастера в партиции sessions.
	WizardSessionKey  = "card_wizard"
	WizardSessionType = "wizard"
)

// PreferenceKeys are legacy blobs copied as-is into app_state.
var PreferenceKeys = []string{
	"theme_preference",
	"card_templates",
	"editor_settings",
	"recent_searches",
}

type locationKind int

const (
	kindUnknown locationKind = iota
	kindCards
	kindUserCards
	kindProfiles
	kindWizard
	kindPreference
)

// location — распознанный ключ старого хранилища.
type location struct {
	key  string
	kind locationKind
	// userID для user_cards_<userID>
	userID string
}

func classify(key string) location {
	switch {
	case key == KeyCards:
		return location{key: key, kind: kindCards}
	case strings.HasPrefix(key, KeyUserCardsPref) && len(key) > len(KeyUserCardsPref):
		return location{key: key, kind: kindUserCards, userID: strings.TrimPrefix(key, KeyUserCardsPref)}
	case key == KeyProfiles:
		return location{key: key, kind: kindProfiles}
	case key == KeyWizardState:
		return location{key: key, kind: kindWizard}
	}
	for _, p := range PreferenceKeys {
		if key == p {
			return location{key: key, kind: kindPreference}
		}
	}
	return location{key: key, kind: kindUnknown}
}

func (l location) isCards() bool { return l.kind == kindCards || l.kind == kindUserCards }

// discover returns known locations: the primary card list first, then per-user
// lists, then everything else, each group in key order.
func discover(src LegacySource) ([]location, error) {
	keys, err := src.Keys()
	if err != nil {
		return nil, fmt.Errorf("list legacy keys: %w", err)
	}
	var primary, users, rest []location
	for _, k := range keys {
		loc := classify(k)
		switch loc.kind {
		case kindUnknown:
		case kindCards:
			primary = append(primary, loc)
		case kindUserCards:
			users = append(users, loc)
		default:
			rest = append(rest, loc)
		}
	}
	out := append(primary, users...)
	return append(out, rest...), nil
}
