package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"CardKeeper/internal/common"
)

// DedupPolicy решает, какая копия карточки побеждает при совпадении id в разных списках.
type DedupPolicy string

const (
	// KeepFirst оставляет первую копию в порядке обхода.
	KeepFirst DedupPolicy = "keep_first"
	// KeepLast оставляет последнюю копию: так же, как последовательные Set.
	KeepLast DedupPolicy = "keep_last"
)

// ParseDedupPolicy parses a config value. Empty means KeepLast.
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeepLast:
		return KeepLast, nil
	case KeepFirst:
		return KeepFirst, nil
	}
	return "", fmt.Errorf("unknown dedup policy %q", s)
}

// CardEntry — одна карточка из старого списка.
type CardEntry struct {
	ID  string
	Raw json.RawMessage
	// CreatorID задан, если автор известен из самой записи или из ключа списка.
	CreatorID string
	// Location — ключ списка, из которого взята запись.
	Location string
}

// CardBatch — разобранный список карточек одного ключа.
type CardBatch struct {
	Location string
	Cards    []CardEntry
}

// Duplicate описывает отброшенную копию карточки.
type Duplicate struct {
	ID       string
	Dropped  string
	KeptFrom string
}

type legacyCard struct {
	ID             any `json:"id"`
	Title          any `json:"title"`
	CreatorID      any `json:"creator_id"`
	CreatorIDCamel any `json:"creatorId"`
}

// parseCardList разбирает массив карточек. Ошибка — только если это не JSON-массив;
// невалидные элементы возвращаются в rejects, повторы id внутри списка пропускаются.
func parseCardList(loc location, raw []byte) (batch CardBatch, rejects []error, skipped int, err error) {
	batch.Location = loc.key
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return batch, nil, 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return batch, nil, 0, fmt.Errorf("%w: %s: %v", common.ErrMalformed, loc.key, err)
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		var c legacyCard
		if err := json.Unmarshal(item, &c); err != nil {
			rejects = append(rejects, fmt.Errorf("%w: %s[%d]: not an object", common.ErrValidationFailed, loc.key, i))
			continue
		}
		id, okID := c.ID.(string)
		title, okTitle := c.Title.(string)
		if !okID || strings.TrimSpace(id) == "" || !okTitle || strings.TrimSpace(title) == "" {
			rejects = append(rejects, fmt.Errorf("%w: %s[%d]: id and title are required", common.ErrValidationFailed, loc.key, i))
			continue
		}
		if _, dup := seen[id]; dup {
			skipped++
			continue
		}
		seen[id] = struct{}{}
		creator, _ := c.CreatorID.(string)
		if creator == "" {
			creator, _ = c.CreatorIDCamel.(string)
		}
		if creator == "" {
			creator = loc.userID
		}
		batch.Cards = append(batch.Cards, CardEntry{ID: id, Raw: item, CreatorID: creator, Location: loc.key})
	}
	return batch, rejects, skipped, nil
}

// ConsolidateCards объединяет несколько списков в один, по одной записи на id.
// Порядок результата — порядок первого появления id; содержимое выбирается по policy.
func ConsolidateCards(batches []CardBatch, policy DedupPolicy) ([]CardEntry, []Duplicate) {
	index := make(map[string]int)
	var merged []CardEntry
	var dups []Duplicate
	for _, b := range batches {
		for _, c := range b.Cards {
			i, exists := index[c.ID]
			if !exists {
				index[c.ID] = len(merged)
				merged = append(merged, c)
				continue
			}
			prev := merged[i]
			if policy == KeepFirst {
				dups = append(dups, Duplicate{ID: c.ID, Dropped: c.Location, KeptFrom: prev.Location})
				continue
			}
			dups = append(dups, Duplicate{ID: c.ID, Dropped: prev.Location, KeptFrom: c.Location})
			merged[i] = c
		}
	}
	return merged, dups
}
