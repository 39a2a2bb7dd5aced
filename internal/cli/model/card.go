package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"CardKeeper/internal/common"
)

// CardData - card payload as authored by the editors. The engine only reads
// the fields it needs to build a remote row; everything else is opaque.
type CardData struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	ImageURL          string             `json:"image_url,omitempty"`
	ThumbnailURL      string             `json:"thumbnail_url,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	Rarity            string             `json:"rarity,omitempty"`
	Visibility        string             `json:"visibility,omitempty"`
	DesignMetadata    map[string]any     `json:"design_metadata,omitempty"`
	CreatorID         string             `json:"creator_id,omitempty"`
	PublishingOptions *PublishingOptions `json:"publishing_options,omitempty"`
}

// PublishingOptions — параметры публикации карточки.
type PublishingOptions struct {
	MarketplaceListing bool `json:"marketplace_listing"`
	PrintAvailable     bool `json:"print_available"`
}

// Validate checks the minimum a card needs to be stored: an id and a title.
func (c CardData) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: card id is required", common.ErrValidationFailed)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: card %q has no title", common.ErrValidationFailed, c.ID)
	}
	return nil
}

// DecodeCardData разбирает payload карточки мягко: поле неожиданного типа
// не ломает разбор, а остаётся пустым (потом его заполнит значение по
// умолчанию). Возвращает имена таких полей. ErrMalformed — только если
// payload вообще не JSON-объект.
func DecodeCardData(raw json.RawMessage) (CardData, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return CardData{}, nil, fmt.Errorf("%w: card payload is not an object", common.ErrMalformed)
	}
	var c CardData
	if err := json.Unmarshal(raw, &c); err == nil {
		return c, nil, nil
	}

	var coerced []string
	str := func(keys ...string) string {
		for _, k := range keys {
			v, ok := m[k]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				return s
			}
			coerced = append(coerced, k)
		}
		return ""
	}

	c = CardData{
		ID:           str("id"),
		Title:        str("title"),
		Description:  str("description"),
		ImageURL:     str("image_url", "imageUrl"),
		ThumbnailURL: str("thumbnail_url", "thumbnailUrl"),
		Rarity:       str("rarity"),
		Visibility:   str("visibility"),
		CreatorID:    str("creator_id", "creatorId"),
	}

	if v, ok := m["tags"]; ok && v != nil {
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					c.Tags = append(c.Tags, s)
				}
			}
		} else {
			coerced = append(coerced, "tags")
		}
	}

	for _, k := range []string{"design_metadata", "designMetadata"} {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if obj, ok := v.(map[string]any); ok {
			c.DesignMetadata = obj
			break
		}
		coerced = append(coerced, k)
	}

	for _, k := range []string{"publishing_options", "publishingOptions"} {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		obj, ok := v.(map[string]any)
		if !ok {
			coerced = append(coerced, k)
			continue
		}
		ml, _ := obj["marketplace_listing"].(bool)
		pa, _ := obj["print_available"].(bool)
		c.PublishingOptions = &PublishingOptions{MarketplaceListing: ml, PrintAvailable: pa}
		break
	}
	return c, coerced, nil
}
