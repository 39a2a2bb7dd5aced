package service

import (
	"strings"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/model"

	"go.uber.org/zap"
)

// Значения enum rarity на стороне удалённого хранилища.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityLegendary = "legendary"

	VisibilityPrivate = "private"
	VisibilityPublic  = "public"

	VerificationPending = "pending"
)

// mapRarity переводит редкость редактора в enum удалённой таблицы.
// Неизвестные значения становятся common.
func mapRarity(r string, log *zap.SugaredLogger, cardID string) string {
	switch strings.ToLower(strings.TrimSpace(r)) {
	case RarityCommon:
		return RarityCommon
	case RarityUncommon:
		return RarityUncommon
	case RarityRare:
		return RarityRare
	case RarityLegendary:
		return RarityLegendary
	case "epic":
		// TODO: ждём решения продукта, нужен ли отдельный epic в удалённой схеме.
		log.Warnw("epic rarity is stored remotely as legendary", "card_id", cardID)
		return RarityLegendary
	case "":
		return RarityCommon
	}
	log.Debugw("unknown rarity mapped to common", "card_id", cardID, "rarity", r)
	return RarityCommon
}

// BuildRemoteRow строит строку удалённой таблицы из данных карточки.
// Отсутствующие поля получают безопасные значения по умолчанию.
func BuildRemoteRow(card model.CardData, log *zap.SugaredLogger) api.CardRow {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	row := api.CardRow{
		ID:                 card.ID,
		Title:              card.Title,
		Description:        card.Description,
		CreatorID:          card.CreatorID,
		ImageURL:           card.ImageURL,
		ThumbnailURL:       card.ThumbnailURL,
		Tags:               card.Tags,
		Rarity:             mapRarity(card.Rarity, log, card.ID),
		Visibility:         card.Visibility,
		DesignMetadata:     card.DesignMetadata,
		VerificationStatus: VerificationPending,
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}
	if row.DesignMetadata == nil {
		row.DesignMetadata = map[string]any{}
	}
	if row.Visibility == "" {
		row.Visibility = VisibilityPrivate
	}
	row.IsPublic = row.Visibility == VisibilityPublic
	if p := card.PublishingOptions; p != nil {
		row.MarketplaceListing = p.MarketplaceListing
		row.PrintAvailable = p.PrintAvailable
	}
	return row
}
