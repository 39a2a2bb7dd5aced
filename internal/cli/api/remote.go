package api

import (
	"context"
	"time"
)

// CardRow — строка удалённой таблицы cards. Имена полей совпадают с колонками.
type CardRow struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	CreatorID          string         `json:"creator_id"`
	ImageURL           string         `json:"image_url"`
	ThumbnailURL       string         `json:"thumbnail_url"`
	Tags               []string       `json:"tags"`
	Rarity             string         `json:"rarity"`
	Visibility         string         `json:"visibility"`
	DesignMetadata     map[string]any `json:"design_metadata"`
	IsPublic           bool           `json:"is_public"`
	MarketplaceListing bool           `json:"marketplace_listing"`
	PrintAvailable     bool           `json:"print_available"`
	VerificationStatus string         `json:"verification_status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// RemoteStore — удалённое реляционное хранилище карточек. Все операции
// идемпотентны по id: повторный upsert той же строки ничего не меняет.
type RemoteStore interface {
	UpsertCard(ctx context.Context, row CardRow) error
	DeleteCard(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
