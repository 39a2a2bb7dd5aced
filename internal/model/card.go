package model

import "time"

// Card — серверная модель карточки (удалённая таблица cards).
type Card struct {
	ID                 string         `gorm:"primaryKey" json:"id" validate:"required,max=255"`
	Title              string         `gorm:"not null" json:"title" validate:"required"`
	Description        string         `json:"description"`
	CreatorID          string         `gorm:"index" json:"creator_id"`
	ImageURL           string         `json:"image_url"`
	ThumbnailURL       string         `json:"thumbnail_url"`
	Tags               []string       `gorm:"serializer:json" json:"tags"`
	Rarity             string         `gorm:"not null;index" json:"rarity" validate:"oneof=common uncommon rare legendary"`
	Visibility         string         `gorm:"not null" json:"visibility" validate:"max=32"`
	DesignMetadata     map[string]any `gorm:"serializer:json" json:"design_metadata"`
	IsPublic           bool           `gorm:"not null;index" json:"is_public"`
	MarketplaceListing bool           `gorm:"not null" json:"marketplace_listing"`
	PrintAvailable     bool           `gorm:"not null" json:"print_available"`
	VerificationStatus string         `gorm:"not null" json:"verification_status" validate:"oneof=pending verified rejected"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
