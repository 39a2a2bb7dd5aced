package repo

import (
	"fmt"

	"CardKeeper/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB подключается к Postgres и мигрирует схему.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DATABASE_URI")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт или дополняет таблицы сервера.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Card{})
}
