package database

import (
	"fmt"
	"log"
	"os"

	"coursehaven/internal/domain/billing"
	"coursehaven/internal/domain/catalog"
	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	// TranslateError is required: the purchase flow relies on
	// gorm.ErrDuplicatedKey to resolve races on the unique indexes.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Fatal("❌ Failed to enable pgcrypto extension:", err)
	}

	if err := DB.AutoMigrate(
		&users.User{},
		&catalog.Course{},
		&billing.Payment{},
		&purchases.Purchase{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}
