package database

import (
	"fmt"
	"log"

	"chatly/internal/chat"
	"chatly/internal/users"

	"gorm.io/gorm"
)

// Migrate runs the schema migrations
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&chat.ChatSession{},
		&chat.ChatMessage{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}
