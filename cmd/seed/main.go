package main

import (
	"context"
	"fmt"
	"log"

	"chatly/internal/chat"
	"chatly/internal/shared/config"
	"chatly/internal/shared/database"
	"chatly/internal/users"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Chatly Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order
func (s *Seeder) CleanDatabase() error {
	tables := []string{"chat_messages", "chat_sessions", "users"}
	for _, table := range tables {
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll creates the demo accounts and a sample conversation
func (s *Seeder) SeedAll() error {
	admin, err := s.seedUser("Ada", "Admin", "admin@chatly.dev", "admin123!", users.RoleAdmin)
	if err != nil {
		return err
	}
	fmt.Printf("   👤 Admin: %s\n", admin.Email)

	user, err := s.seedUser("Uma", "User", "user@chatly.dev", "user1234!", users.RoleUser)
	if err != nil {
		return err
	}
	fmt.Printf("   👤 User: %s\n", user.Email)

	if err := s.seedConversation(user); err != nil {
		return err
	}
	fmt.Println("   💬 Sample conversation created")

	return nil
}

func (s *Seeder) seedUser(firstName, lastName, email, password string, role users.Role) (*users.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		IsActive:  true,
	}
	if err := s.db.PostgreSQL.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	return user, nil
}

func (s *Seeder) seedConversation(owner *users.User) error {
	repo := chat.NewRepository(s.db.PostgreSQL)
	ctx := context.Background()

	session := &chat.ChatSession{
		ID:     uuid.New(),
		UserID: owner.ID,
		Title:  "Getting started",
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}

	exchanges := []struct {
		role    string
		content string
	}{
		{chat.RoleUser, "Hello! What can you do?"},
		{chat.RoleAssistant, "You said: Hello! What can you do?"},
	}
	for _, ex := range exchanges {
		message := &chat.ChatMessage{
			ID:        uuid.New(),
			SessionID: session.ID,
			Role:      ex.role,
			Content:   ex.content,
		}
		if err := repo.AppendMessage(ctx, message); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}
	return nil
}
