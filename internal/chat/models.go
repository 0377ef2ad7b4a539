package chat

import (
	"time"

	"github.com/google/uuid"
)

// message roles within a session
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is a persistent conversation tied to a user.
type ChatSession struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:ix_chat_sessions_user_id_updated_at"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index:ix_chat_sessions_user_id_updated_at"`
}

// ChatMessage is one message within a session.
type ChatMessage struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	SessionID uuid.UUID `json:"session_id" gorm:"type:uuid;not null;index"`
	Role      string    `json:"role" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}
