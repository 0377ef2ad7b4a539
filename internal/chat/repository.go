package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("chat session not found")

type Repository interface {
	CreateSession(ctx context.Context, session *ChatSession) error
	GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*ChatSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]ChatSession, error)
	AppendMessage(ctx context.Context, message *ChatMessage) error
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]ChatMessage, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateSession(ctx context.Context, session *ChatSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSession is scoped to the owning user so one user can never read
// another's conversation.
func (r *repository) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*ChatSession, error) {
	var session ChatSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) ListSessions(ctx context.Context, userID uuid.UUID) ([]ChatSession, error) {
	var sessions []ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *repository) AppendMessage(ctx context.Context, message *ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}
