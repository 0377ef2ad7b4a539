package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service handles conversations. The reply generation here is a stub echo
// agent; the orchestration pipeline that would normally produce replies is
// an external collaborator.
type Service interface {
	Send(ctx context.Context, userID uuid.UUID, req *ChatRequest) (*ChatResponse, error)
	Stream(ctx context.Context, userID uuid.UUID, req *ChatRequest) (<-chan StreamEvent, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Send(ctx context.Context, userID uuid.UUID, req *ChatRequest) (*ChatResponse, error) {
	session, isNew, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	reply := generateReply(req.Message)

	if err := s.persistExchange(ctx, session.ID, req.Message, reply); err != nil {
		return nil, err
	}

	return &ChatResponse{
		SessionID: session.ID.String(),
		Reply:     reply,
		IsNew:     isNew,
	}, nil
}

// Stream produces the reply as a sequence of events on a channel the
// controller drains into an SSE response. The channel is closed after the
// terminal "done" event.
func (s *service) Stream(ctx context.Context, userID uuid.UUID, req *ChatRequest) (<-chan StreamEvent, error) {
	session, _, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	reply := generateReply(req.Message)

	if err := s.persistExchange(ctx, session.ID, req.Message, reply); err != nil {
		return nil, err
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		for _, word := range strings.Fields(reply) {
			select {
			case events <- StreamEvent{Event: "message", Data: word + " "}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case events <- StreamEvent{Event: "done", Data: session.ID.String()}:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationResponse, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	conversations := make([]ConversationResponse, 0, len(sessions))
	for _, session := range sessions {
		conversations = append(conversations, ConversationResponse{
			ID:        session.ID.String(),
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return conversations, nil
}

func (s *service) resolveSession(ctx context.Context, userID uuid.UUID, req *ChatRequest) (*ChatSession, bool, error) {
	if req.SessionID != "" {
		sessionID, err := uuid.Parse(req.SessionID)
		if err != nil {
			return nil, false, ErrSessionNotFound
		}
		session, err := s.repo.GetSession(ctx, sessionID, userID)
		if err != nil {
			return nil, false, err
		}
		return session, false, nil
	}

	session := &ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		Title:  deriveTitle(req.Message),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func (s *service) persistExchange(ctx context.Context, sessionID uuid.UUID, message, reply string) error {
	userMsg := &ChatMessage{ID: uuid.New(), SessionID: sessionID, Role: RoleUser, Content: message}
	if err := s.repo.AppendMessage(ctx, userMsg); err != nil {
		return err
	}

	assistantMsg := &ChatMessage{ID: uuid.New(), SessionID: sessionID, Role: RoleAssistant, Content: reply}
	return s.repo.AppendMessage(ctx, assistantMsg)
}

func generateReply(message string) string {
	return fmt.Sprintf("You said: %s", message)
}

func deriveTitle(message string) string {
	const maxTitle = 60
	title := strings.TrimSpace(message)
	// Cut on rune boundaries so a multibyte title stays valid UTF-8
	if runes := []rune(title); len(runes) > maxTitle {
		title = string(runes[:maxTitle])
	}
	return title
}
