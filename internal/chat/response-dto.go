package chat

import "time"

// represents a completed chat exchange
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	IsNew     bool   `json:"is_new_session"`
}

// one item in the conversation list
type ConversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StreamEvent is one server-sent event in a streamed reply.
type StreamEvent struct {
	Event string `json:"event"` // "message" or "done"
	Data  string `json:"data"`
}
