package chat

// chat request payload; an empty session id starts a new conversation
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" validate:"required,min=1,max=8000"`
}
