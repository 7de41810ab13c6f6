package dto

import "time"

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

type SessionSummaryResponse struct {
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title"`
	MessageCount    int       `json:"message_count"`
	Current         bool      `json:"current"`
	CreatedAt       time.Time `json:"created_at"`
	LastInteraction time.Time `json:"last_interaction"`
}

type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SendChatRequest struct {
	SessionID string `json:"session_id"` // empty = current session
	Chat      string `json:"chat" validate:"required"`
}

type SendChatResponse struct {
	SessionID    string           `json:"session_id"`
	SessionTitle string           `json:"title"`
	Sent         *MessageResponse `json:"sent"`
	Reply        *MessageResponse `json:"reply"`
	ImageURL     string           `json:"image_url,omitempty"`
	Notice       string           `json:"notice,omitempty"`
}

// StreamEvent is one frame on the websocket stream: fragments while the
// completion is running, then a single done frame carrying the persisted
// assistant message.
type StreamEvent struct {
	Type     string           `json:"type"` // "fragment" | "done" | "error"
	Fragment string           `json:"fragment,omitempty"`
	Message  *MessageResponse `json:"message,omitempty"`
	Notice   string           `json:"notice,omitempty"`
	Error    string           `json:"error,omitempty"`
}
