package dto

import "time"

type AdminStatsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
}

type AdminUserResponse struct {
	Username      string    `json:"username"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	SessionCount  int       `json:"session_count"`
	TotalMessages int       `json:"total_messages"`
}

type AdminSessionPreviewResponse struct {
	SessionID       string            `json:"session_id"`
	Title           string            `json:"title"`
	MessageCount    int               `json:"message_count"`
	LastInteraction time.Time         `json:"last_interaction"`
	RecentMessages  []MessageResponse `json:"recent_messages"`
}

type SystemLogResponse struct {
	Id        string    `json:"id"`
	Level     string    `json:"level"`
	Module    string    `json:"module,omitempty"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
