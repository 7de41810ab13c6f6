package model

import "time"

// User mirrors the persisted document shape in the user collection. The
// username doubles as the Mongo _id.
type User struct {
	Username        string        `bson:"_id"`
	Password        string        `bson:"password"`
	Active          int           `bson:"active"`
	CreatedAt       time.Time     `bson:"created_at"`
	CurrentSession  string        `bson:"current_session,omitempty"`
	LastInteraction time.Time     `bson:"last_interaction,omitempty"`
	ChatSessions    []ChatSession `bson:"chat_sessions"`
}

type ChatSession struct {
	SessionID       string    `bson:"session_id"`
	Title           string    `bson:"title"`
	CreatedAt       time.Time `bson:"created_at"`
	LastInteraction time.Time `bson:"last_interaction"`
	Messages        []Message `bson:"messages"`
}

type Message struct {
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	Timestamp time.Time `bson:"timestamp"`
}
