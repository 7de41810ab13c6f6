package entity

import "time"

// User is one document in the user collection, keyed by username. Sessions
// are embedded; a user with no sessions is valid (the first one is created
// lazily on login).
type User struct {
	Username        string
	PasswordHash    string
	Active          int // 0 = awaiting activation, 1 = allowed to log in
	CreatedAt       time.Time
	CurrentSession  string // session id, empty when absent
	LastInteraction time.Time
	ChatSessions    []ChatSession
}

// ChatSession is one conversation thread, owned exclusively by one user.
// Message order is insertion order and is never rewritten.
type ChatSession struct {
	SessionID       string
	Title           string
	CreatedAt       time.Time
	LastInteraction time.Time
	Messages        []Message
}

// Message is immutable once written. Whole-session deletion is the only way
// a message ever disappears.
type Message struct {
	Role      string // "user" | "assistant" | "system"
	Content   string
	Timestamp time.Time
}

// FindSession returns the embedded session with the given id, or nil.
func (u *User) FindSession(sessionID string) *ChatSession {
	for i := range u.ChatSessions {
		if u.ChatSessions[i].SessionID == sessionID {
			return &u.ChatSessions[i]
		}
	}
	return nil
}

// MessageCount totals messages across all sessions.
func (u *User) MessageCount() int {
	total := 0
	for i := range u.ChatSessions {
		total += len(u.ChatSessions[i].Messages)
	}
	return total
}
