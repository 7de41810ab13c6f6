package contract

import (
	"context"

	"ai-companion-be/internal/entity"
)

// UserRepository is the document-store boundary for the user collection.
// Every mutation is a targeted single-document update keyed by username;
// the store's per-document atomicity is the only serialization relied on.
type UserRepository interface {
	// FindByUsername returns (nil, nil) when the user does not exist.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Insert creates a fresh user document. Callers check for duplicates
	// beforehand; a concurrent duplicate surfaces as a write error.
	Insert(ctx context.Context, user *entity.User) error

	// PushSession appends a session to chat_sessions and, when setCurrent is
	// true, points current_session at it and bumps last_interaction. The user
	// document is upserted if it does not exist.
	PushSession(ctx context.Context, username string, session *entity.ChatSession, setCurrent bool) error

	// PullSession removes the named session (and structurally its messages).
	PullSession(ctx context.Context, username, sessionID string) error

	// SetCurrentSession points current_session at sessionID. Membership is
	// NOT verified here; callers validate before calling.
	SetCurrentSession(ctx context.Context, username, sessionID string) error

	// PushMessage appends a message to the matched session and bumps both the
	// session's and the user's last_interaction. Returns false when the
	// (username, sessionID) pair matched no document.
	PushMessage(ctx context.Context, username, sessionID string, msg *entity.Message) (bool, error)

	// SetSessionTitleIfFirstMessage rewrites the session title only when the
	// session currently holds exactly one message, so two racing first
	// messages cannot both win. Returns whether the guard matched.
	SetSessionTitleIfFirstMessage(ctx context.Context, username, sessionID, title string) (bool, error)

	// SetActive flips the activation flag (0 or 1).
	SetActive(ctx context.Context, username string, active int) error

	// Delete permanently removes the whole user document.
	Delete(ctx context.Context, username string) error

	// FindAll lists users, optionally filtered by a case-insensitive username
	// substring, with the password field projected out.
	FindAll(ctx context.Context, search string) ([]*entity.User, error)

	CountUsers(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}
