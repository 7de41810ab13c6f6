package entity

import (
	"time"

	"github.com/google/uuid"
)

// AdminAccount lives in Postgres, separate from the user collection. Admin
// passwords use bcrypt; the unsalted scheme is user-collection legacy only.
type AdminAccount struct {
	Id           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// SystemLog is one audit trail row, written asynchronously by the audit
// consumer.
type SystemLog struct {
	Id        uuid.UUID
	Level     string
	Module    *string
	Message   string
	Details   *string
	CreatedAt time.Time
}
