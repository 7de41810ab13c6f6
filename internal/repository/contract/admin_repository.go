package contract

import (
	"context"

	"ai-companion-be/internal/entity"
)

type AdminRepository interface {
	// FindAccountByUsername returns (nil, nil) when the account is absent.
	FindAccountByUsername(ctx context.Context, username string) (*entity.AdminAccount, error)
	CreateAccount(ctx context.Context, account *entity.AdminAccount) error
}

type SystemLogRepository interface {
	Create(ctx context.Context, log *entity.SystemLog) error
	FindRecent(ctx context.Context, limit int) ([]*entity.SystemLog, error)
}
