package implementation

import (
	"context"
	"errors"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"

	"gorm.io/gorm"
)

type AdminRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdminMapper
}

func NewAdminRepository(db *gorm.DB) contract.AdminRepository {
	return &AdminRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdminMapper(),
	}
}

func (r *AdminRepositoryImpl) FindAccountByUsername(ctx context.Context, username string) (*entity.AdminAccount, error) {
	var m model.AdminAccount
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AccountToEntity(&m), nil
}

func (r *AdminRepositoryImpl) CreateAccount(ctx context.Context, account *entity.AdminAccount) error {
	m := r.mapper.AccountToModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*account = *r.mapper.AccountToEntity(m)
	return nil
}
