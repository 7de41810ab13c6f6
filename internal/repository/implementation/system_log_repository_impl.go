package implementation

import (
	"context"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"

	"gorm.io/gorm"
)

type SystemLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdminMapper
}

func NewSystemLogRepository(db *gorm.DB) contract.SystemLogRepository {
	return &SystemLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdminMapper(),
	}
}

func (r *SystemLogRepositoryImpl) Create(ctx context.Context, log *entity.SystemLog) error {
	return r.db.WithContext(ctx).Create(r.mapper.LogToModel(log)).Error
}

func (r *SystemLogRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]*entity.SystemLog, error) {
	var models []*model.SystemLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	logs := make([]*entity.SystemLog, len(models))
	for i, m := range models {
		logs[i] = r.mapper.LogToEntity(m)
	}
	return logs, nil
}
