package mapper

import (
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"

	"gorm.io/datatypes"
)

type AdminMapper struct{}

func NewAdminMapper() *AdminMapper {
	return &AdminMapper{}
}

func (m *AdminMapper) AccountToEntity(a *model.AdminAccount) *entity.AdminAccount {
	if a == nil {
		return nil
	}
	return &entity.AdminAccount{
		Id:           a.Id,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *AdminMapper) AccountToModel(a *entity.AdminAccount) *model.AdminAccount {
	if a == nil {
		return nil
	}
	return &model.AdminAccount{
		Id:           a.Id,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *AdminMapper) LogToEntity(l *model.SystemLog) *entity.SystemLog {
	if l == nil {
		return nil
	}
	var details *string
	if len(l.Details) > 0 {
		s := string(l.Details)
		details = &s
	}
	return &entity.SystemLog{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		Details:   details,
		CreatedAt: l.CreatedAt,
	}
}

func (m *AdminMapper) LogToModel(l *entity.SystemLog) *model.SystemLog {
	if l == nil {
		return nil
	}
	var details datatypes.JSON
	if l.Details != nil {
		details = datatypes.JSON(*l.Details)
	}
	return &model.SystemLog{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		Details:   details,
		CreatedAt: l.CreatedAt,
	}
}
