package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AdminAccount struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (AdminAccount) TableName() string {
	return "admin_accounts"
}

type SystemLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Level     string         `gorm:"type:varchar(20);not null;index"`
	Module    *string        `gorm:"type:varchar(50)"`
	Message   string         `gorm:"type:text;not null"`
	Details   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:now();not null;index"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}
