// FILE: internal/service/audit_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const auditTopic = "audit.records"

// IAuditService decouples audit writes from request handling: Record is a
// cheap in-process publish, the Run loop drains records into the system log
// table.
type IAuditService interface {
	Record(level, module, message string, details map[string]interface{})
	Run(ctx context.Context) error
	Close() error
}

type auditRecord struct {
	Level   string                 `json:"level"`
	Module  string                 `json:"module,omitempty"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	At      time.Time              `json:"at"`
}

type auditService struct {
	pubsub  *gochannel.GoChannel
	logRepo contract.SystemLogRepository
	logger  logger.ILogger
}

func NewAuditService(logRepo contract.SystemLogRepository, log logger.ILogger) IAuditService {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NopLogger{},
	)
	return &auditService{
		pubsub:  pubsub,
		logRepo: logRepo,
		logger:  log,
	}
}

func (s *auditService) Record(level, module, msg string, details map[string]interface{}) {
	payload, err := json.Marshal(auditRecord{
		Level:   level,
		Module:  module,
		Message: msg,
		Details: details,
		At:      time.Now(),
	})
	if err != nil {
		s.logger.Warn("AuditService", "Failed to marshal audit record", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := s.pubsub.Publish(auditTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("AuditService", "Failed to enqueue audit record", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Run drains audit records into the system log table until the context is
// cancelled. Intended to run in its own goroutine.
func (s *auditService) Run(ctx context.Context) error {
	messages, err := s.pubsub.Subscribe(ctx, auditTopic)
	if err != nil {
		return err
	}

	for msg := range messages {
		var record auditRecord
		if err := json.Unmarshal(msg.Payload, &record); err != nil {
			s.logger.Warn("AuditService", "Dropping malformed audit record", map[string]interface{}{
				"error": err.Error(),
			})
			msg.Ack()
			continue
		}

		entry := &entity.SystemLog{
			Id:        uuid.New(),
			Level:     record.Level,
			Message:   record.Message,
			CreatedAt: record.At,
		}
		if record.Module != "" {
			entry.Module = &record.Module
		}
		if len(record.Details) > 0 {
			if detailBytes, marshalErr := json.Marshal(record.Details); marshalErr == nil {
				detailStr := string(detailBytes)
				entry.Details = &detailStr
			}
		}

		if err := s.logRepo.Create(ctx, entry); err != nil {
			s.logger.Error("AuditService", "Failed to persist audit record", map[string]interface{}{
				"error": err.Error(),
			})
		}
		msg.Ack()
	}
	return nil
}

func (s *auditService) Close() error {
	return s.pubsub.Close()
}
