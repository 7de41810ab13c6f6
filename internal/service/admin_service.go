// FILE: internal/service/admin_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"ai-companion-be/internal/apperrors"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/mailer"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/websocket"

	"ai-companion-be/pkg/events"
	pktNats "ai-companion-be/pkg/nats"
)

// sessionPreviewDepth is how many trailing messages each session preview
// carries on the dashboard.
const sessionPreviewDepth = 3

type IAdminService interface {
	GetStats(ctx context.Context) (*dto.AdminStatsResponse, error)
	ListUsers(ctx context.Context, search string) ([]dto.AdminUserResponse, error)
	GetUserSessions(ctx context.Context, username string) ([]dto.AdminSessionPreviewResponse, error)
	ActivateUser(ctx context.Context, username string) error
	DeactivateUser(ctx context.Context, username string) error
	DeleteUser(ctx context.Context, username string) error
	GetSystemLogs(ctx context.Context, limit int) ([]dto.SystemLogResponse, error)
}

type adminService struct {
	userRepo       contract.UserRepository
	logRepo        contract.SystemLogRepository
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	hub            *websocket.Hub
	logger         logger.ILogger
}

func NewAdminService(
	userRepo contract.UserRepository,
	logRepo contract.SystemLogRepository,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	hub *websocket.Hub,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		userRepo:       userRepo,
		logRepo:        logRepo,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		hub:            hub,
		logger:         log,
	}
}

func (s *adminService) GetStats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	total, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	active, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	return &dto.AdminStatsResponse{
		TotalUsers:    total,
		ActiveUsers:   active,
		InactiveUsers: total - active,
	}, nil
}

func (s *adminService) ListUsers(ctx context.Context, search string) ([]dto.AdminUserResponse, error) {
	users, err := s.userRepo.FindAll(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	out := make([]dto.AdminUserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.AdminUserResponse{
			Username:      user.Username,
			Active:        user.Active == 1,
			CreatedAt:     user.CreatedAt,
			SessionCount:  len(user.ChatSessions),
			TotalMessages: user.MessageCount(),
		})
	}
	return out, nil
}

func (s *adminService) GetUserSessions(ctx context.Context, username string) ([]dto.AdminSessionPreviewResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, username)
	}

	previews := make([]dto.AdminSessionPreviewResponse, 0, len(user.ChatSessions))
	for i := range user.ChatSessions {
		sess := &user.ChatSessions[i]

		recent := sess.Messages
		if len(recent) > sessionPreviewDepth {
			recent = recent[len(recent)-sessionPreviewDepth:]
		}
		recentOut := make([]dto.MessageResponse, 0, len(recent))
		for _, msg := range recent {
			recentOut = append(recentOut, dto.MessageResponse{
				Role:      msg.Role,
				Content:   msg.Content,
				Timestamp: msg.Timestamp,
			})
		}

		previews = append(previews, dto.AdminSessionPreviewResponse{
			SessionID:       sess.SessionID,
			Title:           sess.Title,
			MessageCount:    len(sess.Messages),
			LastInteraction: sess.LastInteraction,
			RecentMessages:  recentOut,
		})
	}
	return previews, nil
}

func (s *adminService) ActivateUser(ctx context.Context, username string) error {
	if err := s.setActive(ctx, username, 1); err != nil {
		return err
	}

	// Usernames that look like addresses get a welcome mail
	if s.emailService != nil && strings.Contains(username, "@") {
		go func() {
			if emailErr := s.emailService.SendActivationNotice(username, username); emailErr != nil {
				s.logger.Warn("AdminService", "Failed to send activation notice", map[string]interface{}{
					"username": username,
					"error":    emailErr.Error(),
				})
			}
		}()
	}

	s.announce(ctx, events.TypeUserActivated, username)
	return nil
}

func (s *adminService) DeactivateUser(ctx context.Context, username string) error {
	if err := s.setActive(ctx, username, 0); err != nil {
		return err
	}
	s.announce(ctx, events.TypeUserDeactivated, username)
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		if user, findErr := s.userRepo.FindByUsername(ctx, username); findErr == nil && user == nil {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, username)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	s.logger.Info("AdminService", "User deleted", map[string]interface{}{
		"username": username,
	})
	s.announce(ctx, events.TypeUserDeleted, username)
	return nil
}

func (s *adminService) GetSystemLogs(ctx context.Context, limit int) ([]dto.SystemLogResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	logs, err := s.logRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	out := make([]dto.SystemLogResponse, 0, len(logs))
	for _, entry := range logs {
		resp := dto.SystemLogResponse{
			Id:        entry.Id.String(),
			Level:     entry.Level,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		}
		if entry.Module != nil {
			resp.Module = *entry.Module
		}
		if entry.Details != nil {
			resp.Details = *entry.Details
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *adminService) setActive(ctx context.Context, username string, active int) error {
	if err := s.userRepo.SetActive(ctx, username, active); err != nil {
		if user, findErr := s.userRepo.FindByUsername(ctx, username); findErr == nil && user == nil {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, username)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	s.logger.Info("AdminService", "User activation changed", map[string]interface{}{
		"username": username,
		"active":   active,
	})
	return nil
}

// announce pushes the lifecycle change to connected dashboards and onto the
// event bus for other instances and consumers.
func (s *adminService) announce(ctx context.Context, eventType, username string) {
	event := events.NewUserLifecycleEvent(eventType, username)

	if s.hub != nil {
		s.hub.Broadcast(websocket.Notification{
			Event:    eventType,
			Username: username,
			At:       event.OccurredAt,
		})
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("AdminService", "Failed to publish lifecycle event", map[string]interface{}{
				"event":    eventType,
				"username": username,
				"error":    err.Error(),
			})
		}
	}
}
