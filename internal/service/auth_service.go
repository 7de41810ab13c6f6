// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"ai-companion-be/internal/apperrors"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/credentials"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/mailer"
	"ai-companion-be/internal/repository/contract"

	"ai-companion-be/pkg/events"
	pktNats "ai-companion-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.AdminLoginResponse, error)
}

type authService struct {
	userRepo       contract.UserRepository
	adminRepo      contract.AdminRepository
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewAuthService(
	userRepo contract.UserRepository,
	adminRepo contract.AdminRepository,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAuthService {
	return &authService{
		userRepo:       userRepo,
		adminRepo:      adminRepo,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	// 1. Check for existing user
	existing, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if existing != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "username already taken")
	}

	// 2. Create the user document, inactive until an operator flips the flag
	user := &entity.User{
		Username:     req.Username,
		PasswordHash: credentials.HashPassword(req.Password),
		Active:       0,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	s.logger.Info("AuthService", "User registered, awaiting activation", map[string]interface{}{
		"username": user.Username,
	})

	// 3. Tell the operator someone is waiting
	if s.emailService != nil {
		go func() {
			if emailErr := s.emailService.SendRegistrationNotice(user.Username); emailErr != nil {
				s.logger.Warn("AuthService", "Failed to send registration notice", map[string]interface{}{
					"username": user.Username,
					"error":    emailErr.Error(),
				})
			}
		}()
	}

	// PUBLISH EVENT
	if s.eventPublisher != nil {
		event := events.NewUserLifecycleEvent(events.TypeUserRegistered, user.Username)
		if pubErr := s.eventPublisher.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("AuthService", "Failed to publish registration event", map[string]interface{}{
				"username": user.Username,
				"error":    pubErr.Error(),
			})
		}
	}

	return &dto.RegisterResponse{Username: user.Username}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. Check if user exists
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid username or password", apperrors.ErrUnauthorized)
	}

	// 2. Compare passwords
	if !credentials.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, fmt.Errorf("%w: invalid username or password", apperrors.ErrUnauthorized)
	}

	// 3. Only activated accounts may enter
	if user.Active != 1 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, constant.NoticeInactiveAccount)
	}

	// 4. Make sure the user lands in a usable session
	currentSession, err := s.ensureCurrentSession(ctx, user)
	if err != nil {
		return nil, err
	}

	// 5. Generate JWT
	claims := jwt.MapClaims{
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	signedToken, err := signToken(claims)
	if err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "User logged in", map[string]interface{}{
		"username": user.Username,
		"session":  currentSession,
	})

	return &dto.LoginResponse{
		AccessToken:    signedToken,
		Username:       user.Username,
		CurrentSession: currentSession,
	}, nil
}

func (s *authService) AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.AdminLoginResponse, error) {
	account, err := s.adminRepo.FindAccountByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: invalid username or password", apperrors.ErrUnauthorized)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("%w: invalid username or password", apperrors.ErrUnauthorized)
	}

	claims := jwt.MapClaims{
		"username": account.Username,
		"role":     "admin",
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	signedToken, err := signToken(claims)
	if err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "Admin logged in", map[string]interface{}{
		"username": account.Username,
	})

	return &dto.AdminLoginResponse{
		AccessToken: signedToken,
		Username:    account.Username,
	}, nil
}

// ensureCurrentSession guarantees every successful login ends with a valid
// current session: first login creates "First Chat", a dangling pointer is
// repaired by promoting the first existing session.
func (s *authService) ensureCurrentSession(ctx context.Context, user *entity.User) (string, error) {
	if len(user.ChatSessions) == 0 {
		session := &entity.ChatSession{
			SessionID: uuid.New().String(),
			Title:     constant.FirstChatTitle,
			CreatedAt: time.Now(),
			Messages:  []entity.Message{},
		}
		if err := s.userRepo.PushSession(ctx, user.Username, session, true); err != nil {
			return "", fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
		}
		return session.SessionID, nil
	}

	if user.CurrentSession != "" && user.FindSession(user.CurrentSession) != nil {
		return user.CurrentSession, nil
	}

	fallback := user.ChatSessions[0].SessionID
	if err := s.userRepo.SetCurrentSession(ctx, user.Username, fallback); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	return fallback, nil
}

func signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	return token.SignedString([]byte(secret))
}
