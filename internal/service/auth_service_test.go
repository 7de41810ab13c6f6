package service

import (
	"context"
	"testing"
	"time"

	"ai-companion-be/internal/apperrors"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/credentials"
	"ai-companion-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminRepo struct {
	accounts map[string]*entity.AdminAccount
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{accounts: make(map[string]*entity.AdminAccount)}
}

func (r *fakeAdminRepo) FindAccountByUsername(_ context.Context, username string) (*entity.AdminAccount, error) {
	return r.accounts[username], nil
}

func (r *fakeAdminRepo) CreateAccount(_ context.Context, account *entity.AdminAccount) error {
	r.accounts[account.Username] = account
	return nil
}

func newAuthFixture(t *testing.T) (*fakeUserRepo, *fakeAdminRepo, IAuthService) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test_secret")
	userRepo := newFakeUserRepo()
	adminRepo := newFakeAdminRepo()
	svc := NewAuthService(userRepo, adminRepo, nil, nil, logger.NewIsolatedLogger(t.TempDir()+"/test.log"))
	return userRepo, adminRepo, svc
}

func TestRegisterCreatesInactiveUser(t *testing.T) {
	userRepo, _, svc := newAuthFixture(t)

	res, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username:        "alice",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)

	stored := userRepo.users["alice"]
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.Active)
	assert.Equal(t, credentials.HashPassword("secret1"), stored.PasswordHash)
	assert.Empty(t, stored.ChatSessions)
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username:        "alice",
		Password:        "secret1",
		ConfirmPassword: "secret2",
	})
	require.Error(t, err)

	var fiberErr *fiber.Error
	require.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusBadRequest, fiberErr.Code)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	userRepo, _, svc := newAuthFixture(t)
	userRepo.users["alice"] = &entity.User{Username: "alice"}

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username:        "alice",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.Error(t, err)

	var fiberErr *fiber.Error
	require.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusConflict, fiberErr.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	userRepo, _, svc := newAuthFixture(t)
	userRepo.users["alice"] = &entity.User{
		Username:     "alice",
		PasswordHash: credentials.HashPassword("secret1"),
		Active:       0,
	}

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret1"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), constant.NoticeInactiveAccount)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	userRepo, _, svc := newAuthFixture(t)
	userRepo.users["alice"] = &entity.User{
		Username:     "alice",
		PasswordHash: credentials.HashPassword("secret1"),
		Active:       1,
	}

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "ghost", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestFirstLoginCreatesFirstChat(t *testing.T) {
	userRepo, _, svc := newAuthFixture(t)
	userRepo.users["alice"] = &entity.User{
		Username:     "alice",
		PasswordHash: credentials.HashPassword("secret1"),
		Active:       1,
	}

	res, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.CurrentSession)

	stored := userRepo.users["alice"]
	require.Len(t, stored.ChatSessions, 1)
	assert.Equal(t, constant.FirstChatTitle, stored.ChatSessions[0].Title)
	assert.Equal(t, res.CurrentSession, stored.CurrentSession)
	assert.Empty(t, stored.ChatSessions[0].Messages)
}

func TestLoginRepairsDanglingCurrentSession(t *testing.T) {
	userRepo, _, svc := newAuthFixture(t)
	userRepo.users["alice"] = &entity.User{
		Username:       "alice",
		PasswordHash:   credentials.HashPassword("secret1"),
		Active:         1,
		CurrentSession: "deleted-session",
		ChatSessions: []entity.ChatSession{
			{SessionID: "s1", Title: "A", CreatedAt: time.Now()},
		},
	}

	res, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", res.CurrentSession)
	assert.Equal(t, "s1", userRepo.users["alice"].CurrentSession)
}

func TestAdminLogin(t *testing.T) {
	_, adminRepo, svc := newAuthFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	adminRepo.accounts["root"] = &entity.AdminAccount{Username: "root", PasswordHash: string(hash)}

	res, err := svc.AdminLogin(context.Background(), &dto.LoginRequest{Username: "root", Password: "admin123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	_, err = svc.AdminLogin(context.Background(), &dto.LoginRequest{Username: "root", Password: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
