package service

import (
	"context"
	"testing"
	"time"

	"ai-companion-be/internal/apperrors"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogRepo struct {
	entries []*entity.SystemLog
}

func (r *fakeLogRepo) Create(_ context.Context, log *entity.SystemLog) error {
	r.entries = append(r.entries, log)
	return nil
}

func (r *fakeLogRepo) FindRecent(_ context.Context, limit int) ([]*entity.SystemLog, error) {
	if len(r.entries) < limit {
		limit = len(r.entries)
	}
	out := make([]*entity.SystemLog, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func newAdminFixture(t *testing.T) (*fakeUserRepo, *fakeLogRepo, IAdminService) {
	t.Helper()
	userRepo := newFakeUserRepo()
	logRepo := &fakeLogRepo{}
	svc := NewAdminService(userRepo, logRepo, nil, nil, nil, logger.NewIsolatedLogger(t.TempDir()+"/test.log"))
	return userRepo, logRepo, svc
}

func TestGetStats(t *testing.T) {
	userRepo, _, svc := newAdminFixture(t)
	userRepo.users["a"] = &entity.User{Username: "a", Active: 1}
	userRepo.users["b"] = &entity.User{Username: "b", Active: 1}
	userRepo.users["c"] = &entity.User{Username: "c", Active: 0}

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.InactiveUsers)
}

func TestActivateAndDeactivateUser(t *testing.T) {
	userRepo, _, svc := newAdminFixture(t)
	userRepo.users["alice"] = &entity.User{Username: "alice", Active: 0}

	require.NoError(t, svc.ActivateUser(context.Background(), "alice"))
	assert.Equal(t, 1, userRepo.users["alice"].Active)

	require.NoError(t, svc.DeactivateUser(context.Background(), "alice"))
	assert.Equal(t, 0, userRepo.users["alice"].Active)
}

func TestActivateUnknownUser(t *testing.T) {
	_, _, svc := newAdminFixture(t)
	err := svc.ActivateUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteUserRemovesDocument(t *testing.T) {
	userRepo, _, svc := newAdminFixture(t)
	userRepo.users["alice"] = &entity.User{Username: "alice"}

	require.NoError(t, svc.DeleteUser(context.Background(), "alice"))
	assert.NotContains(t, userRepo.users, "alice")

	err := svc.DeleteUser(context.Background(), "alice")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetUserSessionsPreviewsRecentMessages(t *testing.T) {
	userRepo, _, svc := newAdminFixture(t)
	msgs := []entity.Message{
		{Role: constant.RoleUser, Content: "one", Timestamp: time.Now()},
		{Role: constant.RoleAssistant, Content: "two", Timestamp: time.Now()},
		{Role: constant.RoleUser, Content: "three", Timestamp: time.Now()},
		{Role: constant.RoleAssistant, Content: "four", Timestamp: time.Now()},
	}
	userRepo.users["alice"] = &entity.User{
		Username: "alice",
		ChatSessions: []entity.ChatSession{
			{SessionID: "s1", Title: "A", Messages: msgs},
		},
	}

	previews, err := svc.GetUserSessions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, 4, previews[0].MessageCount)
	require.Len(t, previews[0].RecentMessages, sessionPreviewDepth)
	assert.Equal(t, "two", previews[0].RecentMessages[0].Content)
	assert.Equal(t, "four", previews[0].RecentMessages[2].Content)
}

func TestGetSystemLogs(t *testing.T) {
	_, logRepo, svc := newAdminFixture(t)
	module := "lifecycle"
	for i := 0; i < 3; i++ {
		logRepo.entries = append(logRepo.entries, &entity.SystemLog{
			Id:        uuid.New(),
			Level:     "info",
			Module:    &module,
			Message:   "USER_ACTIVATED",
			CreatedAt: time.Now(),
		})
	}

	logs, err := svc.GetSystemLogs(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "lifecycle", logs[0].Module)
}
