package mapper

import (
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	sessions := make([]entity.ChatSession, len(u.ChatSessions))
	for i, s := range u.ChatSessions {
		sessions[i] = m.SessionToEntity(&s)
	}
	return &entity.User{
		Username:        u.Username,
		PasswordHash:    u.Password,
		Active:          u.Active,
		CreatedAt:       u.CreatedAt,
		CurrentSession:  u.CurrentSession,
		LastInteraction: u.LastInteraction,
		ChatSessions:    sessions,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	sessions := make([]model.ChatSession, len(u.ChatSessions))
	for i, s := range u.ChatSessions {
		sessions[i] = m.SessionToModel(&s)
	}
	return &model.User{
		Username:        u.Username,
		Password:        u.PasswordHash,
		Active:          u.Active,
		CreatedAt:       u.CreatedAt,
		CurrentSession:  u.CurrentSession,
		LastInteraction: u.LastInteraction,
		ChatSessions:    sessions,
	}
}

func (m *UserMapper) SessionToEntity(s *model.ChatSession) entity.ChatSession {
	messages := make([]entity.Message, len(s.Messages))
	for i, msg := range s.Messages {
		messages[i] = entity.Message(msg)
	}
	return entity.ChatSession{
		SessionID:       s.SessionID,
		Title:           s.Title,
		CreatedAt:       s.CreatedAt,
		LastInteraction: s.LastInteraction,
		Messages:        messages,
	}
}

func (m *UserMapper) SessionToModel(s *entity.ChatSession) model.ChatSession {
	messages := make([]model.Message, len(s.Messages))
	for i, msg := range s.Messages {
		messages[i] = model.Message(msg)
	}
	return model.ChatSession{
		SessionID:       s.SessionID,
		Title:           s.Title,
		CreatedAt:       s.CreatedAt,
		LastInteraction: s.LastInteraction,
		Messages:        messages,
	}
}
