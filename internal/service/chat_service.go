// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-companion-be/internal/apperrors"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/memory"

	"ai-companion-be/pkg/imagegen"
	"ai-companion-be/pkg/llm"
	"ai-companion-be/pkg/media"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context, username string, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	ListSessions(ctx context.Context, username string) ([]dto.SessionSummaryResponse, error)
	GetCurrentSessionID(ctx context.Context, username string) (string, error)
	SetCurrentSession(ctx context.Context, username, sessionID string) error
	DeleteSession(ctx context.Context, username, sessionID string) (string, error)
	GetMessages(ctx context.Context, username, sessionID string) ([]dto.MessageResponse, error)
	SendChat(ctx context.Context, username string, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	StreamChat(ctx context.Context, username string, req *dto.SendChatRequest, emit func(dto.StreamEvent) error) error
}

type chatService struct {
	userRepo    contract.UserRepository
	contextRepo *memory.ContextRepository
	llmProvider llm.Provider
	imageGen    imagegen.Provider
	uploader    media.Uploader
	logger      logger.ILogger
}

func NewChatService(
	userRepo contract.UserRepository,
	contextRepo *memory.ContextRepository,
	llmProvider llm.Provider,
	imageGen imagegen.Provider,
	uploader media.Uploader,
	log logger.ILogger,
) IChatService {
	return &chatService{
		userRepo:    userRepo,
		contextRepo: contextRepo,
		llmProvider: llmProvider,
		imageGen:    imageGen,
		uploader:    uploader,
		logger:      log,
	}
}

// --- Session management ---

func (s *chatService) CreateSession(ctx context.Context, username string, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	title := req.Title
	if title == "" {
		title = constant.NewChatTitle
	}

	session := &entity.ChatSession{
		SessionID: uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now(),
		Messages:  []entity.Message{},
	}

	if err := s.userRepo.PushSession(ctx, username, session, true); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	s.contextRepo.Save(&memory.ChatContext{Username: username, SessionID: session.SessionID})

	s.logger.Info("ChatService", "Session created", map[string]interface{}{
		"username":   username,
		"session_id": session.SessionID,
	})

	return &dto.CreateSessionResponse{SessionID: session.SessionID, Title: session.Title}, nil
}

func (s *chatService) ListSessions(ctx context.Context, username string) ([]dto.SessionSummaryResponse, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.SessionSummaryResponse, 0, len(user.ChatSessions))
	for i := range user.ChatSessions {
		sess := &user.ChatSessions[i]
		summaries = append(summaries, dto.SessionSummaryResponse{
			SessionID:       sess.SessionID,
			Title:           sess.Title,
			MessageCount:    len(sess.Messages),
			Current:         sess.SessionID == user.CurrentSession,
			CreatedAt:       sess.CreatedAt,
			LastInteraction: sess.LastInteraction,
		})
	}
	return summaries, nil
}

func (s *chatService) GetCurrentSessionID(ctx context.Context, username string) (string, error) {
	if cc, found := s.contextRepo.Get(username); found {
		return cc.SessionID, nil
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return "", err
	}
	if user.CurrentSession != "" {
		s.contextRepo.Save(&memory.ChatContext{Username: username, SessionID: user.CurrentSession})
	}
	return user.CurrentSession, nil
}

func (s *chatService) SetCurrentSession(ctx context.Context, username, sessionID string) error {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	if user.FindSession(sessionID) == nil {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}

	if err := s.userRepo.SetCurrentSession(ctx, username, sessionID); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	s.contextRepo.Save(&memory.ChatContext{Username: username, SessionID: sessionID})
	return nil
}

// DeleteSession removes the session and returns the id that is current
// afterwards: the first surviving session, or a freshly created one when the
// last session was deleted.
func (s *chatService) DeleteSession(ctx context.Context, username, sessionID string) (string, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return "", err
	}
	if user.FindSession(sessionID) == nil {
		return "", fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}

	if err := s.userRepo.PullSession(ctx, username, sessionID); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	s.contextRepo.Delete(username)

	var survivor string
	for i := range user.ChatSessions {
		if user.ChatSessions[i].SessionID != sessionID {
			survivor = user.ChatSessions[i].SessionID
			break
		}
	}

	if survivor == "" {
		fresh := &entity.ChatSession{
			SessionID: uuid.New().String(),
			Title:     constant.NewChatTitle,
			CreatedAt: time.Now(),
			Messages:  []entity.Message{},
		}
		if err := s.userRepo.PushSession(ctx, username, fresh, true); err != nil {
			return "", fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
		}
		survivor = fresh.SessionID
	} else if err := s.userRepo.SetCurrentSession(ctx, username, survivor); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	s.contextRepo.Save(&memory.ChatContext{Username: username, SessionID: survivor})

	s.logger.Info("ChatService", "Session deleted", map[string]interface{}{
		"username":    username,
		"session_id":  sessionID,
		"new_current": survivor,
	})
	return survivor, nil
}

func (s *chatService) GetMessages(ctx context.Context, username, sessionID string) ([]dto.MessageResponse, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	session := user.FindSession(sessionID)
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}

	messages := make([]dto.MessageResponse, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messages = append(messages, dto.MessageResponse{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return messages, nil
}

// --- Chatting ---

func (s *chatService) SendChat(ctx context.Context, username string, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	turn, err := s.beginTurn(ctx, username, req)
	if err != nil {
		return nil, err
	}

	var (
		reply    string
		imageURL string
		notice   string
	)

	if isImageRequest(req.Chat) {
		reply, imageURL, notice = s.runImageTurn(ctx, req.Chat)
	} else {
		reply, notice = s.runTextTurn(ctx, turn.window)
	}

	assistantMsg, err := s.persistReply(ctx, username, turn.sessionID, reply)
	if err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		SessionID:    turn.sessionID,
		SessionTitle: turn.title,
		Sent: &dto.MessageResponse{
			Role:      turn.userMsg.Role,
			Content:   turn.userMsg.Content,
			Timestamp: turn.userMsg.Timestamp,
		},
		Reply: &dto.MessageResponse{
			Role:      assistantMsg.Role,
			Content:   assistantMsg.Content,
			Timestamp: assistantMsg.Timestamp,
		},
		ImageURL: imageURL,
		Notice:   notice,
	}, nil
}

// StreamChat runs one chat turn, emitting a fragment event per model chunk
// and a final done event carrying the persisted assistant message. Image
// requests produce no fragments, only the done frame.
func (s *chatService) StreamChat(ctx context.Context, username string, req *dto.SendChatRequest, emit func(dto.StreamEvent) error) error {
	turn, err := s.beginTurn(ctx, username, req)
	if err != nil {
		return err
	}

	var reply, notice string

	if isImageRequest(req.Chat) {
		reply, _, notice = s.runImageTurn(ctx, req.Chat)
	} else {
		chunks, streamErr := s.llmProvider.ChatStream(ctx, turn.window,
			llm.WithMaxTokens(constant.CompletionMaxTokens),
			llm.WithTemperature(constant.CompletionTemperature),
		)
		if streamErr != nil {
			reply = fallbackFor(streamErr)
			notice = noticeFor(streamErr)
			if emitErr := emit(dto.StreamEvent{Type: "fragment", Fragment: reply}); emitErr != nil {
				return emitErr
			}
		} else {
			var sb strings.Builder
			for chunk := range chunks {
				if chunk.Err != nil {
					fallback := fallbackFor(chunk.Err)
					notice = noticeFor(chunk.Err)
					if emitErr := emit(dto.StreamEvent{Type: "fragment", Fragment: fallback}); emitErr != nil {
						return emitErr
					}
					sb.WriteString(fallback)
					break
				}
				if emitErr := emit(dto.StreamEvent{Type: "fragment", Fragment: chunk.Content}); emitErr != nil {
					return emitErr
				}
				sb.WriteString(chunk.Content)
			}
			reply = sb.String()
		}
	}

	assistantMsg, err := s.persistReply(ctx, username, turn.sessionID, reply)
	if err != nil {
		return emit(dto.StreamEvent{Type: "error", Error: "failed to save reply"})
	}

	return emit(dto.StreamEvent{
		Type:   "done",
		Notice: notice,
		Message: &dto.MessageResponse{
			Role:      assistantMsg.Role,
			Content:   assistantMsg.Content,
			Timestamp: assistantMsg.Timestamp,
		},
	})
}

// chatTurn carries everything resolved at the start of a chat turn.
type chatTurn struct {
	sessionID string
	title     string
	userMsg   *entity.Message
	window    []llm.Message
}

// beginTurn resolves the target session, persists the user message, applies
// the first-message title rule and builds the model conversation window.
func (s *chatService) beginTurn(ctx context.Context, username string, req *dto.SendChatRequest) (*chatTurn, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = user.CurrentSession
	}
	session := user.FindSession(sessionID)
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}

	if sessionID != user.CurrentSession {
		if err := s.userRepo.SetCurrentSession(ctx, username, sessionID); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
		}
	}
	s.contextRepo.Save(&memory.ChatContext{Username: username, SessionID: sessionID})

	userMsg := &entity.Message{
		Role:      constant.RoleUser,
		Content:   req.Chat,
		Timestamp: time.Now(),
	}
	matched, err := s.userRepo.PushMessage(ctx, username, sessionID, userMsg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}

	title := session.Title
	if len(session.Messages) == 0 {
		derived := deriveTitle(req.Chat)
		won, titleErr := s.userRepo.SetSessionTitleIfFirstMessage(ctx, username, sessionID, derived)
		if titleErr != nil {
			s.logger.Warn("ChatService", "Failed to set session title", map[string]interface{}{
				"username":   username,
				"session_id": sessionID,
				"error":      titleErr.Error(),
			})
		} else if won {
			title = derived
		}
	}

	// Persona, then the trailing window of history, then the new message.
	window := make([]llm.Message, 0, constant.ConversationWindow+2)
	window = append(window, llm.Message{Role: constant.RoleSystem, Content: constant.CompanionSystemPrompt})
	history := session.Messages
	if len(history) > constant.ConversationWindow {
		history = history[len(history)-constant.ConversationWindow:]
	}
	for _, msg := range history {
		window = append(window, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	window = append(window, llm.Message{Role: constant.RoleUser, Content: req.Chat})

	return &chatTurn{
		sessionID: sessionID,
		title:     title,
		userMsg:   userMsg,
		window:    window,
	}, nil
}

// runTextTurn asks the model for a reply. Upstream failures never escape;
// the companion answers with fixed fallback copy instead.
func (s *chatService) runTextTurn(ctx context.Context, window []llm.Message) (reply, notice string) {
	reply, err := s.llmProvider.Chat(ctx, window,
		llm.WithMaxTokens(constant.CompletionMaxTokens),
		llm.WithTemperature(constant.CompletionTemperature),
	)
	if err == nil {
		return reply, ""
	}

	s.logger.Warn("ChatService", "Completion failed", map[string]interface{}{
		"error": err.Error(),
	})

	fallback := fallbackFor(err)
	if errors.Is(err, llm.ErrQuotaExceeded) {
		return fallback, constant.NoticeQuotaWarning
	}
	return fallback, ""
}

// runImageTurn derives an image prompt from the user's request, generates the
// image and uploads it. Each stage degrades to conversational copy on
// failure rather than surfacing an error.
func (s *chatService) runImageTurn(ctx context.Context, chat string) (reply, imageURL, notice string) {
	derivedPrompt, err := s.llmProvider.Chat(ctx, []llm.Message{
		{Role: constant.RoleSystem, Content: constant.CompanionSystemPrompt},
		{Role: constant.RoleUser, Content: fmt.Sprintf(constant.ImagePromptInstruction, chat)},
	})
	if err != nil {
		s.logger.Warn("ChatService", "Image prompt derivation failed", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, llm.ErrQuotaExceeded) {
			return constant.FallbackQuotaExceeded, "", constant.NoticeQuotaWarning
		}
		return constant.NoticeImageGenerationFailed, "", ""
	}

	imageData, err := s.imageGen.GenerateImage(ctx, imagegen.Request{
		Prompt:         derivedPrompt,
		NegativePrompt: constant.ImageNegativePrompt,
	})
	if err != nil {
		s.logger.Warn("ChatService", "Image generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return imageFailureCopy(err), "", ""
	}

	url, err := s.uploader.UploadImage(ctx, imageData)
	if err != nil {
		s.logger.Warn("ChatService", "Image upload failed", map[string]interface{}{
			"error": err.Error(),
		})
		return constant.NoticeImageUploadFailed, "", ""
	}

	return fmt.Sprintf(constant.ImageReplyFormat, chat, url), url, ""
}

func (s *chatService) persistReply(ctx context.Context, username, sessionID, reply string) (*entity.Message, error) {
	assistantMsg := &entity.Message{
		Role:      constant.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}
	matched, err := s.userRepo.PushMessage(ctx, username, sessionID, assistantMsg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return assistantMsg, nil
}

func (s *chatService) findUser(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, username)
	}
	return user, nil
}

func isImageRequest(chat string) bool {
	lower := strings.ToLower(chat)
	for _, phrase := range constant.ImageTriggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func deriveTitle(chat string) string {
	runes := []rune(chat)
	if len(runes) > constant.SessionTitleMax {
		return string(runes[:constant.SessionTitleMax]) + constant.SessionTitleMark
	}
	return chat
}

func fallbackFor(err error) string {
	if errors.Is(err, llm.ErrQuotaExceeded) {
		return constant.FallbackQuotaExceeded
	}
	return constant.FallbackConnection
}

func noticeFor(err error) string {
	if errors.Is(err, llm.ErrQuotaExceeded) {
		return constant.NoticeQuotaWarning
	}
	return ""
}

// imageFailureCopy picks the companion's in-character reply for a failed
// image generation, one line per terminal outcome.
func imageFailureCopy(err error) string {
	switch {
	case errors.Is(err, imagegen.ErrQuotaExceeded):
		return constant.NoticeImageQuotaExceeded
	case errors.Is(err, imagegen.ErrContentRejected):
		return constant.NoticeImageContentRejected
	case errors.Is(err, imagegen.ErrModelBusy):
		return constant.NoticeImageModelBusy
	default:
		return constant.NoticeImageGenerationFailed
	}
}
