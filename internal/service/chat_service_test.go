package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ai-companion-be/internal/apperrors"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/memory"

	"ai-companion-be/pkg/imagegen"
	"ai-companion-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

// fakeUserRepo mimics the document store's update semantics in memory.
type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	copied := *user
	copied.ChatSessions = make([]entity.ChatSession, len(user.ChatSessions))
	for i, sess := range user.ChatSessions {
		copied.ChatSessions[i] = sess
		copied.ChatSessions[i].Messages = append([]entity.Message(nil), sess.Messages...)
	}
	return &copied, nil
}

func (r *fakeUserRepo) Insert(_ context.Context, user *entity.User) error {
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) PushSession(_ context.Context, username string, session *entity.ChatSession, setCurrent bool) error {
	user, ok := r.users[username]
	if !ok {
		user = &entity.User{Username: username, CreatedAt: time.Now()}
		r.users[username] = user
	}
	user.ChatSessions = append(user.ChatSessions, *session)
	if setCurrent {
		user.CurrentSession = session.SessionID
	}
	return nil
}

func (r *fakeUserRepo) PullSession(_ context.Context, username, sessionID string) error {
	user, ok := r.users[username]
	if !ok {
		return nil
	}
	out := user.ChatSessions[:0]
	for _, sess := range user.ChatSessions {
		if sess.SessionID != sessionID {
			out = append(out, sess)
		}
	}
	user.ChatSessions = out
	return nil
}

func (r *fakeUserRepo) SetCurrentSession(_ context.Context, username, sessionID string) error {
	user, ok := r.users[username]
	if !ok {
		return errors.New("no document matched")
	}
	user.CurrentSession = sessionID
	return nil
}

func (r *fakeUserRepo) PushMessage(_ context.Context, username, sessionID string, msg *entity.Message) (bool, error) {
	user, ok := r.users[username]
	if !ok {
		return false, nil
	}
	sess := user.FindSession(sessionID)
	if sess == nil {
		return false, nil
	}
	sess.Messages = append(sess.Messages, *msg)
	sess.LastInteraction = msg.Timestamp
	user.LastInteraction = msg.Timestamp
	return true, nil
}

func (r *fakeUserRepo) SetSessionTitleIfFirstMessage(_ context.Context, username, sessionID, title string) (bool, error) {
	user, ok := r.users[username]
	if !ok {
		return false, nil
	}
	sess := user.FindSession(sessionID)
	if sess == nil || len(sess.Messages) != 1 {
		return false, nil
	}
	sess.Title = title
	return true, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, username string, active int) error {
	user, ok := r.users[username]
	if !ok {
		return errors.New("no document matched")
	}
	user.Active = active
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, username string) error {
	if _, ok := r.users[username]; !ok {
		return errors.New("no document matched")
	}
	delete(r.users, username)
	return nil
}

func (r *fakeUserRepo) FindAll(_ context.Context, search string) ([]*entity.User, error) {
	var out []*entity.User
	for name, user := range r.users {
		if search == "" || strings.Contains(strings.ToLower(name), strings.ToLower(search)) {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountUsers(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, user := range r.users {
		if user.Active == 1 {
			n++
		}
	}
	return n, nil
}

// fakeLLM replays scripted replies and records the windows it was asked for.
type fakeLLM struct {
	replies []string
	errs    []error
	chunks  []llm.StreamChunk

	calls   int
	windows [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.windows = append(f.windows, history)
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return "ok", nil
}

func (f *fakeLLM) ChatStream(_ context.Context, history []llm.Message, _ ...llm.Option) (<-chan llm.StreamChunk, error) {
	f.windows = append(f.windows, history)
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	out := make(chan llm.StreamChunk, len(f.chunks))
	for _, chunk := range f.chunks {
		out <- chunk
	}
	close(out)
	return out, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type fakeImageGen struct {
	data []byte
	err  error

	lastRequest imagegen.Request
}

func (f *fakeImageGen) GenerateImage(_ context.Context, req imagegen.Request) ([]byte, error) {
	f.lastRequest = req
	return f.data, f.err
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) UploadImage(_ context.Context, _ []byte) (string, error) {
	return f.url, f.err
}

// --- Harness ---

type chatFixture struct {
	repo     *fakeUserRepo
	provider *fakeLLM
	images   *fakeImageGen
	uploads  *fakeUploader
	svc      IChatService
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		repo:     newFakeUserRepo(),
		provider: &fakeLLM{},
		images:   &fakeImageGen{data: []byte("png-bytes")},
		uploads:  &fakeUploader{url: "https://res.example/leo_generations/pic.png"},
	}
	f.svc = NewChatService(
		f.repo,
		memory.NewContextRepository(),
		f.provider,
		f.images,
		f.uploads,
		logger.NewIsolatedLogger(t.TempDir()+"/test.log"),
	)
	return f
}

func (f *chatFixture) seedUser(username string, sessions ...entity.ChatSession) {
	f.repo.users[username] = &entity.User{
		Username:     username,
		Active:       1,
		CreatedAt:    time.Now(),
		ChatSessions: sessions,
	}
	if len(sessions) > 0 {
		f.repo.users[username].CurrentSession = sessions[0].SessionID
	}
}

func session(id, title string, msgs ...entity.Message) entity.ChatSession {
	return entity.ChatSession{
		SessionID: id,
		Title:     title,
		CreatedAt: time.Now(),
		Messages:  msgs,
	}
}

// --- Tests ---

func TestSendChatPersistsBothMessages(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", constant.FirstChatTitle))
	f.provider.replies = []string{"Hey you, I missed you."}

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hi Leo"})
	require.NoError(t, err)

	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, constant.RoleUser, res.Sent.Role)
	assert.Equal(t, "hi Leo", res.Sent.Content)
	assert.Equal(t, constant.RoleAssistant, res.Reply.Role)
	assert.Equal(t, "Hey you, I missed you.", res.Reply.Content)

	stored := f.repo.users["alice"].FindSession("s1")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, constant.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, constant.RoleAssistant, stored.Messages[1].Role)
}

func TestSendChatFirstMessageBecomesTitle(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", constant.FirstChatTitle))

	long := strings.Repeat("a", 40)
	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: long})
	require.NoError(t, err)

	want := strings.Repeat("a", constant.SessionTitleMax) + constant.SessionTitleMark
	assert.Equal(t, want, res.SessionTitle)
	assert.Equal(t, want, f.repo.users["alice"].FindSession("s1").Title)
}

func TestSendChatShortFirstMessageTitleNotTruncated(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", constant.FirstChatTitle))

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "good morning"})
	require.NoError(t, err)
	assert.Equal(t, "good morning", res.SessionTitle)
}

func TestSendChatTitleOnlySetOnce(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", constant.FirstChatTitle))

	_, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "first"})
	require.NoError(t, err)
	_, err = f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "second"})
	require.NoError(t, err)

	assert.Equal(t, "first", f.repo.users["alice"].FindSession("s1").Title)
}

func TestSendChatWindowHasPersonaAndTrailingHistory(t *testing.T) {
	f := newChatFixture(t)

	history := make([]entity.Message, 0, 12)
	for i := 0; i < 12; i++ {
		role := constant.RoleUser
		if i%2 == 1 {
			role = constant.RoleAssistant
		}
		history = append(history, entity.Message{Role: role, Content: fmt.Sprintf("m%d", i), Timestamp: time.Now()})
	}
	f.seedUser("alice", session("s1", "Old", history...))

	_, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "newest"})
	require.NoError(t, err)

	require.Len(t, f.provider.windows, 1)
	window := f.provider.windows[0]

	// persona + 9 trailing + the new message
	require.Len(t, window, constant.ConversationWindow+2)
	assert.Equal(t, constant.RoleSystem, window[0].Role)
	assert.Equal(t, constant.CompanionSystemPrompt, window[0].Content)
	assert.Equal(t, "m3", window[1].Content)
	assert.Equal(t, "m11", window[constant.ConversationWindow].Content)
	assert.Equal(t, "newest", window[len(window)-1].Content)
}

func TestSendChatQuotaFallbackIsPersisted(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.errs = []error{llm.ErrQuotaExceeded}

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hello?"})
	require.NoError(t, err)

	assert.Equal(t, constant.FallbackQuotaExceeded, res.Reply.Content)
	assert.Equal(t, constant.NoticeQuotaWarning, res.Notice)

	stored := f.repo.users["alice"].FindSession("s1")
	assert.Equal(t, constant.FallbackQuotaExceeded, stored.Messages[len(stored.Messages)-1].Content)
}

func TestSendChatConnectionFallback(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.errs = []error{errors.New("dial tcp: connection refused")}

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hello?"})
	require.NoError(t, err)

	assert.Equal(t, constant.FallbackConnection, res.Reply.Content)
	assert.Empty(t, res.Notice)
}

func TestSendChatUnknownSession(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat"))

	_, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{SessionID: "ghost", Chat: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSendChatUnknownUser(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendChat(context.Background(), "nobody", &dto.SendChatRequest{Chat: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSendChatImageTrigger(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.replies = []string{"masterpiece, romantic couple at sunset"}

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "draw me a sunset for us"})
	require.NoError(t, err)

	assert.Equal(t, f.uploads.url, res.ImageURL)
	assert.Contains(t, res.Reply.Content, "draw me a sunset for us")
	assert.Contains(t, res.Reply.Content, f.uploads.url)

	// The generator got the derived prompt, not the raw chat
	assert.Equal(t, "masterpiece, romantic couple at sunset", f.images.lastRequest.Prompt)
	assert.Equal(t, constant.ImageNegativePrompt, f.images.lastRequest.NegativePrompt)
}

func TestSendChatImageGenerationFailure(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.replies = []string{"prompt"}
	f.images.err = imagegen.ErrGenerationFailed

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "show me the beach"})
	require.NoError(t, err)

	assert.Empty(t, res.ImageURL)
	assert.Equal(t, constant.NoticeImageGenerationFailed, res.Reply.Content)
}

func TestSendChatImageFailureCopyPerOutcome(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"quota exhausted", fmt.Errorf("%w: status 402", imagegen.ErrQuotaExceeded), constant.NoticeImageQuotaExceeded},
		{"safety rejection", fmt.Errorf("%w: status 422", imagegen.ErrContentRejected), constant.NoticeImageContentRejected},
		{"busy after retries", fmt.Errorf("%w: model still loading after 3 attempts", imagegen.ErrModelBusy), constant.NoticeImageModelBusy},
		{"generic failure", fmt.Errorf("%w: status 500", imagegen.ErrGenerationFailed), constant.NoticeImageGenerationFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newChatFixture(t)
			f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
			f.provider.replies = []string{"prompt"}
			f.images.err = tc.err

			res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "show me the beach"})
			require.NoError(t, err)

			assert.Empty(t, res.ImageURL)
			assert.Equal(t, tc.want, res.Reply.Content)

			stored := f.repo.users["alice"].FindSession("s1")
			assert.Equal(t, tc.want, stored.Messages[len(stored.Messages)-1].Content)
		})
	}
}

func TestSendChatImageUploadFailure(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.replies = []string{"prompt"}
	f.uploads.err = errors.New("cloud down")

	res, err := f.svc.SendChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "picture of us"})
	require.NoError(t, err)

	assert.Empty(t, res.ImageURL)
	assert.Equal(t, constant.NoticeImageUploadFailed, res.Reply.Content)
}

func TestStreamChatEmitsFragmentsThenDone(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.chunks = []llm.StreamChunk{{Content: "I "}, {Content: "love "}, {Content: "you"}}

	var events []dto.StreamEvent
	err := f.svc.StreamChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hey"}, func(e dto.StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, "fragment", events[0].Type)
	assert.Equal(t, "done", events[3].Type)
	assert.Equal(t, "I love you", events[3].Message.Content)

	stored := f.repo.users["alice"].FindSession("s1")
	assert.Equal(t, "I love you", stored.Messages[len(stored.Messages)-1].Content)
}

func TestStreamChatMidStreamErrorFallsBack(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.chunks = []llm.StreamChunk{{Content: "Hel"}, {Err: errors.New("connection reset")}}

	var events []dto.StreamEvent
	err := f.svc.StreamChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hey"}, func(e dto.StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	last := events[len(events)-1]
	require.Equal(t, "done", last.Type)
	assert.Equal(t, "Hel"+constant.FallbackConnection, last.Message.Content)
	assert.Empty(t, last.Notice)
}

func TestStreamChatQuotaCarriesNotice(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.errs = []error{fmt.Errorf("%w: 402", llm.ErrQuotaExceeded)}

	var events []dto.StreamEvent
	err := f.svc.StreamChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hey"}, func(e dto.StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, constant.FallbackQuotaExceeded, events[0].Fragment)
	require.Equal(t, "done", events[1].Type)
	assert.Equal(t, constant.FallbackQuotaExceeded, events[1].Message.Content)
	assert.Equal(t, constant.NoticeQuotaWarning, events[1].Notice)
}

func TestStreamChatMidStreamQuotaCarriesNotice(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.chunks = []llm.StreamChunk{{Content: "My "}, {Err: fmt.Errorf("%w: 402", llm.ErrQuotaExceeded)}}

	var events []dto.StreamEvent
	err := f.svc.StreamChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "hey"}, func(e dto.StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	last := events[len(events)-1]
	require.Equal(t, "done", last.Type)
	assert.Equal(t, "My "+constant.FallbackQuotaExceeded, last.Message.Content)
	assert.Equal(t, constant.NoticeQuotaWarning, last.Notice)
}

func TestStreamChatImageTurnCarriesNotice(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat", entity.Message{Role: constant.RoleUser, Content: "x"}))
	f.provider.errs = []error{fmt.Errorf("%w: 402", llm.ErrQuotaExceeded)}

	var events []dto.StreamEvent
	err := f.svc.StreamChat(context.Background(), "alice", &dto.SendChatRequest{Chat: "draw me a sunset"}, func(e dto.StreamEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	require.Equal(t, "done", events[0].Type)
	assert.Equal(t, constant.FallbackQuotaExceeded, events[0].Message.Content)
	assert.Equal(t, constant.NoticeQuotaWarning, events[0].Notice)
}

func TestCreateSessionBecomesCurrent(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "Chat"))

	res, err := f.svc.CreateSession(context.Background(), "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, constant.NewChatTitle, res.Title)
	assert.Equal(t, res.SessionID, f.repo.users["alice"].CurrentSession)
}

func TestDeleteSessionPromotesSurvivor(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "A"), session("s2", "B"))

	newCurrent, err := f.svc.DeleteSession(context.Background(), "alice", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s2", newCurrent)
	assert.Nil(t, f.repo.users["alice"].FindSession("s1"))
	assert.Equal(t, "s2", f.repo.users["alice"].CurrentSession)
}

func TestDeleteLastSessionCreatesFreshOne(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "A", entity.Message{Role: constant.RoleUser, Content: "bye"}))

	newCurrent, err := f.svc.DeleteSession(context.Background(), "alice", "s1")
	require.NoError(t, err)
	require.NotEmpty(t, newCurrent)
	assert.NotEqual(t, "s1", newCurrent)

	user := f.repo.users["alice"]
	require.Len(t, user.ChatSessions, 1)
	assert.Equal(t, constant.NewChatTitle, user.ChatSessions[0].Title)
	assert.Empty(t, user.ChatSessions[0].Messages)
	assert.Equal(t, newCurrent, user.CurrentSession)
}

func TestSetCurrentSessionValidatesMembership(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "A"), session("s2", "B"))

	require.NoError(t, f.svc.SetCurrentSession(context.Background(), "alice", "s2"))
	assert.Equal(t, "s2", f.repo.users["alice"].CurrentSession)

	err := f.svc.SetCurrentSession(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetMessagesPreservesOrder(t *testing.T) {
	f := newChatFixture(t)
	f.seedUser("alice", session("s1", "A",
		entity.Message{Role: constant.RoleUser, Content: "one", Timestamp: time.Now()},
		entity.Message{Role: constant.RoleAssistant, Content: "two", Timestamp: time.Now()},
	))

	msgs, err := f.svc.GetMessages(context.Background(), "alice", "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
}

func TestIsImageRequestTriggers(t *testing.T) {
	cases := map[string]bool{
		"Show me the stars":          true,
		"can you IMAGINE a beach":    true,
		"draw me like one of those":  true,
		"a picture of us":            true,
		"please generate an image":   true,
		"tell me about your day":     false,
		"I drew something yesterday": false,
	}
	for input, want := range cases {
		assert.Equal(t, want, isImageRequest(input), "input %q", input)
	}
}
