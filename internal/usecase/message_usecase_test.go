package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"wassup/internal/entity"
	"wassup/internal/repository"

	"github.com/stretchr/testify/require"
)

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []entity.Message
	createErr error
	nextId    int
}

func (f *fakeMessageRepo) Get(_ context.Context, messageId string) (entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.Id == messageId {
			return m, nil
		}
	}
	return entity.Message{}, repository.ErrMessageNotFound
}

func (f *fakeMessageRepo) Create(_ context.Context, message entity.Message) (entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return entity.Message{}, f.createErr
	}
	f.nextId++
	message.Id = fmt.Sprintf("m%d", f.nextId)
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeMessageRepo) GetConversation(_ context.Context, userId, peerId string) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.messages {
		if (m.SenderId == userId && m.ReceiverId == peerId) ||
			(m.SenderId == peerId && m.ReceiverId == userId) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkSeen(_ context.Context, messageId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].Id == messageId {
			f.messages[i].Seen = true
		}
	}
	return nil
}

func (f *fakeMessageRepo) MarkConversationSeen(_ context.Context, senderId, receiverId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].SenderId == senderId && f.messages[i].ReceiverId == receiverId {
			f.messages[i].Seen = true
		}
	}
	return nil
}

func (f *fakeMessageRepo) CountUnseenBySender(_ context.Context, receiverId string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, m := range f.messages {
		if m.ReceiverId == receiverId && !m.Seen {
			counts[m.SenderId]++
		}
	}
	return counts, nil
}

type fakeUserRepo struct {
	users []entity.User
}

func (f *fakeUserRepo) Get(_ context.Context, userId string) (entity.User, error) {
	for _, u := range f.users {
		if u.Id == userId {
			return u, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(context.Background(), email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUserRepo) Create(_ context.Context, user entity.User) (string, error) {
	user.Id = fmt.Sprintf("u%d", len(f.users)+1)
	f.users = append(f.users, user)
	return user.Id, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user entity.User) error {
	for i := range f.users {
		if f.users[i].Id == user.Id {
			f.users[i] = user
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (f *fakeUserRepo) IndexExcept(_ context.Context, userId string) ([]entity.User, error) {
	var out []entity.User
	for _, u := range f.users {
		if u.Id != userId {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushed []entity.Message
}

func (f *fakeNotifier) MessageCreated(message entity.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, message)
}

func (f *fakeNotifier) all() []entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Message(nil), f.pushed...)
}

func TestSendMessagePersistsUnseenAndPushesOnce(t *testing.T) {
	t.Parallel()

	msgRepo := &fakeMessageRepo{}
	notifier := &fakeNotifier{}
	uc := NewMessageUsecase(msgRepo, &fakeUserRepo{}, notifier)

	sent, err := uc.SendMessage(context.Background(), "alice", "bob", "hi bob", "")
	require.NoError(t, err)
	require.NotEmpty(t, sent.Id)
	require.False(t, sent.Seen)
	require.Equal(t, "alice", sent.SenderId)
	require.Equal(t, "bob", sent.ReceiverId)

	stored, err := msgRepo.Get(context.Background(), sent.Id)
	require.NoError(t, err)
	require.False(t, stored.Seen)

	pushed := notifier.all()
	require.Len(t, pushed, 1)
	require.Equal(t, sent, pushed[0])
}

func TestSendMessageAllowsImageOnly(t *testing.T) {
	t.Parallel()

	uc := NewMessageUsecase(&fakeMessageRepo{}, &fakeUserRepo{}, &fakeNotifier{})

	sent, err := uc.SendMessage(context.Background(), "alice", "bob", "", "https://cdn.example/pic.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/pic.png", sent.Image)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	msgRepo := &fakeMessageRepo{}
	notifier := &fakeNotifier{}
	uc := NewMessageUsecase(msgRepo, &fakeUserRepo{}, notifier)

	_, err := uc.SendMessage(context.Background(), "alice", "bob", "", "")
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Empty(t, msgRepo.messages)
	require.Empty(t, notifier.all())
}

func TestSendMessagePersistenceFailureAborts(t *testing.T) {
	t.Parallel()

	bang := errors.New("store unreachable")
	msgRepo := &fakeMessageRepo{createErr: bang}
	notifier := &fakeNotifier{}
	uc := NewMessageUsecase(msgRepo, &fakeUserRepo{}, notifier)

	_, err := uc.SendMessage(context.Background(), "alice", "bob", "hi", "")
	require.ErrorIs(t, err, bang)
	require.Empty(t, notifier.all(), "a failed persist must not push")
}

func TestGetConversationMarksPeerMessagesSeen(t *testing.T) {
	t.Parallel()

	msgRepo := &fakeMessageRepo{}
	uc := NewMessageUsecase(msgRepo, &fakeUserRepo{}, nil)

	ctx := context.Background()
	_, err := uc.SendMessage(ctx, "alice", "bob", "one", "")
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "alice", "bob", "two", "")
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "bob", "alice", "reply", "")
	require.NoError(t, err)

	counts, err := msgRepo.CountUnseenBySender(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"alice": 2}, counts)

	messages, err := uc.GetConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, messages, 3)

	counts, err = msgRepo.CountUnseenBySender(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, counts)

	// Re-opening is idempotent.
	_, err = uc.GetConversation(ctx, "bob", "alice")
	require.NoError(t, err)

	// Bob's own outgoing message stays unseen for alice.
	counts, err = msgRepo.CountUnseenBySender(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"bob": 1}, counts)
}

func TestSidebarUsersOmitsZeroCounts(t *testing.T) {
	t.Parallel()

	msgRepo := &fakeMessageRepo{}
	userRepo := &fakeUserRepo{users: []entity.User{
		{Id: "a", FullName: "Alice", Password: "hash"},
		{Id: "b", FullName: "Bob", Password: "hash"},
		{Id: "c", FullName: "Carol", Password: "hash"},
	}}
	uc := NewMessageUsecase(msgRepo, userRepo, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := uc.SendMessage(ctx, "a", "b", "ping", "")
		require.NoError(t, err)
	}

	users, counts, err := uc.SidebarUsers(ctx, "b")
	require.NoError(t, err)

	require.Len(t, users, 2)
	for _, u := range users {
		require.NotEqual(t, "b", u.Id)
		require.Empty(t, u.Password)
	}

	require.Equal(t, map[string]int{"a": 3}, counts)
	require.NotContains(t, counts, "c")
}
