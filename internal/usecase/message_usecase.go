package usecase

import (
	"context"
	"errors"
	"time"
	"wassup/internal/entity"
	"wassup/internal/repository"
)

var ErrEmptyMessage = errors.New("message needs text or an image")

// MessageNotifier pushes a freshly stored message towards its
// recipient's live endpoint. Delivery is best effort: an offline
// recipient or a dropped frame is not an error, the stored message is
// the source of truth.
type MessageNotifier interface {
	MessageCreated(message entity.Message)
}

type MessageUsecase interface {
	SidebarUsers(ctx context.Context, userId string) ([]entity.User, map[string]int, error)
	GetConversation(ctx context.Context, userId, peerId string) ([]entity.Message, error)
	SendMessage(ctx context.Context, senderId, receiverId, text, image string) (entity.Message, error)
	MarkSeen(ctx context.Context, messageId string) error
}

type messageUsecase struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    MessageNotifier
}

func NewMessageUsecase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notifier MessageNotifier,
) MessageUsecase {
	return &messageUsecase{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// SidebarUsers returns every other user plus, per user, how many of
// their messages to userId are still unseen. Counts are recomputed
// from storage on every call; users with nothing unseen are absent
// from the map.
func (m *messageUsecase) SidebarUsers(ctx context.Context, userId string) ([]entity.User, map[string]int, error) {
	users, err := m.userRepo.IndexExcept(ctx, userId)
	if err != nil {
		return nil, nil, err
	}

	for i := range users {
		users[i].Password = ""
	}

	counts, err := m.messageRepo.CountUnseenBySender(ctx, userId)
	if err != nil {
		return nil, nil, err
	}

	return users, counts, nil
}

// GetConversation returns the full thread with peerId and bulk-marks
// everything the peer sent as seen. Re-opening an already seen
// conversation is a no-op on the seen flags.
func (m *messageUsecase) GetConversation(ctx context.Context, userId, peerId string) ([]entity.Message, error) {
	messages, err := m.messageRepo.GetConversation(ctx, userId, peerId)
	if err != nil {
		return nil, err
	}

	if err := m.messageRepo.MarkConversationSeen(ctx, peerId, userId); err != nil {
		return nil, err
	}

	return messages, nil
}

// SendMessage persists the message and then hands it to the notifier.
// A persistence failure aborts the send; a push that goes nowhere does
// not, the recipient will find the message in history.
func (m *messageUsecase) SendMessage(ctx context.Context, senderId, receiverId, text, image string) (entity.Message, error) {
	if text == "" && image == "" {
		return entity.Message{}, ErrEmptyMessage
	}

	message := entity.Message{
		SenderId:   senderId,
		ReceiverId: receiverId,
		Text:       text,
		Image:      image,
		Seen:       false,
		CreatedAt:  time.Now(),
	}

	saved, err := m.messageRepo.Create(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}

	if m.notifier != nil {
		m.notifier.MessageCreated(saved)
	}

	return saved, nil
}

func (m *messageUsecase) MarkSeen(ctx context.Context, messageId string) error {
	return m.messageRepo.MarkSeen(ctx, messageId)
}
