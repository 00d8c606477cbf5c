package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"wassup/internal/entity"
)

var ErrNoOpenConversation = errors.New("no conversation selected")

// Session holds the chat state for one logged-in user: the sidebar
// users, the one open conversation and the local unseen counts.
//
// Unseen counts are an approximation maintained incrementally from
// pushed messages; RefreshUsers replaces them with the server's
// recomputed values. The two can drift between refreshes, which the
// UI tolerates.
type Session struct {
	mu sync.Mutex

	api    ChatAPI
	socket *Socket

	users     []entity.User
	online    []string
	partnerId string
	messages  []entity.Message
	unseen    map[string]int
}

func NewSession(api ChatAPI, socket *Socket) *Session {
	s := &Session{
		api:    api,
		socket: socket,
		unseen: make(map[string]int),
	}

	socket.On(eventOnlineUsers, s.handleOnlineUsers)
	s.subscribe()

	return s
}

// subscribe rebinds the newMessage handler. The previous binding is
// always torn down first: with two live handlers every pushed message
// would be appended and counted twice.
func (s *Session) subscribe() {
	s.socket.Off(eventNewMessage)
	s.socket.On(eventNewMessage, s.handleNewMessage)
}

func (s *Session) handleOnlineUsers(data json.RawMessage) {
	var online []string
	if err := json.Unmarshal(data, &online); err != nil {
		log.Printf("decode online users: %v", err)
		return
	}

	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
}

func (s *Session) handleNewMessage(data json.RawMessage) {
	var message entity.Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Printf("decode pushed message: %v", err)
		return
	}

	s.mu.Lock()
	if s.partnerId != "" && message.SenderId == s.partnerId {
		message.Seen = true
		s.messages = append(s.messages, message)
		s.mu.Unlock()

		// Fire and forget; a missed receipt leaves the server count
		// stale until the next full reload.
		go func() {
			if err := s.api.MarkSeen(context.Background(), message.Id); err != nil {
				log.Printf("mark seen: %v", err)
			}
		}()
		return
	}

	s.unseen[message.SenderId]++
	s.mu.Unlock()
}

// RefreshUsers reloads the sidebar: the user list and the server's
// authoritative unseen counts, which replace the local approximation.
func (s *Session) RefreshUsers(ctx context.Context) error {
	users, counts, err := s.api.SidebarUsers(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.unseen = counts
	if s.unseen == nil {
		s.unseen = make(map[string]int)
	}
	s.mu.Unlock()
	return nil
}

// SelectConversation opens the thread with peerId, replacing the local
// message list with the fetched history (the server bulk-marks the
// peer's messages seen during the fetch) and rebinding the push
// subscription.
func (s *Session) SelectConversation(ctx context.Context, peerId string) error {
	messages, err := s.api.Conversation(ctx, peerId)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.partnerId = peerId
	s.messages = messages
	delete(s.unseen, peerId)
	s.mu.Unlock()

	s.subscribe()
	return nil
}

// ClearConversation returns to the no-conversation-open state; pushed
// messages then only bump unseen counts.
func (s *Session) ClearConversation() {
	s.mu.Lock()
	s.partnerId = ""
	s.messages = nil
	s.mu.Unlock()
}

// Send posts a message to the open conversation and appends the stored
// record locally.
func (s *Session) Send(ctx context.Context, text, image string) (entity.Message, error) {
	s.mu.Lock()
	peerId := s.partnerId
	s.mu.Unlock()
	if peerId == "" {
		return entity.Message{}, ErrNoOpenConversation
	}

	message, err := s.api.Send(ctx, peerId, text, image)
	if err != nil {
		return entity.Message{}, err
	}

	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
	return message, nil
}

func (s *Session) Users() []entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.User(nil), s.users...)
}

func (s *Session) Online() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.online...)
}

func (s *Session) Partner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partnerId
}

func (s *Session) Messages() []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Message(nil), s.messages...)
}

func (s *Session) UnseenCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int, len(s.unseen))
	for id, n := range s.unseen {
		counts[id] = n
	}
	return counts
}
