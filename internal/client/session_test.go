package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"
	"wassup/internal/entity"

	"github.com/stretchr/testify/require"
)

type fakeChatAPI struct {
	users         []entity.User
	counts        map[string]int
	conversations map[string][]entity.Message
	markSeen      chan string
}

func newFakeChatAPI() *fakeChatAPI {
	return &fakeChatAPI{
		counts:        map[string]int{},
		conversations: map[string][]entity.Message{},
		markSeen:      make(chan string, 16),
	}
}

func (f *fakeChatAPI) SidebarUsers(_ context.Context) ([]entity.User, map[string]int, error) {
	return f.users, f.counts, nil
}

func (f *fakeChatAPI) Conversation(_ context.Context, peerId string) ([]entity.Message, error) {
	return f.conversations[peerId], nil
}

func (f *fakeChatAPI) Send(_ context.Context, peerId, text, image string) (entity.Message, error) {
	return entity.Message{Id: "sent-1", SenderId: "me", ReceiverId: peerId, Text: text, Image: image}, nil
}

func (f *fakeChatAPI) MarkSeen(_ context.Context, messageId string) error {
	f.markSeen <- messageId
	return nil
}

func pushMessage(t *testing.T, s *Socket, message entity.Message) {
	t.Helper()
	data, err := json.Marshal(message)
	require.NoError(t, err)
	s.dispatch(Event{Event: eventNewMessage, Data: data})
}

func waitMarkSeen(t *testing.T, api *fakeChatAPI) string {
	t.Helper()
	select {
	case id := <-api.markSeen:
		return id
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for mark-seen call")
		return ""
	}
}

func requireNoMarkSeen(t *testing.T, api *fakeChatAPI) {
	t.Helper()
	select {
	case id := <-api.markSeen:
		t.Fatalf("unexpected mark-seen call for %s", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIncomingFromOpenPartnerAppendsAndMarksSeen(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	require.NoError(t, session.SelectConversation(context.Background(), "alice"))

	pushMessage(t, socket, entity.Message{Id: "m1", SenderId: "alice", ReceiverId: "me", Text: "hi"})

	messages := session.Messages()
	require.Len(t, messages, 1)
	require.True(t, messages[0].Seen, "live-delivered open-thread message is displayed as seen")

	require.Equal(t, "m1", waitMarkSeen(t, api))
	require.Empty(t, session.UnseenCounts())
}

func TestIncomingFromOtherSenderIncrementsUnseen(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	require.NoError(t, session.SelectConversation(context.Background(), "alice"))

	pushMessage(t, socket, entity.Message{Id: "m1", SenderId: "bob", ReceiverId: "me", Text: "yo"})
	pushMessage(t, socket, entity.Message{Id: "m2", SenderId: "bob", ReceiverId: "me", Text: "yo again"})

	require.Equal(t, map[string]int{"bob": 2}, session.UnseenCounts())
	require.Empty(t, session.Messages(), "other-thread messages do not enter the open thread")
	requireNoMarkSeen(t, api)
}

func TestRebindDeliversExactlyOnce(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	// Every select rebinds the subscription; teardown-then-rebind
	// must never stack handlers.
	ctx := context.Background()
	require.NoError(t, session.SelectConversation(ctx, "alice"))
	require.NoError(t, session.SelectConversation(ctx, "bob"))
	require.NoError(t, session.SelectConversation(ctx, "alice"))

	pushMessage(t, socket, entity.Message{Id: "m1", SenderId: "alice", ReceiverId: "me", Text: "once"})

	require.Len(t, session.Messages(), 1, "exactly one append per pushed message")
	require.Equal(t, "m1", waitMarkSeen(t, api))
	requireNoMarkSeen(t, api)
	require.Empty(t, session.UnseenCounts())
}

func TestSelectConversationReplacesThread(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	api.conversations["alice"] = []entity.Message{
		{Id: "h1", SenderId: "alice", ReceiverId: "me", Text: "old", Seen: true},
		{Id: "h2", SenderId: "me", ReceiverId: "alice", Text: "older", Seen: true},
	}
	socket := newSocket(nil)
	session := NewSession(api, socket)

	require.NoError(t, session.SelectConversation(context.Background(), "alice"))
	require.Equal(t, "alice", session.Partner())
	require.Len(t, session.Messages(), 2)

	require.NoError(t, session.SelectConversation(context.Background(), "bob"))
	require.Equal(t, "bob", session.Partner())
	require.Empty(t, session.Messages())
}

func TestSelectConversationClearsUnseenForPeer(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	pushMessage(t, socket, entity.Message{Id: "m1", SenderId: "alice", ReceiverId: "me", Text: "ping"})
	require.Equal(t, map[string]int{"alice": 1}, session.UnseenCounts())

	// Opening the thread implies the server bulk-marked it seen.
	require.NoError(t, session.SelectConversation(context.Background(), "alice"))
	require.Empty(t, session.UnseenCounts())
}

func TestClearConversationCountsInsteadOfAppending(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	require.NoError(t, session.SelectConversation(context.Background(), "alice"))
	session.ClearConversation()
	require.Empty(t, session.Partner())

	pushMessage(t, socket, entity.Message{Id: "m1", SenderId: "alice", ReceiverId: "me", Text: "hi"})

	require.Empty(t, session.Messages())
	require.Equal(t, map[string]int{"alice": 1}, session.UnseenCounts())
	requireNoMarkSeen(t, api)
}

func TestRefreshUsersReplacesLocalCounts(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	api.users = []entity.User{{Id: "alice"}, {Id: "bob"}}
	api.counts = map[string]int{"alice": 5}
	socket := newSocket(nil)
	session := NewSession(api, socket)

	pushMessage(t, socket, entity.Message{Id: "m1", SenderId: "bob", ReceiverId: "me", Text: "hi"})
	require.Equal(t, map[string]int{"bob": 1}, session.UnseenCounts())

	// The server's recomputed counts win on reload.
	require.NoError(t, session.RefreshUsers(context.Background()))
	require.Equal(t, map[string]int{"alice": 5}, session.UnseenCounts())
	require.Len(t, session.Users(), 2)
}

func TestSendAppendsStoredMessage(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	require.NoError(t, session.SelectConversation(context.Background(), "alice"))

	sent, err := session.Send(context.Background(), "hello", "")
	require.NoError(t, err)
	require.Equal(t, "sent-1", sent.Id)

	messages := session.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, "alice", messages[0].ReceiverId)
}

func TestOnlineUsersSnapshot(t *testing.T) {
	t.Parallel()

	api := newFakeChatAPI()
	socket := newSocket(nil)
	session := NewSession(api, socket)

	data, err := json.Marshal([]string{"alice", "bob"})
	require.NoError(t, err)
	socket.dispatch(Event{Event: eventOnlineUsers, Data: data})

	require.ElementsMatch(t, []string{"alice", "bob"}, session.Online())
}
