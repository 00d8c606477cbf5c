package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Event names mirrored from the server's push channel.
const (
	eventOnlineUsers = "getOnlineUsers"
	eventNewMessage  = "newMessage"
)

// Event is one inbound push frame; Data stays raw until a handler
// decodes it.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Handler func(data json.RawMessage)

// Socket is a thin event-dispatch layer over the websocket connection.
// Handlers are bound per event name with On and torn down with Off;
// every handler still bound when a frame arrives receives it, so a
// caller that binds twice without Off gets every frame twice.
type Socket struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string][]Handler
	done     chan struct{}
}

// Dial connects to the server's push endpoint, identifying as userId
// via the query string, and starts the read loop.
func Dial(ctx context.Context, baseURL, userId string) (*Socket, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, errors.New("unsupported scheme: " + u.Scheme)
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("userId", userId)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	s := newSocket(conn)
	go func() {
		defer close(s.done)
		s.readLoop()
	}()
	return s, nil
}

func newSocket(conn *websocket.Conn) *Socket {
	return &Socket{
		conn:     conn,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
}

func (s *Socket) On(event string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], h)
}

// Off removes every handler bound to the event.
func (s *Socket) Off(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, event)
}

// Done is closed when the read loop exits.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Socket) readLoop() {
	for {
		var ev Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			return
		}
		s.dispatch(ev)
	}
}

func (s *Socket) dispatch(ev Event) {
	s.mu.Lock()
	bound := append([]Handler(nil), s.handlers[ev.Event]...)
	s.mu.Unlock()

	for _, h := range bound {
		h(ev.Data)
	}
}
