package ws

import "log"

// Hub serializes all registry mutations on a single Run loop, so
// connect/disconnect handling needs no locking of its own. After every
// mutation the presence callback fires with a full snapshot of online
// user ids.
type Hub struct {
	registry   *Registry
	broadcast  chan []byte
	register   chan *UserClient
	unregister chan *UserClient

	onPresenceChange func(online []string)
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry:   registry,
		broadcast:  make(chan []byte, 256),
		register:   make(chan *UserClient),
		unregister: make(chan *UserClient),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if replaced := h.registry.Set(client); replaced != nil {
				replaced.closeSend()
				log.Printf("%s reconnected, replacing previous endpoint", client.UserId)
			} else {
				log.Printf("%s is connected", client.UserId)
			}
			h.notifyPresence()

		case client := <-h.unregister:
			if h.registry.Remove(client) {
				client.closeSend()
				log.Printf("%s is disconnected", client.UserId)
				h.notifyPresence()
			}

		case message := <-h.broadcast:
			for _, userId := range h.registry.UserIds() {
				h.SendToClient(userId, message)
			}
		}
	}
}

func (h *Hub) notifyPresence() {
	if h.onPresenceChange != nil {
		h.onPresenceChange(h.registry.UserIds())
	}
}

// SendToClient pushes a frame to the user's endpoint if one is
// registered. An offline user is a silent no-op: stored messages are
// the source of truth, the push is best effort.
func (h *Hub) SendToClient(userID string, message []byte) {
	client, ok := h.registry.Get(userID)
	if !ok {
		return
	}
	if !client.trySend(message) {
		log.Printf("dropping frame for %s", userID)
	}
}

func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

func (h *Hub) OnlineUserIds() []string {
	return h.registry.UserIds()
}

func (h *Hub) GetClientCount() int {
	return h.registry.Len()
}

func (h *Hub) RegisterClient(client *UserClient) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *UserClient) {
	h.unregister <- client
}

// SetOnPresenceChange installs the presence callback. Set it before
// calling Run.
func (h *Hub) SetOnPresenceChange(callback func(online []string)) {
	h.onPresenceChange = callback
}
