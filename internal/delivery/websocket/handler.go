package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"wassup/infrastructure/ws"
	"wassup/internal/usecase"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebsocketHandler struct {
	hub       ws.IHub
	messageUc usecase.MessageUsecase
}

func NewWebsocketHandler(hub ws.IHub, messageUc usecase.MessageUsecase) *WebsocketHandler {
	h := &WebsocketHandler{
		hub:       hub,
		messageUc: messageUc,
	}
	hub.SetOnPresenceChange(h.BroadcastPresence)
	return h
}

// HandleWebSocket upgrades the connection and registers the client
// under the identity carried in the userId query parameter.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userId := r.URL.Query().Get("userId")
	if userId == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(userId, h.hub, conn)
	h.hub.RegisterClient(client)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.handleInbound(ctx, client, data)
	})
}

// BroadcastPresence pushes the full online-user snapshot to everyone.
// The hub calls it after every register/unregister.
func (h *WebsocketHandler) BroadcastPresence(online []string) {
	payload, err := json.Marshal(Event{Event: EventOnlineUsers, Data: online})
	if err != nil {
		log.Printf("Marshal presence event error: %v", err)
		return
	}

	h.hub.Broadcast(payload)
}

func (h *WebsocketHandler) handleInbound(ctx context.Context, client *ws.UserClient, data []byte) {
	var ack SeenAck
	if err := json.Unmarshal(data, &ack); err != nil || ack.MessageId == "" {
		log.Printf("Unknown frame from %s", client.UserId)
		return
	}

	if err := h.messageUc.MarkSeen(ctx, ack.MessageId); err != nil {
		log.Printf("Mark message as seen error: %v", err)
	}
}
