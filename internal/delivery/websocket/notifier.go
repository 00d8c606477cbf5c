package websocket

import (
	"encoding/json"
	"log"

	"wassup/infrastructure/ws"
	"wassup/internal/entity"
)

// HubNotifier adapts the hub to the message usecase: it wraps a stored
// message in a newMessage event and pushes it at the recipient. If the
// recipient holds no live endpoint the push goes nowhere, which is
// fine; history fetch covers it.
type HubNotifier struct {
	hub ws.IHub
}

func NewHubNotifier(hub ws.IHub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) MessageCreated(message entity.Message) {
	payload, err := json.Marshal(Event{Event: EventNewMessage, Data: message})
	if err != nil {
		log.Printf("Marshal newMessage event error: %v", err)
		return
	}

	n.hub.SendToClient(message.ReceiverId, payload)
}
