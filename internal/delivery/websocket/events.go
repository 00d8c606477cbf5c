package websocket

// Event names pushed over the socket.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// Event is the wire envelope for every server-to-client frame.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SeenAck is the only client-to-server frame: a receipt for a message
// the client just displayed in its open conversation.
type SeenAck struct {
	MessageId string `json:"messageId"`
}
