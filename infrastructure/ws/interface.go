package ws

type IHub interface {
	Run()
	RegisterClient(client *UserClient)
	UnregisterClient(client *UserClient)
	SendToClient(userID string, message []byte)
	Broadcast(message []byte)
	OnlineUserIds() []string
	GetClientCount() int
	SetOnPresenceChange(callback func(online []string))
}
