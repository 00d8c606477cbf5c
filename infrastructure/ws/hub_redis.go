package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisHub routes frames between server instances over Redis pub/sub.
// Each instance keeps its local registry; a frame for a user who is
// not connected here is published on the user's channel for whichever
// instance holds the endpoint. Presence snapshots remain local to each
// instance.
type RedisHub struct {
	registry *Registry

	redisClient *redis.Client
	pubsub      *redis.PubSub
	serverID    string

	broadcast  chan []byte
	register   chan *UserClient
	unregister chan *UserClient

	onPresenceChange func(online []string)
}

type RedisMessage struct {
	FromServerID string `json:"fromServerId"`
	ToUserID     string `json:"toUserId"`
	Payload      []byte `json:"payload"`
}

func NewRedisHub(registry *Registry, redisAddr string, serverID string) *RedisHub {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	hub := &RedisHub{
		registry:    registry,
		redisClient: rdb,
		serverID:    serverID,
		broadcast:   make(chan []byte, 256),
		register:    make(chan *UserClient),
		unregister:  make(chan *UserClient),
	}

	hub.pubsub = rdb.PSubscribe(context.Background(), "messages:*")

	return hub
}

func (h *RedisHub) Run() {
	go h.subscribeRedis()

	for {
		select {
		case client := <-h.register:
			if replaced := h.registry.Set(client); replaced != nil {
				replaced.closeSend()
			}

			// Announce which instance holds this user's endpoint.
			h.redisClient.Set(
				context.Background(),
				"user:"+client.UserId+":server",
				h.serverID,
				0,
			)

			log.Printf("[%s] %s connected", h.serverID, client.UserId)
			h.notifyPresence()

		case client := <-h.unregister:
			if h.registry.Remove(client) {
				client.closeSend()

				h.redisClient.Del(
					context.Background(),
					"user:"+client.UserId+":server",
				)

				log.Printf("[%s] %s disconnected", h.serverID, client.UserId)
				h.notifyPresence()
			}

		case message := <-h.broadcast:
			h.broadcastLocal(message)
		}
	}
}

func (h *RedisHub) notifyPresence() {
	if h.onPresenceChange != nil {
		h.onPresenceChange(h.registry.UserIds())
	}
}

func (h *RedisHub) subscribeRedis() {
	ch := h.pubsub.Channel()

	log.Printf("[%s] Redis subscriber started", h.serverID)

	for msg := range ch {
		var redisMsg RedisMessage
		if err := json.Unmarshal([]byte(msg.Payload), &redisMsg); err != nil {
			log.Printf("Error unmarshaling Redis message: %v", err)
			continue
		}

		// Don't process messages we published ourselves.
		if redisMsg.FromServerID == h.serverID {
			continue
		}

		client, existsLocally := h.registry.Get(redisMsg.ToUserID)
		if !existsLocally {
			continue
		}

		if !client.trySend(redisMsg.Payload) {
			log.Printf("[%s] dropping frame for %s", h.serverID, redisMsg.ToUserID)
		}
	}
}

// SendToClient delivers locally when the endpoint is here, otherwise
// publishes to Redis for the instance that holds it.
func (h *RedisHub) SendToClient(userID string, message []byte) {
	client, existsLocally := h.registry.Get(userID)

	if existsLocally {
		if !client.trySend(message) {
			log.Printf("[%s] dropping frame for %s", h.serverID, userID)
		}
		return
	}

	h.publishToRedis(userID, message)
}

func (h *RedisHub) publishToRedis(userID string, message []byte) {
	ctx := context.Background()

	redisMsg := RedisMessage{
		FromServerID: h.serverID,
		ToUserID:     userID,
		Payload:      message,
	}

	msgBytes, err := json.Marshal(redisMsg)
	if err != nil {
		log.Printf("Error marshaling Redis message: %v", err)
		return
	}

	if err := h.redisClient.Publish(ctx, "messages:"+userID, msgBytes).Err(); err != nil {
		log.Printf("Error publishing to Redis: %v", err)
	}
}

func (h *RedisHub) broadcastLocal(message []byte) {
	for _, userId := range h.registry.UserIds() {
		client, ok := h.registry.Get(userId)
		if !ok {
			continue
		}
		if !client.trySend(message) {
			log.Printf("dropping frame for %s", userId)
		}
	}
}

func (h *RedisHub) Broadcast(message []byte) {
	h.broadcast <- message
}

func (h *RedisHub) OnlineUserIds() []string {
	return h.registry.UserIds()
}

func (h *RedisHub) GetClientCount() int {
	return h.registry.Len()
}

func (h *RedisHub) RegisterClient(client *UserClient) {
	h.register <- client
}

func (h *RedisHub) UnregisterClient(client *UserClient) {
	h.unregister <- client
}

func (h *RedisHub) SetOnPresenceChange(callback func(online []string)) {
	h.onPresenceChange = callback
}
