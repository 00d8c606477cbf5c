package repository

import (
	"context"
	"errors"
	"time"
	"wassup/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Get(ctx context.Context, messageId string) (entity.Message, error)
	Create(ctx context.Context, message entity.Message) (entity.Message, error)
	GetConversation(ctx context.Context, userId, peerId string) ([]entity.Message, error)
	MarkSeen(ctx context.Context, messageId string) error
	MarkConversationSeen(ctx context.Context, senderId, receiverId string) error
	CountUnseenBySender(ctx context.Context, receiverId string) (map[string]int, error)
}

type messageRepository struct {
	db mongo.Database
}

func NewMessageRepository(db mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Get(ctx context.Context, messageId string) (entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	var message entity.Message
	err := collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) Create(ctx context.Context, message entity.Message) (entity.Message, error) {
	collection := r.db.Collection("messages")
	message.Id = uuid.New().String()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := collection.InsertOne(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}

	return message, nil
}

// GetConversation returns all messages exchanged between the two
// users, oldest first.
func (r *messageRepository) GetConversation(ctx context.Context, userId, peerId string) ([]entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"$or": []bson.M{
			{"senderId": userId, "receiverId": peerId},
			{"senderId": peerId, "receiverId": userId},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []entity.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) MarkSeen(ctx context.Context, messageId string) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}
	update := bson.M{"$set": bson.M{"seen": true}}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

// MarkConversationSeen flips every unseen message from senderId to
// receiverId. Repeated application is harmless; seen never goes back
// to false.
func (r *messageRepository) MarkConversationSeen(ctx context.Context, senderId, receiverId string) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"senderId": senderId, "receiverId": receiverId, "seen": false}
	update := bson.M{"$set": bson.M{"seen": true}}

	_, err := collection.UpdateMany(ctx, filter, update)
	return err
}

// CountUnseenBySender groups the receiver's unseen messages by sender.
// Senders with no unseen messages are absent from the map.
func (r *messageRepository) CountUnseenBySender(ctx context.Context, receiverId string) (map[string]int, error) {
	collection := r.db.Collection("messages")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiverId": receiverId, "seen": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$senderId", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		SenderId string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SenderId] = row.Count
	}

	return counts, nil
}
