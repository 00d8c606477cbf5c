package entity

import "time"

// Message is a single direct message between two users. Image holds an
// opaque reference (URL) supplied by the sender; the server never
// touches image bytes. Seen only ever transitions false to true.
type Message struct {
	Id         string    `bson:"_id" json:"id"`
	SenderId   string    `bson:"senderId" json:"senderId"`
	ReceiverId string    `bson:"receiverId" json:"receiverId"`
	Text       string    `bson:"text,omitempty" json:"text,omitempty"`
	Image      string    `bson:"image,omitempty" json:"image,omitempty"`
	Seen       bool      `bson:"seen" json:"seen"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}
