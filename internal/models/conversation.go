package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct message persisted by the realtime gateway. It
// lives in MongoDB, keeping the document model of the original backend.
type Conversation struct {
	ID         primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	SenderID   string             `json:"sender_id"   bson:"sender_id"`
	ReceiverID string             `json:"receiver_id" bson:"receiver_id"`
	Content    string             `json:"content"     bson:"content"`
	CreatedAt  time.Time          `json:"created"     bson:"created_at"`
	UpdatedAt  time.Time          `json:"modified"    bson:"updated_at"`
}
