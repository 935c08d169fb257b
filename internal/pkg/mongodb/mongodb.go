package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/chirp-social/core/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionConversations = "conversations"

// Client wraps the Mongo database holding the conversation archive.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a Mongo connection, verifies it with a ping, and ensures the
// indexes the conversation queries rely on.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	c := &Client{client: client, db: client.Database(cfg.Name)}
	if err := c.ensureIndexes(connectCtx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	_, err := c.Conversations().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender_id", Value: 1},
			{Key: "receiver_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	return err
}

// Conversations returns the conversation collection.
func (c *Client) Conversations() *mongo.Collection {
	return c.db.Collection(CollectionConversations)
}

// Disconnect closes the underlying connection.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
