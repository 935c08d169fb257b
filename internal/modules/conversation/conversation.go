package conversation

import (
	"context"
	"time"

	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/models"
	"github.com/chirp-social/core/internal/pkg/mongodb"
	"github.com/chirp-social/core/internal/pkg/pagination"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Service struct{ mc *mongodb.Client }

func NewService(mc *mongodb.Client) *Service { return &Service{mc: mc} }

// Save archives one direct message. The gateway calls this before any
// delivery attempt, so a message survives even when the receiver is offline.
func (s *Service) Save(ctx context.Context, senderID, receiverID, content string) (*models.Conversation, error) {
	now := time.Now()
	doc := models.Conversation{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := s.mc.Conversations().InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	return &doc, nil
}

// History returns the message exchange between two users, newest first.
func (s *Service) History(ctx context.Context, userID, peerID string, q pagination.Query) ([]models.Conversation, response.Pagination, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID, "receiver_id": peerID},
		bson.M{"sender_id": peerID, "receiver_id": userID},
	}}

	coll := s.mc.Conversations()
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Size)).
		SetLimit(int64(q.Size))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	defer cursor.Close(ctx)

	messages := make([]models.Conversation, 0, q.Size)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, response.Pagination{}, err
	}
	return messages, pagination.Meta(total, q), nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/conversations", authMW, middleware.VerifiedOnly())

	g.GET("/receivers/:receiver_id", h.history)
}

func (h *Handler) history(c *gin.Context) {
	messages, meta, err := h.svc.History(
		c.Request.Context(),
		middleware.CurrentUserID(c),
		c.Param("receiver_id"),
		pagination.FromContext(c),
	)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, messages, meta)
}
