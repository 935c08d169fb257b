package gateway

import (
	"context"
	"encoding/json"

	"github.com/chirp-social/core/internal/models"
	"github.com/chirp-social/core/internal/modules/conversation"
	pkgredis "github.com/chirp-social/core/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func NewHub(conv *conversation.Service, rc *pkgredis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		table:      NewSessionTable(),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		conv:       conv,
		rc:         rc,
		logger:     logger,
		sio:        socketio.NewServer(nil, nil),
	}
	h.registerNamespace()
	return h
}

// Run serializes routing-table changes and feeds remote deliveries until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.register:
			if prev := h.table.Bind(c.userID, c.conn); prev != nil {
				// The account connected somewhere else; the older socket is
				// told why it is going away before it is closed.
				_ = prev.Emit(eventForceClose, map[string]interface{}{
					"reason": "connected from another client",
				})
				prev.Close()
			}

		case c := <-h.unregister:
			h.table.Remove(c.userID, c.conn.ID())
		}
	}
}

// DeliverLocal hands the message to the receiver when they are connected to
// this instance. Reports whether a delivery happened.
func (h *Hub) DeliverLocal(receiverID string, msg *models.Conversation) bool {
	conn, ok := h.table.Lookup(receiverID)
	if !ok {
		return false
	}
	if err := conn.Emit(eventReceiveMessage, msg); err != nil {
		h.logger.Warn("gateway local delivery failed",
			zap.String("receiver_id", receiverID), zap.Error(err))
		return false
	}
	return true
}

// publishRemote forwards the message to whichever instance holds the
// receiver's connection.
func (h *Hub) publishRemote(ctx context.Context, receiverID string, msg *models.Conversation) {
	data, err := json.Marshal(dmEnvelope{ReceiverID: receiverID, Message: *msg})
	if err != nil {
		return
	}
	if err := h.rc.Publish(ctx, redisChanDirectMessage, string(data)); err != nil {
		h.logger.Warn("gateway publish failed",
			zap.String("channel", redisChanDirectMessage), zap.Error(err))
	}
}

// subscribeRedis listens for messages routed from other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanDirectMessage)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var env dmEnvelope
			if err := json.Unmarshal([]byte(redisMsg.Payload), &env); err != nil {
				continue
			}
			h.DeliverLocal(env.ReceiverID, &env.Message)
		}
	}
}

// Online reports the number of users currently connected to this instance.
func (h *Hub) Online() int {
	return h.table.Count()
}
