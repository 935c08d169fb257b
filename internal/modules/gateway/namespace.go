package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func (h *Hub) registerNamespace() {
	_ = h.sio.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}

		// Handshake gate: no valid, verified access token, no socket.
		conn := sioConn{s: client}
		token := normalizeToken(extractToken(client))
		claims, err := h.authorize(conn, token)
		if err != nil {
			conn.Close()
			return
		}

		userID := claims.UserID
		h.register <- clientMeta{userID: userID, conn: conn}
		_ = client.Emit(eventConnected, map[string]interface{}{"user_id": userID})

		_ = client.On("send_message", func(eventArgs ...any) {
			// The handshake snapshot is not trusted forever: the same token
			// is re-verified on every message, so an expired session drops
			// mid-flight instead of living until disconnect.
			if _, err := h.authorize(conn, token); err != nil {
				conn.Close()
				return
			}

			payload, ok := parsePayload(eventArgs...)
			if !ok {
				return
			}
			receiverID := strFromAny(payload["receiver_id"])
			content := strFromAny(payload["content"])
			if receiverID == "" || content == "" {
				_ = client.Emit(eventError, map[string]interface{}{
					"message": "receiver_id and content are required",
				})
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			msg, err := h.conv.Save(ctx, userID, receiverID, content)
			if err != nil {
				h.logger.Warn("gateway message persist failed", zap.Error(err))
				_ = client.Emit(eventError, map[string]interface{}{
					"message": "message could not be saved",
				})
				return
			}

			if !h.DeliverLocal(receiverID, msg) {
				h.publishRemote(ctx, receiverID, msg)
			}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.unregister <- clientMeta{userID: userID, conn: conn}
		})
	})
}

// authorize parses the access token and requires a verified account. On
// failure the client is told why before the caller closes it.
func (h *Hub) authorize(conn Conn, token string) (*jwtpkg.Claims, error) {
	if token == "" {
		_ = conn.Emit(eventError, map[string]interface{}{"message": "access token is required"})
		return nil, jwtpkg.ErrMalformed
	}
	claims, err := jwtpkg.Parse(token, jwtpkg.KindAccess)
	if err != nil {
		message := "access token is invalid"
		if errors.Is(err, jwtpkg.ErrExpired) {
			message = "access token is expired"
		}
		_ = conn.Emit(eventError, map[string]interface{}{"message": message})
		return nil, err
	}
	if claims.Verify != jwtpkg.StatusVerified {
		_ = conn.Emit(eventError, map[string]interface{}{"message": "account is not verified"})
		return nil, jwtpkg.ErrMalformed
	}
	return claims, nil
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := authPayloadToken(handshake.Auth); token != "" {
		return token
	}
	if token := firstValueFromMultiMap(handshake.Query, "token"); token != "" {
		return token
	}
	return firstValueFromMultiMap(handshake.Headers, "authorization")
}

// authPayloadToken reads the socket.io auth payload, the primary place a
// client supplies its bearer token; query and header are fallbacks.
func authPayloadToken(auth interface{}) string {
	payload, ok := auth.(map[string]interface{})
	if !ok {
		return ""
	}
	for _, key := range []string{"Authorization", "authorization", "token"} {
		if v, ok := payload[key].(string); ok {
			if token := strings.TrimSpace(v); token != "" {
				return token
			}
		}
	}
	return ""
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	if len(values) == 0 {
		return ""
	}
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		v := strings.TrimSpace(list[0])
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func parsePayload(args ...any) (map[string]interface{}, bool) {
	if len(args) == 0 || args[0] == nil {
		return nil, false
	}
	switch raw := args[0].(type) {
	case map[string]interface{}:
		return raw, true
	case string:
		out := map[string]interface{}{}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, false
		}
		return out, true
	case []byte:
		out := map[string]interface{}{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, false
		}
		return out, true
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, false
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, false
		}
		return out, true
	}
}

func strFromAny(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
