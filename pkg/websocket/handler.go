package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

// TypeError is sent to a client whose message could not be handled.
const TypeError = "error"

// ErrorPayload is the data of a TypeError message.
type ErrorPayload struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// NewUpgrader builds an upgrader accepting the given origins. A single "*"
// accepts every origin; requests without an Origin header are always accepted.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimSuffix(origin, "/"))] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			_, ok := allowed[strings.ToLower(origin)]
			return ok
		},
	}
}

// Serve upgrades the request and starts the pumps of a new client. The
// client gets a fresh session ID and inherits the request's context values.
func Serve(c *gin.Context, hub *Hub, upgrader *websocket.Upgrader) (*Client, error) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnContext(c.Request.Context(), "failed to upgrade websocket", zap.Error(err))
		return nil, err
	}

	ctx := context.WithoutCancel(c.Request.Context())
	client := NewClient(ctx, uuid.NewString(), conn, hub)
	hub.connected(client)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	logger.InfoContext(client.Context(), "websocket connection established",
		zap.String("remote_ip", c.ClientIP()),
	)
	return client, nil
}
