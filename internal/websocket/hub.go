package websocket

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"shelf-go/internal/metrics"
	"shelf-go/internal/shelftypes"
)

type directNotification struct {
	userID       uint
	notification shelftypes.Notification
}

// Hub tracks connected clients by user id and routes notifications to them.
// One connection per user: a new connection replaces the previous one.
type Hub struct {
	clients    map[uint]*Client
	register   chan *Client
	unregister chan *Client
	direct     chan directNotification
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directNotification, 256),
		logger:     logger.Named("ws_hub"),
	}
}

// Deliver queues a notification for userID without blocking the caller.
// It is dropped when the hub is saturated.
func (h *Hub) Deliver(userID uint, notification shelftypes.Notification) {
	select {
	case h.direct <- directNotification{userID: userID, notification: notification}:
	default:
		metrics.RecordNotification("dropped")
		h.logger.Warn("hub queue full, dropping notification", zap.Uint("user_id", userID))
	}
}

// Run serves register, unregister and delivery until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			for userID, client := range h.clients {
				close(client.send)
				delete(h.clients, userID)
			}
			h.logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			if existing, ok := h.clients[client.UserID]; ok {
				h.logger.Info("replacing existing connection", zap.Uint("user_id", client.UserID))
				close(existing.send)
			}
			h.clients[client.UserID] = client

		case client := <-h.unregister:
			// A replaced client already had its send channel closed.
			if stored, ok := h.clients[client.UserID]; ok && stored == client {
				delete(h.clients, client.UserID)
				close(client.send)
			}

		case d := <-h.direct:
			client, ok := h.clients[d.userID]
			if !ok {
				metrics.RecordNotification("offline")
				continue
			}
			payload, err := json.Marshal(d.notification)
			if err != nil {
				h.logger.Error("failed to marshal notification", zap.Uint("user_id", d.userID), zap.Error(err))
				continue
			}
			select {
			case client.send <- payload:
				metrics.RecordNotification("sent")
			default:
				h.logger.Warn("client send buffer full, disconnecting", zap.Uint("user_id", d.userID))
				metrics.RecordNotification("dropped")
				close(client.send)
				delete(h.clients, d.userID)
			}
		}
	}
}
