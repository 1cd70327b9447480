package notifyserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"shelf-go/internal/auth"
	"shelf-go/internal/config"
	ws "shelf-go/internal/websocket"
)

// WebSocketHandler upgrades authenticated connections onto the notification hub.
type WebSocketHandler struct {
	hub            *ws.Hub
	jwtSecret      string
	blacklist      auth.TokenBlacklist
	wsCfg          config.WebSocketConfig
	allowedOrigins []string
	logger         *zap.Logger
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, cfg config.Config, blacklist auth.TokenBlacklist, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		jwtSecret:      cfg.Auth.JWTSecretKey,
		blacklist:      blacklist,
		wsCfg:          cfg.WebSocket,
		allowedOrigins: cfg.APIServer.CORS.AllowedOrigins,
		logger:         logger.Named("ws_handler"),
	}
}

// ServeWS authenticates with the ?token= query parameter, since browsers
// cannot set headers on a WebSocket handshake.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeUnauthorized(w, "missing token")
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.jwtSecret, h.blacklist)
	if err != nil {
		h.logger.Debug("rejected websocket connection", zap.Error(err))
		writeUnauthorized(w, "invalid or expired token")
		return
	}

	ws.ServeWs(h.hub, claims.UserID, w, r, h.wsCfg, h.allowedOrigins)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": "UNAUTHORIZED"})
}
