package notifyserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shelf-go/internal/auth"
	"shelf-go/internal/config"
	"shelf-go/internal/shelftypes"
	ws "shelf-go/internal/websocket"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Auth = config.AuthConfig{JWTSecretKey: "notify-test-secret-that-is-long-enough", JWTExpiry: time.Hour}
	cfg.WebSocket = config.WebSocketConfig{
		WriteWaitSeconds:    2,
		PongWaitSeconds:     10,
		PingPeriodSeconds:   9,
		MaxMessageSizeBytes: 512,
	}
	return cfg
}

func TestServeWS_RejectsMissingOrBadToken(t *testing.T) {
	cfg := testConfig()
	hub := ws.NewHub(zap.NewNop())
	h := NewWebSocketHandler(hub, cfg, auth.NewMemoryTokenBlacklist(), zap.NewNop())

	for _, target := range []string{"/ws/notifications", "/ws/notifications?token=garbage"} {
		rec := httptest.NewRecorder()
		h.ServeWS(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	}
}

func TestServeWS_RejectsRevokedToken(t *testing.T) {
	cfg := testConfig()
	blacklist := auth.NewMemoryTokenBlacklist()
	h := NewWebSocketHandler(ws.NewHub(zap.NewNop()), cfg, blacklist, zap.NewNop())

	token, err := auth.GenerateToken(5, "e@example.com", cfg.Auth)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(context.Background(), token, cfg.Auth.JWTSecretKey, nil)
	require.NoError(t, err)
	require.NoError(t, blacklist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))

	rec := httptest.NewRecorder()
	h.ServeWS(rec, httptest.NewRequest(http.MethodGet, "/ws/notifications?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeWS_DeliversToTokenOwner(t *testing.T) {
	cfg := testConfig()
	hub := ws.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	h := NewWebSocketHandler(hub, cfg, auth.NewMemoryTokenBlacklist(), zap.NewNop())
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	token, err := auth.GenerateToken(9, "nine@example.com", cfg.Auth)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + token
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-registered:
	case <-time.After(3 * time.Second):
		t.Fatal("client was not registered")
	}

	hub.Deliver(9, shelftypes.Notification{Type: shelftypes.FriendRequestAccepted, ActorID: 4, RequestID: 2})

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got shelftypes.Notification
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, shelftypes.FriendRequestAccepted, got.Type)
	assert.Equal(t, uint(4), got.ActorID)
}
