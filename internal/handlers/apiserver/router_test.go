package apiserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shelf-go/internal/auth"
	"shelf-go/internal/config"
	"shelf-go/internal/handlers/apiserver"
	"shelf-go/internal/mailer"
	"shelf-go/internal/middleware"
	"shelf-go/internal/services"
	"shelf-go/internal/storage"
	"shelf-go/internal/storage/storagetest"
)

const testSecret = "router-test-secret-that-is-long-enough"

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()

	db := storagetest.NewDB(t)
	logger := zap.NewNop()
	authCfg := config.AuthConfig{JWTSecretKey: testSecret, JWTExpiry: time.Hour, ResetCodeTTL: time.Hour}
	blacklist := auth.NewMemoryTokenBlacklist()

	userRepo := storage.NewGormUserRepository(db)
	bookRepo := storage.NewGormBookRepository(db)

	router := apiserver.NewRouter(apiserver.RouterConfig{
		Auth:           apiserver.NewAuthHandler(services.NewAuthService(userRepo, blacklist, mailer.NewLogMailer(logger), authCfg, logger), logger),
		User:           apiserver.NewUserHandler(services.NewUserService(userRepo, 20), logger),
		Friend:         apiserver.NewFriendHandler(services.NewFriendService(db, userRepo, bookRepo, nil, logger), logger),
		Book:           apiserver.NewBookHandler(services.NewBookService(bookRepo), logger),
		AuthMiddleware: middleware.AuthMiddleware(testSecret, blacklist),
		Logger:         logger,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiClient{t: t, server: server}
}

func (c *apiClient) do(method, path, token string, body interface{}) (int, []byte) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, buf.Bytes()
}

func (c *apiClient) errorCode(method, path, token string, body interface{}) (int, string) {
	c.t.Helper()
	status, raw := c.do(method, path, token, body)
	var resp apiserver.ErrorResponse
	require.NoError(c.t, json.Unmarshal(raw, &resp), string(raw))
	return status, resp.Code
}

type account struct {
	id    uint
	token string
}

func (c *apiClient) signUp(name string) account {
	c.t.Helper()

	status, raw := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": name + "@example.com", "password": "secret123",
	})
	require.Equal(c.t, http.StatusCreated, status, string(raw))

	status, raw = c.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": name + "@example.com", "password": "secret123",
	})
	require.Equal(c.t, http.StatusOK, status, string(raw))

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(c.t, json.Unmarshal(raw, &login))
	return account{id: login.User.ID, token: login.Token}
}

func TestRouter_RequiresToken(t *testing.T) {
	c := newAPIClient(t)

	status, code := c.errorCode(http.MethodGet, "/api/v1/friends", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apiserver.CodeUnauthorized, code)

	status, code = c.errorCode(http.MethodGet, "/api/v1/friends", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apiserver.CodeUnauthorized, code)
}

func TestRouter_Healthz(t *testing.T) {
	c := newAPIClient(t)
	status, _ := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	c := newAPIClient(t)
	alice := c.signUp("alice")

	status, _ := c.do(http.MethodPost, "/api/v1/auth/logout", alice.token, nil)
	require.Equal(t, http.StatusOK, status)

	status, code := c.errorCode(http.MethodGet, "/api/v1/users/me", alice.token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apiserver.CodeUnauthorized, code)
}

func TestRouter_SearchExcludesCaller(t *testing.T) {
	c := newAPIClient(t)
	alice := c.signUp("alice")
	c.signUp("alicia")

	status, raw := c.do(http.MethodGet, "/api/v1/users/search?q=ali", alice.token, nil)
	require.Equal(t, http.StatusOK, status)

	var users []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(raw, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alicia", users[0].Name)
}

func TestRouter_FriendRequestErrors(t *testing.T) {
	c := newAPIClient(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")

	tests := []struct {
		name       string
		receiverID uint
		wantStatus int
		wantCode   string
	}{
		{"missing receiver", 0, http.StatusBadRequest, apiserver.CodeInvalidArgument},
		{"self", alice.id, http.StatusBadRequest, apiserver.CodeSelfReference},
		{"unknown receiver", bob.id + 100, http.StatusNotFound, apiserver.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := c.errorCode(http.MethodPost, "/api/v1/friends/requests", alice.token,
				map[string]uint{"receiverId": tt.receiverID})
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}

	status, code := c.errorCode(http.MethodPost, "/api/v1/friends/requests/999/accept", bob.token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apiserver.CodeNotFound, code)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/friends/%d", alice.id), alice.token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, code = c.errorCode(http.MethodGet, fmt.Sprintf("/api/v1/friends/%d/books", alice.id), alice.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apiserver.CodeForbidden, code)
}

func TestRouter_FriendshipLifecycle(t *testing.T) {
	c := newAPIClient(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")

	status, raw := c.do(http.MethodPost, "/api/v1/friends/requests", alice.token, map[string]uint{"receiverId": bob.id})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var request struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(raw, &request))
	assert.Equal(t, "pending", request.Status)

	status, code := c.errorCode(http.MethodPost, "/api/v1/friends/requests", alice.token, map[string]uint{"receiverId": bob.id})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apiserver.CodeDuplicateRequest, code)

	status, raw = c.do(http.MethodGet, "/api/v1/friends/requests", bob.token, nil)
	require.Equal(t, http.StatusOK, status)
	var pending []struct {
		RequestID  uint   `json:"requestId"`
		SenderID   uint   `json:"senderId"`
		SenderName string `json:"senderName"`
	}
	require.NoError(t, json.Unmarshal(raw, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, request.ID, pending[0].RequestID)
	assert.Equal(t, "alice", pending[0].SenderName)

	acceptPath := fmt.Sprintf("/api/v1/friends/requests/%d/accept", request.ID)
	status, code = c.errorCode(http.MethodPost, acceptPath, alice.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apiserver.CodeForbidden, code)

	status, _ = c.do(http.MethodPost, acceptPath, bob.token, nil)
	require.Equal(t, http.StatusOK, status)

	status, code = c.errorCode(http.MethodPost, acceptPath, bob.token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apiserver.CodeAlreadyAccepted, code)

	status, code = c.errorCode(http.MethodPost, "/api/v1/friends/requests", bob.token, map[string]uint{"receiverId": alice.id})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apiserver.CodeAlreadyFriends, code)

	status, raw = c.do(http.MethodGet, "/api/v1/friends", alice.token, nil)
	require.Equal(t, http.StatusOK, status)
	var friends []struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, bob.id, friends[0].ID)

	status, raw = c.do(http.MethodPost, "/api/v1/books", bob.token, map[string]interface{}{
		"title": "Dune", "authors": []string{"Frank Herbert"}, "readingYear": 2024,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	booksPath := fmt.Sprintf("/api/v1/friends/%d/books", bob.id)
	status, raw = c.do(http.MethodGet, booksPath, alice.token, nil)
	require.Equal(t, http.StatusOK, status)
	var books []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(raw, &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/friends/%d", bob.id), alice.token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, code = c.errorCode(http.MethodGet, booksPath, alice.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apiserver.CodeForbidden, code)

	status, raw = c.do(http.MethodGet, "/api/v1/friends", bob.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
}

func TestRouter_BookValidation(t *testing.T) {
	c := newAPIClient(t)
	alice := c.signUp("alice")

	status, code := c.errorCode(http.MethodPost, "/api/v1/books", alice.token, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apiserver.CodeInvalidArgument, code)

	status, code = c.errorCode(http.MethodGet, "/api/v1/books?year=abc", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apiserver.CodeInvalidArgument, code)

	status, code = c.errorCode(http.MethodGet, "/api/v1/books/42", alice.token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apiserver.CodeNotFound, code)
}
