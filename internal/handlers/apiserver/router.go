package apiserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Auth   *AuthHandler
	User   *UserHandler
	Friend *FriendHandler
	Book   *BookHandler
	Upload *UploadHandler

	// AuthMiddleware guards every route under /api/v1.
	AuthMiddleware mux.MiddlewareFunc
	// HealthCheck reports whether dependencies are reachable. Optional.
	HealthCheck func(ctx context.Context) error

	// UploadsURL and UploadsDir expose stored files when both are set.
	UploadsURL string
	UploadsDir string

	Logger *zap.Logger
}

// NewRouter builds the API server's routes.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthHandler(cfg.HealthCheck, cfg.Logger)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", cfg.Auth.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", cfg.Auth.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/forgot-password", cfg.Auth.ForgotPassword).Methods(http.MethodPost)
	authRouter.HandleFunc("/reset-password", cfg.Auth.ResetPassword).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(cfg.AuthMiddleware)

	api.HandleFunc("/auth/logout", cfg.Auth.Logout).Methods(http.MethodPost)

	api.HandleFunc("/users/me", cfg.User.GetMyProfile).Methods(http.MethodGet)
	api.HandleFunc("/users/search", cfg.User.SearchUsers).Methods(http.MethodGet)

	api.HandleFunc("/friends/requests", cfg.Friend.SendFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests", cfg.Friend.ListPendingRequests).Methods(http.MethodGet)
	api.HandleFunc("/friends/requests/{requestID:[0-9]+}/accept", cfg.Friend.AcceptFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends", cfg.Friend.ListFriends).Methods(http.MethodGet)
	api.HandleFunc("/friends/{friendID:[0-9]+}/books", cfg.Friend.GetFriendBooks).Methods(http.MethodGet)
	api.HandleFunc("/friends/{friendID:[0-9]+}", cfg.Friend.RemoveFriend).Methods(http.MethodDelete)

	api.HandleFunc("/books", cfg.Book.ListBooks).Methods(http.MethodGet)
	api.HandleFunc("/books", cfg.Book.CreateBook).Methods(http.MethodPost)
	api.HandleFunc("/books/years", cfg.Book.ListByReadingYear).Methods(http.MethodGet)
	api.HandleFunc("/books/favorites", cfg.Book.ListFavorites).Methods(http.MethodGet)
	api.HandleFunc("/books/{bookID:[0-9]+}", cfg.Book.GetBook).Methods(http.MethodGet)
	api.HandleFunc("/books/{bookID:[0-9]+}", cfg.Book.UpdateBook).Methods(http.MethodPut)
	api.HandleFunc("/books/{bookID:[0-9]+}", cfg.Book.DeleteBook).Methods(http.MethodDelete)
	api.HandleFunc("/books/{bookID:[0-9]+}/favorite", cfg.Book.SetFavorite).Methods(http.MethodPatch)

	if cfg.Upload != nil {
		api.HandleFunc("/uploads/covers", cfg.Upload.UploadCover).Methods(http.MethodPost)
	}

	if cfg.UploadsURL != "" && cfg.UploadsDir != "" {
		staticPath := strings.TrimSuffix(cfg.UploadsURL, "/") + "/"
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	return r
}

func healthHandler(check func(ctx context.Context) error, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
