package apiserver

import (
	"net/http"

	"go.uber.org/zap"

	"shelf-go/internal/middleware"
	"shelf-go/internal/models"
	"shelf-go/internal/services"
)

// AuthHandler serves sign-up, sign-in and password recovery.
type AuthHandler struct {
	authService services.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.Named("auth_handler"),
	}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSONBody(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, "email and password are required", CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Logout revokes the caller's current token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "authentication required", CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// ForgotPassword mails a reset code to a registered address.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if req.Email == "" {
		writeJSONError(w, "email is required", CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "reset code sent"})
}

// ResetPassword sets a new password given a valid reset code.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req services.ResetPasswordInput
	if err := decodeJSONBody(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "password updated"})
}
