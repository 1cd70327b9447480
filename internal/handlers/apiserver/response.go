package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"shelf-go/internal/middleware"
	"shelf-go/internal/services"
	"shelf-go/internal/storage"
)

// Stable error codes returned alongside every error message.
const (
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeSelfReference      = "SELF_REFERENCE_NOT_ALLOWED"
	CodeDuplicateRequest   = "DUPLICATE_REQUEST"
	CodeAlreadyFriends     = "ALREADY_FRIENDS"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeAlreadyAccepted    = "ALREADY_ACCEPTED"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidResetCode   = "INVALID_RESET_CODE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeInternal           = "INTERNAL"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument},
	{services.ErrSelfReference, http.StatusBadRequest, CodeSelfReference},
	{services.ErrDuplicateRequest, http.StatusConflict, CodeDuplicateRequest},
	{services.ErrAlreadyFriends, http.StatusConflict, CodeAlreadyFriends},
	{services.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{services.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{services.ErrAlreadyAccepted, http.StatusConflict, CodeAlreadyAccepted},
	{services.ErrEmailTaken, http.StatusConflict, CodeEmailTaken},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{services.ErrInvalidResetCode, http.StatusBadRequest, CodeInvalidResetCode},
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeJSONError(w http.ResponseWriter, message, code string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error onto its status and code.
// Unknown errors are logged and reported as INTERNAL without detail.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeJSONError(w, err.Error(), m.code, m.status)
			return
		}
	}
	logger.Error("request failed", zap.Error(err))
	writeJSONError(w, "internal server error", CodeInternal, http.StatusInternalServerError)
}

func decodeJSONBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", services.ErrInvalidArgument)
	}
	return nil
}

// pathID parses a numeric mux path variable.
func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := storage.StrToUint(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", services.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// currentUserID returns the authenticated caller or writes a 401.
func currentUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "authentication required", CodeUnauthorized, http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}
