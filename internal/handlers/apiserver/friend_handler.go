package apiserver

import (
	"net/http"

	"go.uber.org/zap"

	"shelf-go/internal/services"
)

// FriendHandler exposes the friend request ledger, the friendship graph and
// the shared-collection gate.
type FriendHandler struct {
	friendService services.FriendService
	logger        *zap.Logger
}

// NewFriendHandler creates a FriendHandler.
func NewFriendHandler(friendService services.FriendService, logger *zap.Logger) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
		logger:        logger.Named("friend_handler"),
	}
}

// SendFriendRequestRequest is the body of POST /friends/requests.
type SendFriendRequestRequest struct {
	ReceiverID uint `json:"receiverId"`
}

// SendFriendRequest proposes a friendship from the caller to receiverId.
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req SendFriendRequestRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	request, err := h.friendService.ProposeRequest(r.Context(), userID, req.ReceiverID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, request)
}

// ListPendingRequests returns the requests waiting on the caller.
func (h *FriendHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	pending, err := h.friendService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pending)
}

// AcceptFriendRequest handles POST /friends/requests/{requestID}/accept.
// Only the receiver may accept.
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	requestID, err := pathID(r, "requestID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.friendService.AcceptRequest(r.Context(), requestID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "friend request accepted"})
}

// ListFriends returns the caller's friends.
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// GetFriendBooks returns a friend's collection, or 403 if the caller is not their friend.
func (h *FriendHandler) GetFriendBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	friendID, err := pathID(r, "friendID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	books, err := h.friendService.GetSharedCollection(r.Context(), userID, friendID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, books)
}

// RemoveFriend handles DELETE /friends/{friendID}.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	friendID, err := pathID(r, "friendID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), userID, friendID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
