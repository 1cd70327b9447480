package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shelf-go/internal/metrics"
	"shelf-go/internal/models"
	"shelf-go/internal/shelftypes"
	"shelf-go/internal/storage"
)

const eventPublishTimeout = 5 * time.Second

// FriendEventPublisher hands committed friend graph changes to the event bus.
type FriendEventPublisher interface {
	PublishFriendEvent(ctx context.Context, event shelftypes.FriendEvent) error
}

// FriendService owns every transition of the friend request ledger and the
// friendship graph, and gates access to another principal's collection.
type FriendService interface {
	ProposeRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	ListPendingRequests(ctx context.Context, receiverID uint) ([]models.PendingRequest, error)
	AcceptRequest(ctx context.Context, requestID, actorID uint) error
	ListFriends(ctx context.Context, principalID uint) ([]models.UserBasicInfo, error)
	GetSharedCollection(ctx context.Context, callerID, ownerID uint) ([]models.Book, error)
	RemoveFriend(ctx context.Context, callerID, otherID uint) error
	RepairFriendEdges(ctx context.Context, principalID uint) (int64, error)
}

type friendService struct {
	db        *gorm.DB
	userRepo  storage.UserRepository
	bookRepo  storage.BookRepository
	publisher FriendEventPublisher
	logger    *zap.Logger
}

// NewFriendService creates a FriendService. Ledger and graph repositories are
// bound per transaction, so only db is needed for them.
func NewFriendService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	bookRepo storage.BookRepository,
	publisher FriendEventPublisher,
	logger *zap.Logger,
) FriendService {
	return &friendService{
		db:        db,
		userRepo:  userRepo,
		bookRepo:  bookRepo,
		publisher: publisher,
		logger:    logger.Named("friend_service"),
	}
}

// ProposeRequest records a pending request from senderID to receiverID.
// Only the sender to receiver direction is checked for duplicates; a pending
// request the other way round may coexist.
func (s *friendService) ProposeRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == 0 || receiverID == 0 {
		return nil, fmt.Errorf("%w: user ids are required", ErrInvalidArgument)
	}
	if senderID == receiverID {
		metrics.RecordFriendRequest("self_reference")
		return nil, ErrSelfReference
	}

	request := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequestRepo := storage.NewGormFriendRequestRepository(tx)
		txEdgeRepo := storage.NewGormFriendEdgeRepository(tx)
		txUserRepo := storage.NewGormUserRepository(tx)

		existing, err := txRequestRepo.FindPending(ctx, senderID, receiverID)
		if err != nil {
			return fmt.Errorf("failed to look up pending request: %w", err)
		}
		if existing != nil {
			return ErrDuplicateRequest
		}

		friends, err := txEdgeRepo.Exists(ctx, senderID, receiverID)
		if err != nil {
			return fmt.Errorf("failed to check friendship: %w", err)
		}
		if friends {
			return ErrAlreadyFriends
		}

		receiverExists, err := txUserRepo.Exists(ctx, receiverID)
		if err != nil {
			return fmt.Errorf("failed to look up receiver: %w", err)
		}
		if !receiverExists {
			return fmt.Errorf("%w: user %d", ErrNotFound, receiverID)
		}

		if err := txRequestRepo.Create(ctx, request); err != nil {
			// Lost a race against an identical proposal.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateRequest
			}
			return fmt.Errorf("failed to create friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordFriendRequest(outcomeOf(err))
		return nil, err
	}

	metrics.RecordFriendRequest("created")
	s.logger.Info("friend request created",
		zap.Uint("request_id", request.ID),
		zap.Uint("sender_id", senderID),
		zap.Uint("receiver_id", receiverID))

	s.publish(ctx, shelftypes.FriendEvent{
		Type:        shelftypes.FriendRequestCreated,
		RecipientID: receiverID,
		ActorID:     senderID,
		RequestID:   request.ID,
	})
	return request, nil
}

// ListPendingRequests returns the pending requests addressed to receiverID,
// oldest first. Each call reflects the current state of the ledger.
func (s *friendService) ListPendingRequests(ctx context.Context, receiverID uint) ([]models.PendingRequest, error) {
	pending, err := storage.NewGormFriendRequestRepository(s.db).ListPendingForReceiver(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return pending, nil
}

// AcceptRequest moves the request to accepted and writes both friend edges in
// one transaction. Only the receiver may accept.
func (s *friendService) AcceptRequest(ctx context.Context, requestID, actorID uint) error {
	var request *models.FriendRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequestRepo := storage.NewGormFriendRequestRepository(tx)
		txEdgeRepo := storage.NewGormFriendEdgeRepository(tx)

		var err error
		request, err = txRequestRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: friend request %d", ErrNotFound, requestID)
			}
			return fmt.Errorf("failed to load friend request: %w", err)
		}

		if request.ReceiverID != actorID {
			return ErrForbidden
		}
		if !request.Status.CanTransitionTo(models.FriendRequestStatusAccepted) {
			return ErrAlreadyAccepted
		}

		updated, err := txRequestRepo.MarkAccepted(ctx, request.ID)
		if err != nil {
			return fmt.Errorf("failed to accept friend request: %w", err)
		}
		if !updated {
			return ErrAlreadyAccepted
		}
		request.Status = models.FriendRequestStatusAccepted

		if _, err := txEdgeRepo.AddIfMissing(ctx, request.SenderID, request.ReceiverID); err != nil {
			return fmt.Errorf("failed to add friend edge: %w", err)
		}
		if _, err := txEdgeRepo.AddIfMissing(ctx, request.ReceiverID, request.SenderID); err != nil {
			return fmt.Errorf("failed to add friend edge: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordAccept(outcomeOf(err))
		return err
	}

	metrics.RecordAccept("accepted")
	s.logger.Info("friend request accepted",
		zap.Uint("request_id", request.ID),
		zap.Uint("sender_id", request.SenderID),
		zap.Uint("receiver_id", request.ReceiverID))

	s.publish(ctx, shelftypes.FriendEvent{
		Type:        shelftypes.FriendRequestAccepted,
		RecipientID: request.SenderID,
		ActorID:     request.ReceiverID,
		RequestID:   request.ID,
	})
	return nil
}

// ListFriends returns principalID's friends in the order they were added.
// The friend set is reconciled on the way: duplicate or self edges are
// deleted and a missing mirror edge is restored, all in one transaction.
// Friends whose account no longer resolves are left out.
func (s *friendService) ListFriends(ctx context.Context, principalID uint) ([]models.UserBasicInfo, error) {
	var friends []models.UserBasicInfo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		friends, _, err = s.reconcileEdges(ctx, tx, principalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return friends, nil
}

// RepairFriendEdges runs the read-time reconciliation on its own and reports
// how many rows it deleted or inserted.
func (s *friendService) RepairFriendEdges(ctx context.Context, principalID uint) (int64, error) {
	var repaired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		_, repaired, err = s.reconcileEdges(ctx, tx, principalID)
		return err
	})
	return repaired, err
}

func (s *friendService) reconcileEdges(ctx context.Context, tx *gorm.DB, principalID uint) ([]models.UserBasicInfo, int64, error) {
	edgeRepo := storage.NewGormFriendEdgeRepository(tx)

	friendIDs, removed, err := s.compactEdges(ctx, edgeRepo, principalID)
	if err != nil {
		return nil, 0, err
	}

	infos, err := storage.NewGormUserRepository(tx).GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve friends: %w", err)
	}
	byID := make(map[uint]models.UserBasicInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	friends := make([]models.UserBasicInfo, 0, len(friendIDs))
	var restored int64
	for _, id := range friendIDs {
		info, ok := byID[id]
		if !ok {
			continue
		}
		friends = append(friends, info)

		added, err := edgeRepo.AddIfMissing(ctx, id, principalID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to restore mirror edge: %w", err)
		}
		if added {
			restored++
		}
	}
	if restored > 0 {
		metrics.RecordGraphRepair(restored)
		s.logger.Warn("restored one-sided friend edges",
			zap.Uint("principal_id", principalID),
			zap.Int64("restored", restored))
	}
	return friends, removed + restored, nil
}

// compactEdges keeps the oldest edge per friend and deletes the rest,
// self edges included. It returns the surviving friend ids in edge order.
func (s *friendService) compactEdges(ctx context.Context, edgeRepo storage.FriendEdgeRepository, principalID uint) ([]uint, int64, error) {
	edges, err := edgeRepo.ListByOwnerForUpdate(ctx, principalID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load friend edges: %w", err)
	}

	seen := make(map[uint]struct{}, len(edges))
	friendIDs := make([]uint, 0, len(edges))
	var extra []uint
	for _, edge := range edges {
		if _, dup := seen[edge.FriendID]; dup || edge.FriendID == principalID {
			extra = append(extra, edge.ID)
			continue
		}
		seen[edge.FriendID] = struct{}{}
		friendIDs = append(friendIDs, edge.FriendID)
	}
	if len(extra) == 0 {
		return friendIDs, 0, nil
	}

	removed, err := edgeRepo.DeleteByIDs(ctx, extra)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to delete duplicate friend edges: %w", err)
	}
	metrics.RecordGraphRepair(removed)
	s.logger.Warn("repaired friend edges",
		zap.Uint("principal_id", principalID),
		zap.Int64("removed", removed))
	return friendIDs, removed, nil
}

// GetSharedCollection returns ownerID's books if callerID is their friend at
// the time of the call. Nobody is their own friend, so a self read is
// forbidden too; the owner reads their own shelf through BookService.
func (s *friendService) GetSharedCollection(ctx context.Context, callerID, ownerID uint) ([]models.Book, error) {
	friends, err := storage.NewGormFriendEdgeRepository(s.db).Exists(ctx, callerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	friends = friends && callerID != ownerID
	metrics.RecordAccessDecision(friends)
	if !friends {
		return nil, ErrForbidden
	}

	books, err := s.bookRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// RemoveFriend deletes both friend edges and every request between the two
// principals, whatever its status. Removing an absent friendship succeeds,
// and so does removing oneself, which never has an edge to delete.
func (s *friendService) RemoveFriend(ctx context.Context, callerID, otherID uint) error {
	if callerID == 0 || otherID == 0 {
		return fmt.Errorf("%w: user ids are required", ErrInvalidArgument)
	}
	if callerID == otherID {
		return nil
	}

	var edgesRemoved, requestsRemoved int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		edgesRemoved, err = storage.NewGormFriendEdgeRepository(tx).DeletePair(ctx, callerID, otherID)
		if err != nil {
			return fmt.Errorf("failed to delete friend edges: %w", err)
		}
		requestsRemoved, err = storage.NewGormFriendRequestRepository(tx).DeleteBetween(ctx, callerID, otherID)
		if err != nil {
			return fmt.Errorf("failed to delete friend requests: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("friend removed",
		zap.Uint("caller_id", callerID),
		zap.Uint("other_id", otherID),
		zap.Int64("edges_removed", edgesRemoved),
		zap.Int64("requests_removed", requestsRemoved))

	if edgesRemoved > 0 {
		metrics.FriendshipsRemoved.Inc()
		s.publish(ctx, shelftypes.FriendEvent{
			Type:        shelftypes.FriendshipRemoved,
			RecipientID: otherID,
			ActorID:     callerID,
		})
	}
	return nil
}

// publish sends event after the change has committed. Failures are logged
// only: the committed change stands either way.
func (s *friendService) publish(ctx context.Context, event shelftypes.FriendEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if actor, err := s.userRepo.GetBasicInfoByID(ctx, event.ActorID); err == nil {
		event.ActorName = actor.Name
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := s.publisher.PublishFriendEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish friend event",
			zap.String("type", string(event.Type)),
			zap.Uint("recipient_id", event.RecipientID),
			zap.Error(err))
	}
}

// outcomeOf labels err for the friend request metrics.
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrSelfReference):
		return "self_reference"
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, ErrAlreadyFriends):
		return "already_friends"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAlreadyAccepted):
		return "already_accepted"
	default:
		return "error"
	}
}
