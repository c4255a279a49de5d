// Package services holds the state-transition logic between the HTTP
// handlers and the repositories, and is where notification events are
// emitted after a mutation commits.
package services

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/notify"
	"github.com/numeneon-social/backend/internal/repositories"
	"github.com/numeneon-social/backend/pkg/logger"
)

var (
	// ErrNotFound means the referenced user, request or resource is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor is not the authorized party.
	ErrForbidden = errors.New("not authorized")
	// ErrSelfTarget means the actor targeted themselves.
	ErrSelfTarget = errors.New("you cannot friend yourself")
	// ErrDuplicateRequest means an identical pending request exists.
	ErrDuplicateRequest = errors.New("friend request already sent")
	// ErrAlreadyFriends means the two users already share an edge pair.
	ErrAlreadyFriends = errors.New("you are already friends")
)

// FriendshipService implements the friend-graph state transitions:
// request, accept, decline, remove.
type FriendshipService struct {
	store    repositories.FriendGraphStore
	users    repositories.UserRepository
	notifier notify.Notifier
	log      *logrus.Entry
}

// NewFriendshipService creates a new FriendshipService
func NewFriendshipService(store repositories.FriendGraphStore, users repositories.UserRepository, notifier notify.Notifier) *FriendshipService {
	return &FriendshipService{
		store:    store,
		users:    users,
		notifier: notifier,
		log:      logger.Log.WithField("component", "friendship_service"),
	}
}

// SendRequest creates a pending request from fromID to toID and
// notifies the recipient. An opposite-direction pending request
// (toID -> fromID) is deliberately not checked: two users may hold
// crossed requests at once, and neither is auto-resolved.
func (s *FriendshipService) SendRequest(fromID, toID uint) (*models.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelfTarget
	}

	if _, err := s.users.GetUserByID(toID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.store.RequestExists(fromID, toID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	friends, err := s.store.AreFriends(fromID, toID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	req := &models.FriendRequest{FromUserID: fromID, ToUserID: toID}
	if err := s.store.CreateRequest(req); err != nil {
		// A concurrent duplicate send can slip past the existence check
		// and lose the insert race instead.
		if errors.Is(err, repositories.ErrDuplicateRequest) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	if sender, err := s.users.GetUserByID(fromID); err == nil {
		s.notifier.DispatchAsync(notify.FriendRequestEvent(toID, sender.ToSummary(), req.ID))
	} else {
		s.log.WithError(err).WithField("user_id", fromID).Warn("sender lookup for notification failed")
	}
	return req, nil
}

// AcceptRequest resolves a pending request into a friendship. Only the
// recipient may accept. The request row is claimed exclusively, so a
// concurrent accept (or an accept after decline/removal) observes
// ErrNotFound instead of re-creating edges. Returns the new friend's
// summary for the response body.
func (s *FriendshipService) AcceptRequest(requestID, actingUserID uint) (*models.UserSummary, error) {
	req, err := s.store.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.ToUserID != actingUserID {
		return nil, ErrForbidden
	}

	claimed, err := s.store.ClaimRequest(requestID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repositories.ErrDuplicateEdge):
			// Crossed requests: the opposite request was accepted first.
			return nil, ErrAlreadyFriends
		}
		return nil, err
	}

	friend, err := s.users.GetUserByID(claimed.FromUserID)
	if err != nil {
		return nil, err
	}
	summary := friend.ToSummary()

	if accepter, err := s.users.GetUserByID(actingUserID); err == nil {
		s.notifier.DispatchAsync(notify.FriendAcceptedEvent(claimed.FromUserID, accepter.ToSummary()))
	} else {
		s.log.WithError(err).WithField("user_id", actingUserID).Warn("accepter lookup for notification failed")
	}
	return &summary, nil
}

// DeclineRequest deletes a pending request without creating edges.
// Decline is silent: no notification is emitted.
func (s *FriendshipService) DeclineRequest(requestID, actingUserID uint) error {
	req, err := s.store.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if req.ToUserID != actingUserID {
		return ErrForbidden
	}
	return s.store.DeleteRequest(requestID)
}

// RemoveFriend removes both directions of the edge pair. Removing a
// non-existent friendship still succeeds: the contract is "ensure
// not-friends". No notification is emitted.
func (s *FriendshipService) RemoveFriend(selfID, targetID uint) error {
	if _, err := s.users.GetUserByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.store.RemoveFriendPair(selfID, targetID)
}

// ListPendingIncoming returns the pending requests addressed to userID,
// newest first, with the sender's public identity attached.
func (s *FriendshipService) ListPendingIncoming(userID uint) ([]models.PendingRequest, error) {
	requests, err := s.store.ListIncomingRequests(userID)
	if err != nil {
		return nil, err
	}

	pending := make([]models.PendingRequest, 0, len(requests))
	cache := make(map[uint]models.UserSummary)
	for _, req := range requests {
		summary, ok := cache[req.FromUserID]
		if !ok {
			user, err := s.users.GetUserByID(req.FromUserID)
			if err != nil {
				s.log.WithError(err).WithField("user_id", req.FromUserID).Warn("request sender lookup failed")
				continue
			}
			summary = user.ToSummary()
			cache[req.FromUserID] = summary
		}
		pending = append(pending, models.PendingRequest{
			ID:        req.ID,
			FromUser:  summary,
			CreatedAt: req.CreatedAt,
		})
	}
	return pending, nil
}

// ListFriends returns the user's friends as public summaries, reading
// each edge's friend id through the user directory. An edge whose user
// record is missing is skipped rather than failing the listing.
func (s *FriendshipService) ListFriends(userID uint) ([]models.UserSummary, error) {
	ids, err := s.store.ListFriendIDs(userID)
	if err != nil {
		return nil, err
	}

	friends := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetUserByID(id)
		if err != nil {
			s.log.WithError(err).WithField("user_id", id).Warn("friend lookup failed")
			continue
		}
		friends = append(friends, user.ToSummary())
	}
	return friends, nil
}
