package repositories

import (
	"errors"

	"github.com/numeneon-social/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateEdge is returned when either direction of a friend
	// pair already exists.
	ErrDuplicateEdge = errors.New("friend edge already exists")
	// ErrSelfFriendship is returned for an attempted self edge.
	ErrSelfFriendship = errors.New("cannot create a friendship with yourself")
	// ErrDuplicateRequest is returned when a request for the same
	// (from, to) pair already exists.
	ErrDuplicateRequest = errors.New("friend request already exists")
)

// FriendGraphStore defines the interface for friendship edge and
// request data operations.
type FriendGraphStore interface {
	// ListFriendIDs returns the friend ids of ownerID in deterministic
	// (insertion, then id) order.
	ListFriendIDs(ownerID uint) ([]uint, error)
	// AreFriends reports whether the directed edge (a,b) exists. Callers
	// normally check one direction since pairs are maintained together,
	// but the asymmetric query is kept for integrity audits.
	AreFriends(a, b uint) (bool, error)
	// AddFriendPair inserts (a,b) and (b,a) atomically.
	AddFriendPair(a, b uint) error
	// RemoveFriendPair deletes (a,b) and (b,a) as two independent,
	// idempotent single-row deletes. Removing an absent pair is not an
	// error: the contract is "ensure not-friends".
	RemoveFriendPair(a, b uint) error

	CreateRequest(req *models.FriendRequest) error
	GetRequestByID(id uint) (*models.FriendRequest, error)
	RequestExists(fromID, toID uint) (bool, error)
	// ListIncomingRequests returns pending requests addressed to userID,
	// newest first.
	ListIncomingRequests(userID uint) ([]models.FriendRequest, error)
	DeleteRequest(id uint) error
	// ClaimRequest exclusively claims the request row (conditional
	// delete) and creates the friend edge pair in the same transaction.
	// A concurrent claim on the same id observes the row already gone
	// and gets gorm.ErrRecordNotFound; edges are never re-created.
	ClaimRequest(id uint) (*models.FriendRequest, error)
}

// PostgresFriendGraphStore implements FriendGraphStore for PostgreSQL
type PostgresFriendGraphStore struct {
	db *gorm.DB
}

// NewPostgresFriendGraphStore creates a new PostgresFriendGraphStore
func NewPostgresFriendGraphStore(db *gorm.DB) *PostgresFriendGraphStore {
	return &PostgresFriendGraphStore{db: db}
}

// ListFriendIDs returns the friend ids of ownerID in insertion order.
func (s *PostgresFriendGraphStore) ListFriendIDs(ownerID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.FriendEdge{}).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AreFriends reports whether the directed edge (a,b) exists.
func (s *PostgresFriendGraphStore) AreFriends(a, b uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.FriendEdge{}).
		Where("owner_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddFriendPair inserts both directions of a friendship atomically.
func (s *PostgresFriendGraphStore) AddFriendPair(a, b uint) error {
	if a == b {
		return ErrSelfFriendship
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return addPair(tx, a, b)
	})
}

// addPair creates the two edge rows inside the caller's transaction.
func addPair(tx *gorm.DB, a, b uint) error {
	var count int64
	err := tx.Model(&models.FriendEdge{}).
		Where("(owner_id = ? AND friend_id = ?) OR (owner_id = ? AND friend_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEdge
	}
	// The count above is only advisory: a concurrent transaction may
	// commit its pair between the check and the inserts, in which case
	// idx_owner_friend rejects ours.
	if err := tx.Create(&models.FriendEdge{OwnerID: a, FriendID: b}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEdge
		}
		return err
	}
	if err := tx.Create(&models.FriendEdge{OwnerID: b, FriendID: a}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEdge
		}
		return err
	}
	return nil
}

// RemoveFriendPair deletes both directions, each on its own. A missing
// edge (including a previously half-removed pair) is ignored.
func (s *PostgresFriendGraphStore) RemoveFriendPair(a, b uint) error {
	if err := s.db.Where("owner_id = ? AND friend_id = ?", a, b).
		Delete(&models.FriendEdge{}).Error; err != nil {
		return err
	}
	return s.db.Where("owner_id = ? AND friend_id = ?", b, a).
		Delete(&models.FriendEdge{}).Error
}

// CreateRequest creates a new pending friend request.
func (s *PostgresFriendGraphStore) CreateRequest(req *models.FriendRequest) error {
	if err := s.db.Create(req).Error; err != nil {
		// idx_from_to catches the insert race two concurrent sends of
		// the same request can reach after both existence checks pass.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// GetRequestByID retrieves a friend request by ID.
func (s *PostgresFriendGraphStore) GetRequestByID(id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := s.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// RequestExists reports whether a pending request (fromID -> toID) exists.
func (s *PostgresFriendGraphStore) RequestExists(fromID, toID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.FriendRequest{}).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListIncomingRequests retrieves pending requests addressed to userID,
// newest first.
func (s *PostgresFriendGraphStore) ListIncomingRequests(userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.Where("to_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// DeleteRequest deletes a friend request by ID.
func (s *PostgresFriendGraphStore) DeleteRequest(id uint) error {
	return s.db.Delete(&models.FriendRequest{}, id).Error
}

// ClaimRequest deletes the request row conditionally and creates the
// edge pair in one transaction. The delete is the claim: a second
// accept of the same id finds zero rows affected and gets
// gorm.ErrRecordNotFound while the winner's transaction commits the
// pair exactly once.
func (s *PostgresFriendGraphStore) ClaimRequest(id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.FriendRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return addPair(tx, req.FromUserID, req.ToUserID)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
