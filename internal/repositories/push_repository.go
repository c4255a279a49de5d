package repositories

import (
	"github.com/numeneon-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PushSubscriptionRepository defines the interface for the push
// subscription registry.
type PushSubscriptionRepository interface {
	// Upsert stores the subscription keyed by endpoint. A row that
	// already exists for the endpoint, even under a stale user, is
	// reassigned to sub.UserID with refreshed keys.
	Upsert(sub *models.PushSubscription) error
	// DeleteOwned deletes the endpoint's row only if owned by userID.
	// Returns whether a row was deleted.
	DeleteOwned(userID uint, endpoint string) (bool, error)
	// DeleteEndpoint removes the row regardless of owner. Used when the
	// push service reports the endpoint permanently gone.
	DeleteEndpoint(endpoint string) error
	ListForUser(userID uint) ([]models.PushSubscription, error)
}

// PostgresPushSubscriptionRepository implements PushSubscriptionRepository for PostgreSQL
type PostgresPushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPostgresPushSubscriptionRepository creates a new PostgresPushSubscriptionRepository
func NewPostgresPushSubscriptionRepository(db *gorm.DB) *PostgresPushSubscriptionRepository {
	return &PostgresPushSubscriptionRepository{db: db}
}

// Upsert inserts or updates the subscription row for sub.Endpoint.
func (r *PostgresPushSubscriptionRepository) Upsert(sub *models.PushSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

// DeleteOwned deletes the subscription if it belongs to userID.
func (r *PostgresPushSubscriptionRepository) DeleteOwned(userID uint, endpoint string) (bool, error) {
	res := r.db.Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteEndpoint deletes the subscription row for an endpoint.
func (r *PostgresPushSubscriptionRepository) DeleteEndpoint(endpoint string) error {
	return r.db.Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
}

// ListForUser retrieves all live subscriptions for a user.
func (r *PostgresPushSubscriptionRepository) ListForUser(userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := r.db.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
