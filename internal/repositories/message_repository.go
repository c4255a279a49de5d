package repositories

import (
	"github.com/numeneon-social/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message storage.
type MessageRepository interface {
	CreateMessage(msg *models.DirectMessage) error
	// GetConversation returns the most recent messages between the two
	// users in either direction, oldest first.
	GetConversation(a, b uint, limit int) ([]models.DirectMessage, error)
	// MarkConversationRead marks all messages sent by senderID to
	// recipientID as read.
	MarkConversationRead(recipientID, senderID uint) error
}

// PostgresMessageRepository implements MessageRepository for PostgreSQL
type PostgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository creates a new PostgresMessageRepository
func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// CreateMessage stores a new direct message
func (r *PostgresMessageRepository) CreateMessage(msg *models.DirectMessage) error {
	return r.db.Create(msg).Error
}

// GetConversation retrieves messages between two users, oldest first.
func (r *PostgresMessageRepository) GetConversation(a, b uint, limit int) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	err := r.db.Where(
		"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
		a, b, b, a,
	).Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkConversationRead marks messages from senderID to recipientID as read.
func (r *PostgresMessageRepository) MarkConversationRead(recipientID, senderID uint) error {
	return r.db.Model(&models.DirectMessage{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true).Error
}
