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

// MessageService handles direct messages between users.
type MessageService struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	notifier notify.Notifier
	log      *logrus.Entry
}

// NewMessageService creates a new MessageService
func NewMessageService(messages repositories.MessageRepository, users repositories.UserRepository, notifier notify.Notifier) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		notifier: notifier,
		log:      logger.Log.WithField("component", "message_service"),
	}
}

// SendMessage stores a message and notifies the recipient. A message to
// oneself is stored but never dispatched.
func (s *MessageService) SendMessage(senderID, recipientID uint, body string) (*models.DirectMessage, error) {
	if _, err := s.users.GetUserByID(recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	msg := &models.DirectMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.messages.CreateMessage(msg); err != nil {
		return nil, err
	}

	if senderID != recipientID {
		if sender, err := s.users.GetUserByID(senderID); err == nil {
			s.notifier.DispatchAsync(notify.NewMessageEvent(recipientID, sender.ToSummary(), msg))
		} else {
			s.log.WithError(err).WithField("user_id", senderID).Warn("sender lookup for notification failed")
		}
	}
	return msg, nil
}

// GetConversation returns the recent messages between the user and the
// other party and marks the other party's messages as read.
func (s *MessageService) GetConversation(userID, otherID uint, limit int) ([]models.DirectMessage, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	messages, err := s.messages.GetConversation(userID, otherID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkConversationRead(userID, otherID); err != nil {
		s.log.WithError(err).Warn("mark conversation read failed")
	}
	return messages, nil
}
