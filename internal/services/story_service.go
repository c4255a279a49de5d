package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/notify"
	"github.com/numeneon-social/backend/internal/repositories"
	"github.com/numeneon-social/backend/pkg/logger"
)

// storyLifetime is how long a story stays visible.
const storyLifetime = 24 * time.Hour

// ReactionCounts summarizes the reactions on one story.
type ReactionCounts struct {
	Heart   int64 `json:"heart_count"`
	Thunder int64 `json:"thunder_count"`
}

// StoryService handles ephemeral stories and their reactions.
type StoryService struct {
	stories  repositories.StoryRepository
	users    repositories.UserRepository
	notifier notify.Notifier
	log      *logrus.Entry
}

// NewStoryService creates a new StoryService
func NewStoryService(stories repositories.StoryRepository, users repositories.UserRepository, notifier notify.Notifier) *StoryService {
	return &StoryService{
		stories:  stories,
		users:    users,
		notifier: notifier,
		log:      logger.Log.WithField("component", "story_service"),
	}
}

// CreateStory stores a new story expiring after the standard lifetime.
func (s *StoryService) CreateStory(authorID uint, req models.CreateStoryRequest) (*models.Story, error) {
	story := &models.Story{
		AuthorID:  authorID,
		MediaURL:  req.MediaURL,
		Caption:   req.Caption,
		ExpiresAt: time.Now().Add(storyLifetime),
	}
	if err := s.stories.CreateStory(story); err != nil {
		return nil, err
	}
	return story, nil
}

// ListStories returns a user's unexpired stories.
func (s *StoryService) ListStories(authorID uint) ([]models.Story, error) {
	return s.stories.ListActiveByAuthor(authorID)
}

// React records (or replaces) the user's reaction and notifies the
// story owner unless the reactor is the owner.
func (s *StoryService) React(userID, storyID uint, reactionType string) (*ReactionCounts, error) {
	story, err := s.stories.GetActiveStoryByID(storyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reaction := &models.StoryReaction{
		StoryID:      storyID,
		UserID:       userID,
		ReactionType: reactionType,
	}
	if err := s.stories.UpsertReaction(reaction); err != nil {
		return nil, err
	}

	if story.AuthorID != userID {
		if actor, err := s.users.GetUserByID(userID); err == nil {
			s.notifier.DispatchAsync(notify.StoryReactionEvent(story.AuthorID, actor.ToSummary(), storyID, reactionType))
		} else {
			s.log.WithError(err).WithField("user_id", userID).Warn("reactor lookup for notification failed")
		}
	}
	return s.reactionCounts(storyID)
}

// RemoveReaction deletes the user's reaction. Missing reaction is
// ErrNotFound so the client can reconcile its state.
func (s *StoryService) RemoveReaction(userID, storyID uint) error {
	if _, err := s.stories.GetActiveStoryByID(storyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	deleted, err := s.stories.DeleteReaction(storyID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *StoryService) reactionCounts(storyID uint) (*ReactionCounts, error) {
	heart, err := s.stories.CountReactions(storyID, "heart")
	if err != nil {
		return nil, err
	}
	thunder, err := s.stories.CountReactions(storyID, "thunder")
	if err != nil {
		return nil, err
	}
	return &ReactionCounts{Heart: heart, Thunder: thunder}, nil
}
