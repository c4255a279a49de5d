package repositories

import (
	"time"

	"github.com/numeneon-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryRepository defines the interface for story storage.
type StoryRepository interface {
	CreateStory(story *models.Story) error
	// GetActiveStoryByID returns the story only if it has not expired.
	GetActiveStoryByID(id uint) (*models.Story, error)
	ListActiveByAuthor(authorID uint) ([]models.Story, error)
	// UpsertReaction stores the user's reaction, replacing any previous
	// reaction by the same user on the same story.
	UpsertReaction(reaction *models.StoryReaction) error
	// DeleteReaction removes the user's reaction and reports whether one
	// existed.
	DeleteReaction(storyID, userID uint) (bool, error)
	CountReactions(storyID uint, reactionType string) (int64, error)
}

// PostgresStoryRepository implements StoryRepository for PostgreSQL
type PostgresStoryRepository struct {
	db *gorm.DB
}

// NewPostgresStoryRepository creates a new PostgresStoryRepository
func NewPostgresStoryRepository(db *gorm.DB) *PostgresStoryRepository {
	return &PostgresStoryRepository{db: db}
}

// CreateStory stores a new story
func (r *PostgresStoryRepository) CreateStory(story *models.Story) error {
	return r.db.Create(story).Error
}

// GetActiveStoryByID retrieves an unexpired story by ID
func (r *PostgresStoryRepository) GetActiveStoryByID(id uint) (*models.Story, error) {
	var story models.Story
	err := r.db.Where("id = ? AND expires_at > ?", id, time.Now()).
		First(&story).Error
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// ListActiveByAuthor retrieves a user's unexpired stories, newest first
func (r *PostgresStoryRepository) ListActiveByAuthor(authorID uint) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.Where("author_id = ? AND expires_at > ?", authorID, time.Now()).
		Order("created_at DESC").Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// UpsertReaction inserts or replaces the user's reaction on a story.
func (r *PostgresStoryRepository) UpsertReaction(reaction *models.StoryReaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction_type"}),
	}).Create(reaction).Error
}

// DeleteReaction removes a user's reaction from a story.
func (r *PostgresStoryRepository) DeleteReaction(storyID, userID uint) (bool, error) {
	res := r.db.Where("story_id = ? AND user_id = ?", storyID, userID).
		Delete(&models.StoryReaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountReactions counts reactions of one type on a story
func (r *PostgresStoryRepository) CountReactions(storyID uint, reactionType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.StoryReaction{}).
		Where("story_id = ? AND reaction_type = ?", storyID, reactionType).
		Count(&count).Error
	return count, err
}
