package models

import "time"

// Story is an ephemeral post that disappears after ExpiresAt.
type Story struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AuthorID  uint      `json:"author_id" gorm:"index"`
	MediaURL  string    `json:"media_url" gorm:"size:500"`
	Caption   string    `json:"caption" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// StoryReaction is one user's reaction to a story. Reacting again
// replaces the previous reaction rather than adding a second row.
type StoryReaction struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StoryID      uint      `json:"story_id" gorm:"index:idx_story_user,unique"`
	UserID       uint      `json:"user_id" gorm:"index:idx_story_user,unique"`
	ReactionType string    `json:"reaction_type" gorm:"size:20"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateStoryRequest defines the request body for posting a story
type CreateStoryRequest struct {
	MediaURL string `json:"media_url" validate:"required,url"`
	Caption  string `json:"caption" validate:"max=500"`
}

// ReactStoryRequest defines the request body for reacting to a story
type ReactStoryRequest struct {
	ReactionType string `json:"reaction_type" validate:"required,oneof=heart thunder"`
}
