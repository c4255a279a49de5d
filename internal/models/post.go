package models

import "time"

// Post is a user post. WallOwnerID is the profile the post appears on;
// it equals AuthorID for a regular timeline post and differs for a
// post written on another user's wall.
type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AuthorID    uint      `json:"author_id" gorm:"index"`
	WallOwnerID uint      `json:"wall_owner_id" gorm:"index"`
	Body        string    `json:"body" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// Comment is a comment on a post. A non-nil ParentCommentID makes it a
// reply to another comment on the same post.
type Comment struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	PostID          uint      `json:"post_id" gorm:"index"`
	AuthorID        uint      `json:"author_id" gorm:"index"`
	ParentCommentID *uint     `json:"parent_comment_id,omitempty" gorm:"index"`
	Body            string    `json:"body" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreatePostRequest defines the request body for creating a post
type CreatePostRequest struct {
	Body        string `json:"body" validate:"required,max=5000"`
	WallOwnerID uint   `json:"wall_owner_id,omitempty"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Body            string `json:"body" validate:"required,max=2000"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
}
