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

// PostService handles posts, comments and replies, emitting the
// corresponding notification events.
type PostService struct {
	posts    repositories.PostRepository
	store    repositories.FriendGraphStore
	users    repositories.UserRepository
	notifier notify.Notifier
	log      *logrus.Entry
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, store repositories.FriendGraphStore, users repositories.UserRepository, notifier notify.Notifier) *PostService {
	return &PostService{
		posts:    posts,
		store:    store,
		users:    users,
		notifier: notifier,
		log:      logger.Log.WithField("component", "post_service"),
	}
}

// CreatePost stores a post. A post on another user's wall notifies the
// wall owner; a timeline post fans a live-only new_post event out to
// the author's friends.
func (s *PostService) CreatePost(authorID uint, req models.CreatePostRequest) (*models.Post, error) {
	wallOwnerID := req.WallOwnerID
	if wallOwnerID == 0 {
		wallOwnerID = authorID
	}
	if wallOwnerID != authorID {
		if _, err := s.users.GetUserByID(wallOwnerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	post := &models.Post{
		AuthorID:    authorID,
		WallOwnerID: wallOwnerID,
		Body:        req.Body,
	}
	if err := s.posts.CreatePost(post); err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(authorID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", authorID).Warn("author lookup for notification failed")
		return post, nil
	}
	summary := author.ToSummary()

	if wallOwnerID != authorID {
		s.notifier.DispatchAsync(notify.WallPostEvent(wallOwnerID, summary, post))
		return post, nil
	}

	friendIDs, err := s.store.ListFriendIDs(authorID)
	if err != nil {
		s.log.WithError(err).Warn("friend listing for new_post fan-out failed")
		return post, nil
	}
	for _, friendID := range friendIDs {
		s.notifier.DispatchAsync(notify.NewPostEvent(friendID, summary, post))
	}
	return post, nil
}

// GetWallPosts lists the newest posts on a user's wall.
func (s *PostService) GetWallPosts(wallOwnerID uint, limit int) ([]models.Post, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.posts.ListWallPosts(wallOwnerID, limit)
}

// CreateComment stores a comment or reply and notifies the relevant
// authors. The parent comment's author gets comment_reply; the post
// author gets post_comment unless they already got the reply event or
// are the actor.
func (s *PostService) CreateComment(authorID, postID uint, req models.CreateCommentRequest) (*models.Comment, error) {
	post, err := s.posts.GetPostByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var parent *models.Comment
	if req.ParentCommentID != nil {
		parent, err = s.posts.GetCommentByID(*req.ParentCommentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, ErrNotFound
		}
	}

	comment := &models.Comment{
		PostID:          postID,
		AuthorID:        authorID,
		ParentCommentID: req.ParentCommentID,
		Body:            req.Body,
	}
	if err := s.posts.CreateComment(comment); err != nil {
		return nil, err
	}

	actor, err := s.users.GetUserByID(authorID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", authorID).Warn("actor lookup for notification failed")
		return comment, nil
	}
	summary := actor.ToSummary()

	notifiedParentAuthor := uint(0)
	if parent != nil && parent.AuthorID != authorID {
		s.notifier.DispatchAsync(notify.CommentReplyEvent(parent.AuthorID, summary, comment))
		notifiedParentAuthor = parent.AuthorID
	}
	if post.AuthorID != authorID && post.AuthorID != notifiedParentAuthor {
		s.notifier.DispatchAsync(notify.PostCommentEvent(post.AuthorID, summary, comment))
	}
	return comment, nil
}

// ListComments retrieves all comments for a post, oldest first.
func (s *PostService) ListComments(postID uint) ([]models.Comment, error) {
	if _, err := s.posts.GetPostByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.posts.ListComments(postID)
}
