package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/notify"
)

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	mu       sync.Mutex
	posts    map[uint]models.Post
	comments map[uint]models.Comment
	nextID   uint
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:    make(map[uint]models.Post),
		comments: make(map[uint]models.Comment),
	}
}

func (r *fakePostRepo) CreatePost(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now()
	r.posts[post.ID] = *post
	return nil
}

func (r *fakePostRepo) GetPostByID(id uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &post, nil
}

func (r *fakePostRepo) ListWallPosts(wallOwnerID uint, limit int) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Post
	for id := r.nextID; id >= 1 && len(out) < limit; id-- {
		if p, ok := r.posts[id]; ok && p.WallOwnerID == wallOwnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) CreateComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = *comment
	return nil
}

func (r *fakePostRepo) GetCommentByID(id uint) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &comment, nil
}

func (r *fakePostRepo) ListComments(postID uint) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for id := uint(1); id <= r.nextID; id++ {
		if c, ok := r.comments[id]; ok && c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func newPostTestService() (*PostService, *fakeGraphStore, *recordingNotifier) {
	store := newFakeGraphStore()
	users := newFakeUserRepo(
		models.User{ID: 1, Username: "ana"},
		models.User{ID: 2, Username: "ben"},
		models.User{ID: 3, Username: "cho"},
	)
	notifier := &recordingNotifier{}
	return NewPostService(newFakePostRepo(), store, users, notifier), store, notifier
}

func TestCreateTimelinePostFansOutToFriends(t *testing.T) {
	svc, store, notifier := newPostTestService()
	require.NoError(t, store.AddFriendPair(1, 2))
	require.NoError(t, store.AddFriendPair(1, 3))

	post, err := svc.CreatePost(1, models.CreatePostRequest{Body: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), post.WallOwnerID)

	events := notifier.all()
	require.Len(t, events, 2)
	targets := []uint{events[0].TargetUserID, events[1].TargetUserID}
	assert.ElementsMatch(t, []uint{2, 3}, targets)
	for _, ev := range events {
		assert.Equal(t, notify.EventNewPost, ev.Type)
		assert.Equal(t, uint(1), ev.ActorID)
	}
}

func TestCreateTimelinePostWithoutFriendsIsSilent(t *testing.T) {
	svc, _, notifier := newPostTestService()

	_, err := svc.CreatePost(1, models.CreatePostRequest{Body: "talking to myself"})
	require.NoError(t, err)
	assert.Empty(t, notifier.all())
}

func TestCreateWallPostNotifiesOwnerOnly(t *testing.T) {
	svc, store, notifier := newPostTestService()
	require.NoError(t, store.AddFriendPair(1, 3))

	post, err := svc.CreatePost(1, models.CreatePostRequest{Body: "happy birthday", WallOwnerID: 2})
	require.NoError(t, err)
	assert.Equal(t, uint(2), post.WallOwnerID)

	events := notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventWallPost, events[0].Type)
	assert.Equal(t, uint(2), events[0].TargetUserID)
}

func TestCreateWallPostUnknownOwner(t *testing.T) {
	svc, _, _ := newPostTestService()

	_, err := svc.CreatePost(1, models.CreatePostRequest{Body: "hi", WallOwnerID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentNotifiesPostAuthor(t *testing.T) {
	svc, _, notifier := newPostTestService()
	post, err := svc.CreatePost(1, models.CreatePostRequest{Body: "original"})
	require.NoError(t, err)

	_, err = svc.CreateComment(2, post.ID, models.CreateCommentRequest{Body: "nice"})
	require.NoError(t, err)

	events := notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventPostComment, events[0].Type)
	assert.Equal(t, uint(1), events[0].TargetUserID)
}

func TestCommentOnOwnPostIsSilent(t *testing.T) {
	svc, _, notifier := newPostTestService()
	post, err := svc.CreatePost(1, models.CreatePostRequest{Body: "original"})
	require.NoError(t, err)

	_, err = svc.CreateComment(1, post.ID, models.CreateCommentRequest{Body: "addendum"})
	require.NoError(t, err)
	assert.Empty(t, notifier.all())
}

func TestReplyNotifiesParentAndPostAuthors(t *testing.T) {
	svc, _, notifier := newPostTestService()
	post, err := svc.CreatePost(1, models.CreatePostRequest{Body: "original"})
	require.NoError(t, err)
	comment, err := svc.CreateComment(2, post.ID, models.CreateCommentRequest{Body: "nice"})
	require.NoError(t, err)
	before := len(notifier.all())

	// Cho replies to Ben's comment: Ben gets comment_reply, Ana (post
	// author) gets post_comment.
	_, err = svc.CreateComment(3, post.ID, models.CreateCommentRequest{
		Body:            "agreed",
		ParentCommentID: &comment.ID,
	})
	require.NoError(t, err)

	events := notifier.all()[before:]
	require.Len(t, events, 2)
	assert.Equal(t, notify.EventCommentReply, events[0].Type)
	assert.Equal(t, uint(2), events[0].TargetUserID)
	assert.Equal(t, notify.EventPostComment, events[1].Type)
	assert.Equal(t, uint(1), events[1].TargetUserID)
}

func TestReplyToPostAuthorComment(t *testing.T) {
	svc, _, notifier := newPostTestService()
	post, err := svc.CreatePost(1, models.CreatePostRequest{Body: "original"})
	require.NoError(t, err)
	// The post author comments on their own post.
	comment, err := svc.CreateComment(1, post.ID, models.CreateCommentRequest{Body: "more thoughts"})
	require.NoError(t, err)
	before := len(notifier.all())

	// Ben replies: Ana is both parent and post author, one event only.
	_, err = svc.CreateComment(2, post.ID, models.CreateCommentRequest{
		Body:            "interesting",
		ParentCommentID: &comment.ID,
	})
	require.NoError(t, err)

	events := notifier.all()[before:]
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventCommentReply, events[0].Type)
	assert.Equal(t, uint(1), events[0].TargetUserID)
}

func TestCommentOnMissingPost(t *testing.T) {
	svc, _, _ := newPostTestService()

	_, err := svc.CreateComment(1, 999, models.CreateCommentRequest{Body: "void"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplyToCommentFromOtherPost(t *testing.T) {
	svc, _, _ := newPostTestService()
	first, err := svc.CreatePost(1, models.CreatePostRequest{Body: "first"})
	require.NoError(t, err)
	second, err := svc.CreatePost(1, models.CreatePostRequest{Body: "second"})
	require.NoError(t, err)
	comment, err := svc.CreateComment(2, first.ID, models.CreateCommentRequest{Body: "on first"})
	require.NoError(t, err)

	_, err = svc.CreateComment(3, second.ID, models.CreateCommentRequest{
		Body:            "cross-post reply",
		ParentCommentID: &comment.ID,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
