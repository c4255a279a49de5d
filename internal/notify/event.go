// Package notify implements the notification dispatcher: one logical
// event fanned out to the target user's live-session group, push
// subscriptions, and persisted feed, with each channel failing
// independently of the others and of the mutation that produced the
// event.
package notify

import (
	"fmt"
	"strconv"

	"github.com/numeneon-social/backend/internal/models"
)

// EventType enumerates the notification event kinds.
type EventType string

const (
	EventFriendRequest  EventType = "friend_request"
	EventFriendAccepted EventType = "friend_accepted"
	EventNewMessage     EventType = "new_message"
	EventNewPost        EventType = "new_post"
	EventPostComment    EventType = "post_comment"
	EventCommentReply   EventType = "comment_reply"
	EventWallPost       EventType = "wall_post"
	EventStoryReaction  EventType = "story_reaction"
)

// pushEligible is the subset of event types delivered over Web Push;
// everything else is live-session only.
var pushEligible = map[EventType]bool{
	EventFriendRequest:  true,
	EventFriendAccepted: true,
	EventNewMessage:     true,
	EventPostComment:    true,
	EventCommentReply:   true,
	EventStoryReaction:  true,
}

// Event is one ephemeral notification. It is consumed exactly once per
// delivery channel and never persisted as-is (the feed entry derived
// from it is a separate record).
type Event struct {
	TargetUserID uint
	ActorID      uint
	Type         EventType

	// Payload is forwarded verbatim as the live frame's data field.
	Payload any

	// Title, Body and Tag shape the Web Push notification.
	Title string
	Body  string
	Tag   string

	// FeedMessage, when non-empty, persists a notification feed entry.
	FeedMessage string
	TargetID    string
	TargetType  string
}

// FriendRequestEvent notifies toUserID that from sent a friend request.
func FriendRequestEvent(toUserID uint, from models.UserSummary, requestID uint) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      from.ID,
		Type:         EventFriendRequest,
		Payload: map[string]any{
			"request_id": requestID,
			"from_user":  from,
		},
		Title:       "Friend Request",
		Body:        fmt.Sprintf("%s sent you a friend request", from.Username),
		Tag:         "friend-request-" + strconv.FormatUint(uint64(requestID), 10),
		FeedMessage: fmt.Sprintf("%s sent you a friend request", from.Username),
		TargetID:    strconv.FormatUint(uint64(requestID), 10),
		TargetType:  "friend_request",
	}
}

// FriendAcceptedEvent notifies the original sender that friend accepted.
func FriendAcceptedEvent(toUserID uint, friend models.UserSummary) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      friend.ID,
		Type:         EventFriendAccepted,
		Payload: map[string]any{
			"friend": friend,
		},
		Title:       "Friend Request Accepted",
		Body:        fmt.Sprintf("%s accepted your friend request", friend.Username),
		Tag:         "friend-accepted-" + strconv.FormatUint(uint64(friend.ID), 10),
		FeedMessage: fmt.Sprintf("%s accepted your friend request", friend.Username),
		TargetID:    strconv.FormatUint(uint64(friend.ID), 10),
		TargetType:  "user",
	}
}

// NewMessageEvent notifies the recipient of a direct message.
func NewMessageEvent(toUserID uint, sender models.UserSummary, message *models.DirectMessage) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      sender.ID,
		Type:         EventNewMessage,
		Payload: map[string]any{
			"message": message,
			"sender":  sender,
		},
		Title: "New Message",
		Body:  fmt.Sprintf("%s sent you a message", sender.Username),
		Tag:   "message-" + strconv.FormatUint(uint64(sender.ID), 10),
	}
}

// NewPostEvent notifies a friend that author published a post.
func NewPostEvent(toUserID uint, author models.UserSummary, post *models.Post) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      author.ID,
		Type:         EventNewPost,
		Payload: map[string]any{
			"post":   post,
			"author": author,
		},
	}
}

// PostCommentEvent notifies the post author about a new comment.
func PostCommentEvent(toUserID uint, actor models.UserSummary, comment *models.Comment) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      actor.ID,
		Type:         EventPostComment,
		Payload: map[string]any{
			"comment": comment,
			"actor":   actor,
		},
		Title:       "New Comment",
		Body:        fmt.Sprintf("%s commented on your post", actor.Username),
		Tag:         "comment-" + strconv.FormatUint(uint64(comment.PostID), 10),
		FeedMessage: fmt.Sprintf("%s commented on your post", actor.Username),
		TargetID:    strconv.FormatUint(uint64(comment.PostID), 10),
		TargetType:  "post",
	}
}

// CommentReplyEvent notifies a comment author about a reply.
func CommentReplyEvent(toUserID uint, actor models.UserSummary, reply *models.Comment) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      actor.ID,
		Type:         EventCommentReply,
		Payload: map[string]any{
			"comment": reply,
			"actor":   actor,
		},
		Title:       "New Reply",
		Body:        fmt.Sprintf("%s replied to your comment", actor.Username),
		Tag:         "reply-" + strconv.FormatUint(uint64(reply.ID), 10),
		FeedMessage: fmt.Sprintf("%s replied to your comment", actor.Username),
		TargetID:    strconv.FormatUint(uint64(reply.PostID), 10),
		TargetType:  "post",
	}
}

// WallPostEvent notifies a user that actor posted on their wall.
func WallPostEvent(toUserID uint, actor models.UserSummary, post *models.Post) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      actor.ID,
		Type:         EventWallPost,
		Payload: map[string]any{
			"post":  post,
			"actor": actor,
		},
		FeedMessage: fmt.Sprintf("%s posted on your wall", actor.Username),
		TargetID:    strconv.FormatUint(uint64(post.ID), 10),
		TargetType:  "post",
	}
}

// StoryReactionEvent notifies the story owner about a reaction.
func StoryReactionEvent(toUserID uint, actor models.UserSummary, storyID uint, reactionType string) Event {
	return Event{
		TargetUserID: toUserID,
		ActorID:      actor.ID,
		Type:         EventStoryReaction,
		Payload: map[string]any{
			"story_id":      storyID,
			"reaction_type": reactionType,
			"actor":         actor,
		},
		Title:       "Story Reaction",
		Body:        fmt.Sprintf("%s reacted to your story", actor.Username),
		Tag:         "story-reaction-" + strconv.FormatUint(uint64(storyID), 10),
		FeedMessage: fmt.Sprintf("%s reacted to your story", actor.Username),
		TargetID:    strconv.FormatUint(uint64(storyID), 10),
		TargetType:  "story",
	}
}
