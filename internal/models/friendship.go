package models

import "time"

// FriendEdge is one directed "is-friend-of" record. A mutual friendship
// is always exactly two edges, (A,B) and (B,A), created together during
// request acceptance. Removal deletes each direction independently, so
// a lone edge is a tolerated transient state, never a valid end state.
type FriendEdge struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   uint      `json:"owner_id" gorm:"index:idx_owner_friend,unique"`
	FriendID  uint      `json:"friend_id" gorm:"index:idx_owner_friend,unique"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendRequest is a pending friend request. There is no status column:
// the row's existence is its "pending" state. Acceptance and decline
// both delete the row.
type FriendRequest struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FromUserID uint      `json:"from_user_id" gorm:"index:idx_from_to,unique"`
	ToUserID   uint      `json:"to_user_id" gorm:"index:idx_from_to,unique"`
	CreatedAt  time.Time `json:"created_at"`
}

// PendingRequest is the response shape for an incoming friend request.
type PendingRequest struct {
	ID        uint        `json:"id"`
	FromUser  UserSummary `json:"from_user"`
	CreatedAt time.Time   `json:"created_at"`
}
