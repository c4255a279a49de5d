package models

import "time"

// PushSubscription is one browser/device Web Push endpoint. The
// endpoint URL is the natural key: re-subscribing from the same browser
// updates the existing row (possibly reassigning it to a new user)
// instead of creating a duplicate.
type PushSubscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Endpoint  string    `json:"endpoint" gorm:"size:500;uniqueIndex"`
	P256dh    string    `json:"-" gorm:"size:255"`
	Auth      string    `json:"-" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
}

// PushKeys carries the client encryption keys of a subscription.
type PushKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// SubscribePushRequest defines the request body for subscribing to push notifications
type SubscribePushRequest struct {
	Endpoint string   `json:"endpoint" validate:"required,url"`
	Keys     PushKeys `json:"keys" validate:"required"`
}

// UnsubscribePushRequest defines the request body for unsubscribing
type UnsubscribePushRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}
