package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/numeneon-social/backend/internal/models"
)

// ErrSubscriptionGone signals that the push service reported the
// endpoint as permanently unreachable and its row should be pruned.
var ErrSubscriptionGone = errors.New("push subscription gone")

// PushMessage is the notification content handed to a PushSender.
type PushMessage struct {
	Title string
	Body  string
	Tag   string
	Type  EventType
	Data  any
}

// PushSender delivers one message to one subscription.
type PushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, msg PushMessage) error
}

// WebPushSender sends Web Push notifications signed with VAPID keys.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subject    string
}

// NewWebPushSender creates a WebPushSender. The subject is the VAPID
// contact (mailto: or https: URL) advertised to push services.
func NewWebPushSender(publicKey, privateKey, subject string) *WebPushSender {
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
	}
}

// Send delivers the message to the subscription's endpoint.
func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, msg PushMessage) error {
	payload, err := json.Marshal(map[string]any{
		"title": msg.Title,
		"body":  msg.Body,
		"tag":   msg.Tag,
		"data": map[string]any{
			"type":    string(msg.Type),
			"payload": msg.Data,
		},
	})
	if err != nil {
		return fmt.Errorf("notify: encode push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("notify: send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("notify: push service returned %d", resp.StatusCode)
	}
	return nil
}
