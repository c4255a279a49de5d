package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/realtime"
	"github.com/numeneon-social/backend/internal/repositories"
	"github.com/numeneon-social/backend/pkg/logger"
)

// Notifier is the capability services use to emit events after a
// committed mutation. The caller is responsible for self-notification
// suppression: no event is emitted when the target is the actor.
type Notifier interface {
	DispatchAsync(event Event)
}

// Result aggregates push delivery counts for one dispatch. Live-session
// delivery is not counted: absence of a live connection is expected.
type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Frame is the wire shape written to a live WebSocket session.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Dispatcher fans one event out across the delivery channels. Channel
// failures are logged and counted, never propagated to the caller.
type Dispatcher struct {
	bus     realtime.Bus
	subs    repositories.PushSubscriptionRepository
	feed    repositories.NotificationRepository
	sender  PushSender
	timeout time.Duration
	log     *logrus.Entry
}

// NewDispatcher creates a Dispatcher. A nil sender disables the push
// channel entirely; the capability is resolved once at startup rather
// than probed per call.
func NewDispatcher(bus realtime.Bus, subs repositories.PushSubscriptionRepository, feed repositories.NotificationRepository, sender PushSender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		bus:     bus,
		subs:    subs,
		feed:    feed,
		sender:  sender,
		timeout: timeout,
		log:     logger.Log.WithField("component", "dispatcher"),
	}
}

// PushEnabled reports whether the push channel is configured.
func (d *Dispatcher) PushEnabled() bool {
	return d.sender != nil
}

// DispatchAsync delivers the event on a detached goroutine. The
// triggering request already committed and returned; delivery delay or
// failure is invisible to it.
func (d *Dispatcher) DispatchAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*d.timeout)
		defer cancel()
		d.Dispatch(ctx, event)
	}()
}

// Dispatch delivers the event to every channel, each attempted
// unconditionally even if another fails, and returns the push counts.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) Result {
	d.deliverLive(ctx, event)
	d.persistFeed(event)
	return d.deliverPush(ctx, event)
}

// deliverLive sends the {type, data} frame to the target's group. No
// active session is a silent no-op.
func (d *Dispatcher) deliverLive(ctx context.Context, event Event) {
	frame, err := json.Marshal(Frame{Type: string(event.Type), Data: event.Payload})
	if err != nil {
		d.log.WithError(err).WithField("type", event.Type).Error("encode live frame")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	group := realtime.UserGroup(event.TargetUserID)
	if err := d.bus.Send(sendCtx, group, frame); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"type":  event.Type,
			"group": group,
		}).Warn("live delivery failed")
	}
}

// persistFeed writes the notification-center entry for feed-worthy events.
func (d *Dispatcher) persistFeed(event Event) {
	if event.FeedMessage == "" || d.feed == nil {
		return
	}
	n := &models.Notification{
		Type:        string(event.Type),
		ActorID:     event.ActorID,
		RecipientID: event.TargetUserID,
		TargetID:    event.TargetID,
		TargetType:  event.TargetType,
		Message:     event.FeedMessage,
	}
	if err := d.feed.CreateNotification(n); err != nil {
		d.log.WithError(err).WithField("type", event.Type).Warn("persist feed entry failed")
	}
}

// deliverPush sends the event to every push subscription of the target.
// Every device that did not receive the message counts in Failed,
// including a permanently gone endpoint, which additionally has its
// subscription pruned. Remaining devices are always still attempted.
func (d *Dispatcher) deliverPush(ctx context.Context, event Event) Result {
	var result Result
	if d.sender == nil || !pushEligible[event.Type] {
		return result
	}

	subscriptions, err := d.subs.ListForUser(event.TargetUserID)
	if err != nil {
		d.log.WithError(err).WithField("user_id", event.TargetUserID).Warn("list push subscriptions failed")
		return result
	}

	msg := PushMessage{
		Title: event.Title,
		Body:  event.Body,
		Tag:   event.Tag,
		Type:  event.Type,
		Data:  event.Payload,
	}
	for _, sub := range subscriptions {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.sender.Send(sendCtx, sub, msg)
		cancel()
		if err == nil {
			result.Success++
			continue
		}
		result.Failed++
		if errors.Is(err, ErrSubscriptionGone) {
			if delErr := d.subs.DeleteEndpoint(sub.Endpoint); delErr != nil {
				d.log.WithError(delErr).Warn("prune gone subscription failed")
			}
			continue
		}
		d.log.WithError(err).WithFields(logrus.Fields{
			"type":    event.Type,
			"user_id": event.TargetUserID,
		}).Warn("push delivery failed")
	}

	if result.Failed > 0 {
		d.log.WithFields(logrus.Fields{
			"type":    event.Type,
			"user_id": event.TargetUserID,
			"success": result.Success,
			"failed":  result.Failed,
		}).Info("push dispatch finished with failures")
	}
	return result
}
