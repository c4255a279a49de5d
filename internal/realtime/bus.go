// Package realtime provides the live-session channel layer: a pub/sub
// bus of per-user broadcast groups that WebSocket connections join for
// the duration of their lifetime.
package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-connection frame backlog. A subscriber
// that falls further behind has frames dropped rather than blocking
// the broadcasting goroutine.
const subscriberBuffer = 16

// Subscriber is one live connection's membership in a group. Frames
// broadcast to the group arrive on Frames until the subscriber leaves.
type Subscriber struct {
	id     string
	frames chan []byte
	done   chan struct{}
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		id:     uuid.New().String(),
		frames: make(chan []byte, subscriberBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the subscriber's unique id.
func (s *Subscriber) ID() string { return s.id }

// Frames returns the channel delivering broadcast frames.
func (s *Subscriber) Frames() <-chan []byte { return s.frames }

// Done is closed when the subscriber is removed from its group.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Bus is the injected message-bus capability behind the live-session
// delivery channel. Implementations may be in-process (Hub) or backed
// by a distributed store (RedisBus); callers must not assume which.
type Bus interface {
	// Join registers a new subscriber in the named group.
	Join(group string) (*Subscriber, error)
	// Leave removes the subscriber from the group. Safe to call for a
	// subscriber that already left.
	Leave(group string, sub *Subscriber)
	// Send broadcasts a frame to every subscriber of the group. A group
	// with no subscribers is a silent no-op, not an error.
	Send(ctx context.Context, group string, frame []byte) error
	Close() error
}

// UserGroup names the per-user broadcast group.
func UserGroup(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}
