package realtime

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Join and Send after the bus shut down.
var ErrClosed = errors.New("realtime: bus closed")

// Hub is the single-process Bus: group membership held in a map,
// broadcast by non-blocking fan-out to each subscriber's channel.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Subscriber]struct{}
	closed bool
}

// NewHub creates an empty in-memory hub.
func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[*Subscriber]struct{})}
}

// Join registers a new subscriber in the named group.
func (h *Hub) Join(group string) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	sub := newSubscriber()
	subs, ok := h.groups[group]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.groups[group] = subs
	}
	subs[sub] = struct{}{}
	return sub, nil
}

// Leave removes the subscriber from the group.
func (h *Hub) Leave(group string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.groups[group]
	if !ok {
		return
	}
	if _, member := subs[sub]; !member {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.groups, group)
	}
	close(sub.done)
}

// Send broadcasts a frame to the group's subscribers. The send to each
// subscriber is non-blocking: a full buffer means the connection is
// too far behind and the frame is dropped for it.
func (h *Hub) Send(ctx context.Context, group string, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for sub := range h.groups[group] {
		select {
		case sub.frames <- frame:
		default:
		}
	}
	return nil
}

// Close shuts the hub down and detaches all subscribers.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for group, subs := range h.groups {
		for sub := range subs {
			close(sub.done)
		}
		delete(h.groups, group)
	}
	return nil
}
