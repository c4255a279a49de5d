package realtime

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/numeneon-social/backend/pkg/logger"
)

// channelPrefix namespaces the bus inside a shared Redis.
const channelPrefix = "notify:"

// RedisBus is the multi-process Bus: frames are published to a Redis
// channel per group and delivered locally through an embedded Hub.
// Local delivery also goes through Redis, so every process (including
// the publisher's own) sees the same stream.
type RedisBus struct {
	client *redis.Client
	local  *Hub
	log    *logrus.Entry

	mu      sync.Mutex
	pubsubs map[string]*redis.PubSub
	counts  map[string]int
}

// NewRedisBus creates a Bus backed by the Redis server at addr.
func NewRedisBus(addr, password string) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{
		client:  client,
		local:   NewHub(),
		log:     logger.Log.WithField("component", "redis_bus"),
		pubsubs: make(map[string]*redis.PubSub),
		counts:  make(map[string]int),
	}, nil
}

// Join registers a local subscriber and, for the group's first local
// member, opens the Redis subscription feeding the local hub.
func (b *RedisBus) Join(group string) (*Subscriber, error) {
	sub, err := b.local.Join(group)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts[group]++
	if b.counts[group] == 1 {
		ps := b.client.Subscribe(context.Background(), channelPrefix+group)
		b.pubsubs[group] = ps
		go b.pump(group, ps)
	}
	return sub, nil
}

// pump forwards Redis messages for one group into the local hub until
// the subscription is closed.
func (b *RedisBus) pump(group string, ps *redis.PubSub) {
	for msg := range ps.Channel() {
		if err := b.local.Send(context.Background(), group, []byte(msg.Payload)); err != nil {
			b.log.WithError(err).WithField("group", group).Warn("local delivery failed")
			return
		}
	}
}

// Leave removes the subscriber and closes the group's Redis
// subscription when the last local member is gone.
func (b *RedisBus) Leave(group string, sub *Subscriber) {
	b.local.Leave(group, sub)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.counts[group] == 0 {
		return
	}
	b.counts[group]--
	if b.counts[group] == 0 {
		delete(b.counts, group)
		if ps, ok := b.pubsubs[group]; ok {
			delete(b.pubsubs, group)
			_ = ps.Close()
		}
	}
}

// Send publishes the frame to the group's Redis channel. Subscribers in
// every process, local ones included, receive it via their pump.
func (b *RedisBus) Send(ctx context.Context, group string, frame []byte) error {
	return b.client.Publish(ctx, channelPrefix+group, frame).Err()
}

// Close shuts down all subscriptions and the Redis client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	for group, ps := range b.pubsubs {
		_ = ps.Close()
		delete(b.pubsubs, group)
		delete(b.counts, group)
	}
	b.mu.Unlock()
	_ = b.local.Close()
	return b.client.Close()
}
