package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisBus(t *testing.T) *RedisBus {
	t.Helper()
	mr := miniredis.RunT(t)
	bus, err := NewRedisBus(mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })
	return bus
}

func TestRedisBusDeliversThroughRedis(t *testing.T) {
	bus := newTestRedisBus(t)

	sub, err := bus.Join(UserGroup(7))
	require.NoError(t, err)

	// The subscription is asynchronous; retry until the pump is wired.
	deadline := time.After(2 * time.Second)
	for {
		require.NoError(t, bus.Send(context.Background(), UserGroup(7), []byte("ping")))
		select {
		case frame := <-sub.Frames():
			assert.Equal(t, []byte("ping"), frame)
			return
		case <-deadline:
			t.Fatal("timed out waiting for frame via redis")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestRedisBusSendWithoutSubscribers(t *testing.T) {
	bus := newTestRedisBus(t)

	assert.NoError(t, bus.Send(context.Background(), UserGroup(42), []byte("nobody")))
}

func TestRedisBusLeaveClosesSubscription(t *testing.T) {
	bus := newTestRedisBus(t)

	first, err := bus.Join(UserGroup(3))
	require.NoError(t, err)
	second, err := bus.Join(UserGroup(3))
	require.NoError(t, err)

	bus.Leave(UserGroup(3), first)
	bus.mu.Lock()
	assert.Equal(t, 1, bus.counts[UserGroup(3)])
	assert.Contains(t, bus.pubsubs, UserGroup(3))
	bus.mu.Unlock()

	bus.Leave(UserGroup(3), second)
	bus.mu.Lock()
	assert.NotContains(t, bus.counts, UserGroup(3))
	assert.NotContains(t, bus.pubsubs, UserGroup(3))
	bus.mu.Unlock()
}

func TestRedisBusUnreachableServer(t *testing.T) {
	_, err := NewRedisBus("127.0.0.1:1", "")
	assert.Error(t, err)
}
