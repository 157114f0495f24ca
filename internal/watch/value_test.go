package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func TestValue_GetBeforeSet(t *testing.T) {
	v := NewValue[int]()
	_, ok := v.Get()
	require.False(t, ok)
}

func TestValue_SubscribeReplaysLatest(t *testing.T) {
	v := NewValue[int]()
	v.Set(1)
	v.Set(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	require.Equal(t, 2, recv(t, ch))
}

func TestValue_UpdatesReachSubscriber(t *testing.T) {
	v := NewValue[string]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	v.Set("a")
	require.Equal(t, "a", recv(t, ch))

	v.Set("b")
	require.Equal(t, "b", recv(t, ch))
}

func TestValue_SlowSubscriberSeesLatestOnly(t *testing.T) {
	v := NewValue[int]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	// buffer of one: the pending 1 is replaced by 2, then by 3
	v.Set(1)
	v.Set(2)
	v.Set(3)
	require.Equal(t, 3, recv(t, ch))
}

func TestValue_CancelClosesChannel(t *testing.T) {
	v := NewValue[int]()

	ctx, cancel := context.WithCancel(context.Background())
	ch := v.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}

	// publishing after unsubscribe must not panic
	v.Set(42)
}
