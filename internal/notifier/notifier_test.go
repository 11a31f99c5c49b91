package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed")
		return u
	case <-time.After(time.Second):
		t.Fatal("no update received")
		return Update{}
	}
}

func TestNotifier_SubscribeUnsubscribe(t *testing.T) {
	n := New()

	ch, cancel := n.Subscribe()
	require.NotNil(t, ch)
	assert.Equal(t, 1, n.Len())

	cancel()
	assert.Equal(t, 0, n.Len())

	_, ok := <-ch
	assert.False(t, ok, "channel is closed on unsubscribe")

	// cancelling twice is safe
	cancel()
}

func TestNotifier_Broadcast(t *testing.T) {
	n := New()

	ch1, cancel1 := n.Subscribe()
	ch2, cancel2 := n.Subscribe()
	defer cancel1()
	defer cancel2()

	n.Broadcast(Update{RunID: "r1", Kind: "progress", Processed: 1, Total: 3})

	assert.Equal(t, "r1", receive(t, ch1).RunID)
	assert.Equal(t, int64(1), receive(t, ch2).Processed)
}

func TestNotifier_LatestUpdateWins(t *testing.T) {
	n := New()
	ch, cancel := n.Subscribe()
	defer cancel()

	// Nobody reads while these are sent; Broadcast must not block.
	for i := int64(1); i <= 5; i++ {
		n.Broadcast(Update{Kind: "progress", Processed: i, Total: 5})
	}

	assert.Equal(t, int64(5), receive(t, ch).Processed)

	select {
	case u := <-ch:
		t.Fatalf("unexpected extra update %+v", u)
	default:
	}
}

func TestNotifier_Close(t *testing.T) {
	n := New()
	ch, cancel := n.Subscribe()

	n.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, n.Len())

	// cancel after Close must not double-close
	cancel()

	late, _ := n.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscriptions after Close are already closed")
}

func TestNotifier_ConcurrentAccess(t *testing.T) {
	n := New()
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := n.Subscribe()
			n.Broadcast(Update{Kind: "finished"})
			select {
			case <-ch:
			case <-time.After(100 * time.Millisecond):
			}
			cancel()
		}()
	}
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Broadcast(Update{Kind: "progress"})
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, n.Len())
}
