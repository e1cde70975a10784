package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBus_DeliversOnlyToUser(t *testing.T) {
	b := NewBus()
	alice := b.Subscribe("alice")
	bob := b.Subscribe("bob")
	defer alice.Close()
	defer bob.Close()

	b.Publish(Event{Kind: SignedOut, UserID: "alice"})

	select {
	case e := <-alice.C:
		assert.Equal(t, SignedOut, e.Kind)
		assert.False(t, e.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("alice did not receive event")
	}

	select {
	case e := <-bob.C:
		t.Fatalf("bob received %v", e)
	default:
	}
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	b := NewBus()
	s := b.Subscribe("alice")
	require.Equal(t, 1, b.Subscribers("alice"))

	s.Close()
	s.Close()
	assert.Equal(t, 0, b.Subscribers("alice"))

	_, open := <-s.C
	assert.False(t, open)

	// publishing after close must not panic
	b.Publish(Event{Kind: SignedIn, UserID: "alice"})
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus()
	s := b.Subscribe("alice")
	defer s.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			b.Publish(Event{Kind: SignedIn, UserID: "alice"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, s.C, subscriptionBuffer)
}
