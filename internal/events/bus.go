// Package events is the per-user session change feed.
package events

import (
	"sync"
	"time"

	"todo_webapp/internal/logger"
)

type Kind string

const (
	SignedIn  Kind = "SIGNED_IN"
	SignedOut Kind = "SIGNED_OUT"
)

type Event struct {
	Kind   Kind      `json:"event"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

const subscriptionBuffer = 16

// Bus fans session events out to every subscription of the affected user.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*Subscription]struct{})}
}

type Subscription struct {
	C <-chan Event

	c      chan Event
	userID string
	bus    *Bus
	once   sync.Once
}

func (b *Bus) Subscribe(userID string) *Subscription {
	c := make(chan Event, subscriptionBuffer)
	s := &Subscription{C: c, c: c, userID: userID, bus: b}

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*Subscription]struct{})
	}
	b.subs[userID][s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.bus
		b.mu.Lock()
		if set, ok := b.subs[s.userID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(b.subs, s.userID)
			}
		}
		close(s.c)
		b.mu.Unlock()
	})
}

// Publish delivers e without blocking; slow subscribers lose events.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[e.UserID] {
		select {
		case s.c <- e:
		default:
			logger.Warn("session event dropped", "user_id", e.UserID, "event", e.Kind)
		}
	}
}

// Subscribers returns how many subscriptions userID currently has.
func (b *Bus) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
