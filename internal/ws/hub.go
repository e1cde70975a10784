package ws

import (
	"context"
	"sync"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/events"
)

// TaskLister is the read side the live view refetches from.
type TaskLister interface {
	List(ctx context.Context, userID string) ([]*domain.Task, error)
}

// SessionChecker re-validates a connection's token after a sign-out event.
type SessionChecker interface {
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
}

// Deps are shared by every connection of a hub.
type Deps struct {
	Tasks    TaskLister
	Sessions SessionChecker
	Bus      *events.Bus
	Debounce time.Duration
	Location *time.Location
}

// Hub tracks live connections per user.
type Hub struct {
	deps Deps

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub(deps Deps) *Hub {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}
	return &Hub{
		deps:    deps,
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	Connections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	Connections.Dec()
}

// Connected returns the number of open connections for a user.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// CloseAll disconnects every client. Hijacked connections are not closed by
// http.Server.Shutdown, so the server calls this on the way out.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.Close()
	}
}
