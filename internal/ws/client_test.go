package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/events"
	"todo_webapp/internal/service/servicetest"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessions struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *sessions) CurrentSession(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Session{UserID: uid, ValidUntil: time.Now().Add(time.Hour)}, nil
}

func (s *sessions) revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

type fixture struct {
	hub      *Hub
	bus      *events.Bus
	sessions *sessions
	srv      *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tasks := servicetest.NewTasks()
	due := time.Now().Add(48 * time.Hour)
	tasks.Put(&domain.Task{ID: "t1", UserID: "u1", Name: "Buy milk", Status: domain.TaskStatusOpen,
		Priority: domain.TaskPriorityHigh, DueAt: due, CreatedAt: time.Now().Add(-time.Hour)})
	tasks.Put(&domain.Task{ID: "t2", UserID: "u1", Name: "File taxes", Status: domain.TaskStatusDone,
		Priority: domain.TaskPriorityLow, DueAt: due, CreatedAt: time.Now().Add(-2 * time.Hour)})
	tasks.Put(&domain.Task{ID: "t3", UserID: "u2", Name: "Not mine", Status: domain.TaskStatusOpen,
		Priority: domain.TaskPriorityLow, DueAt: due, CreatedAt: time.Now()})

	f := &fixture{
		bus:      events.NewBus(),
		sessions: &sessions{tokens: map[string]string{"good": "u1", "other": "u1"}},
	}
	f.hub = NewHub(Deps{
		Tasks:    tasks,
		Sessions: f.sessions,
		Bus:      f.bus,
		Debounce: 20 * time.Millisecond,
		Location: time.UTC,
	})

	r := gin.New()
	r.GET("/ws", HandleWS(f.hub, ""))
	f.srv = httptest.NewServer(r)
	t.Cleanup(func() {
		f.hub.CloseAll()
		f.srv.Close()
	})
	return f
}

func (f *fixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type message struct {
	Type          string            `json:"type"`
	All           []domain.Task     `json:"all"`
	Open          []domain.Task     `json:"open"`
	Done          []domain.Task     `json:"done"`
	ActiveFilters int               `json:"activeFilters"`
	Query         string            `json:"query"`
	Event         string            `json:"event"`
	Error         string            `json:"error"`
	Errors        map[string]string `json:"errors"`
	Criteria      struct {
		Status string `json:"status"`
	} `json:"criteria"`
}

// next reads messages until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", typ)
		var m message
		require.NoError(t, json.Unmarshal(raw, &m))
		if m.Type == typ {
			return m
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestLiveView_InitialViewAndFilter(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "good")

	next(t, conn, MsgReady)
	v := next(t, conn, MsgView)
	require.Len(t, v.All, 2)
	assert.Equal(t, "t1", v.All[0].ID, "newest first")
	assert.Len(t, v.Open, 1)
	assert.Len(t, v.Done, 1)
	assert.Equal(t, 0, v.ActiveFilters)

	send(t, conn, Inbound{Type: MsgFilter, Criteria: &CriteriaPayload{Status: "done"}})
	v = next(t, conn, MsgView)
	require.Len(t, v.All, 1)
	assert.Equal(t, "t2", v.All[0].ID)
	assert.Equal(t, "done", v.Criteria.Status)
	assert.Equal(t, 1, v.ActiveFilters)
}

func TestLiveView_SearchIsDebounced(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "good")
	next(t, conn, MsgView)

	send(t, conn, Inbound{Type: MsgSearch, Query: "m"})
	send(t, conn, Inbound{Type: MsgSearch, Query: "mi"})
	send(t, conn, Inbound{Type: MsgSearch, Query: "MILK"})

	v := next(t, conn, MsgView)
	assert.Equal(t, "MILK", v.Query, "only the last query is applied")
	require.Len(t, v.All, 1)
	assert.Equal(t, "t1", v.All[0].ID)

	send(t, conn, Inbound{Type: MsgSearch, Query: "nothing matches", Flush: true})
	v = next(t, conn, MsgView)
	assert.Empty(t, v.All)
}

func TestLiveView_BadInput(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "good")
	next(t, conn, MsgView)

	send(t, conn, Inbound{Type: MsgFilter, Criteria: &CriteriaPayload{Priority: "urgent"}})
	e := next(t, conn, MsgError)
	assert.Contains(t, e.Errors, "priority")

	send(t, conn, Inbound{Type: "dance"})
	e = next(t, conn, MsgError)
	assert.Equal(t, "unknown message type", e.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	e = next(t, conn, MsgError)
	assert.Equal(t, "invalid message", e.Error)

	send(t, conn, Inbound{Type: MsgPing})
	next(t, conn, MsgPong)
}

func TestLiveView_RejectsBadToken(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLiveView_SignOutClosesRevokedConnection(t *testing.T) {
	f := newFixture(t)
	revoked := f.dial(t, "good")
	kept := f.dial(t, "other")
	next(t, revoked, MsgView)
	next(t, kept, MsgView)
	require.Eventually(t, func() bool { return f.hub.Connected("u1") == 2 }, time.Second, 10*time.Millisecond)

	f.sessions.revoke("good")
	f.bus.Publish(events.Event{Kind: events.SignedOut, UserID: "u1"})

	m := next(t, revoked, MsgSession)
	assert.Equal(t, string(events.SignedOut), m.Event)
	revoked.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := revoked.ReadMessage(); err != nil {
			break
		}
	}

	// the other session still works
	m = next(t, kept, MsgSession)
	assert.Equal(t, string(events.SignedOut), m.Event)
	send(t, kept, Inbound{Type: MsgRefresh})
	next(t, kept, MsgView)

	assert.Eventually(t, func() bool { return f.hub.Connected("u1") == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_CloseAll(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "good")
	next(t, conn, MsgView)

	f.hub.CloseAll()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return f.hub.Len() == 0 }, time.Second, 10*time.Millisecond)
}
