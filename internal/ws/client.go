package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/events"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/taskview"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 64
	fetchTimeout   = 10 * time.Second
)

// Client is one live-view connection. It owns the viewer state (task list,
// criteria, query) and pushes a fresh view after every change.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	hub     *Hub
	token   string
	expires time.Time
	live    *taskview.Live

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, sess *domain.Session, token string) *Client {
	c := &Client{
		UserID:  sess.UserID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		hub:     hub,
		token:   token,
		expires: sess.ValidUntil,
	}
	loc := hub.deps.Location
	c.live = taskview.NewLive(hub.deps.Debounce, func() time.Time { return time.Now().In(loc) }, c.pushView)
	return c
}

// Run serves the connection until the peer goes away, the session ends or
// ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	log := logger.FromContext(ctx).With("user_id", c.UserID)
	c.ctx = logger.NewContext(c.ctx, log)

	c.hub.register(c)
	sub := c.hub.deps.Bus.Subscribe(c.UserID)
	defer func() {
		c.Close()
		sub.Close()
		c.live.Close()
		c.wg.Wait()
		c.hub.unregister(c)
		log.Debug("live view closed")
	}()

	c.wg.Add(2)
	go c.writePump()
	go c.watchSession(sub)

	c.enqueue(Outbound{Type: MsgReady})
	c.refresh()

	c.readPump()
}

// Close ends the connection. Queued messages are flushed first.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
	})
}

func (c *Client) readPump() {
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.FromContext(c.ctx).Debug("ws read error", "error", err)
			}
			return
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.FromContext(c.ctx).Debug("ws write error", "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.flush()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued without blocking for more.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// watchSession forwards session events and ends the connection once its
// token stops being valid.
func (c *Client) watchSession(sub *events.Subscription) {
	defer c.wg.Done()

	expiry := time.NewTimer(time.Until(c.expires))
	defer expiry.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-expiry.C:
			c.enqueue(ErrorMessage{Type: MsgError, Error: "session expired"})
			c.Close()
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			c.enqueue(SessionMessage{Type: MsgSession, Event: e})
			if e.Kind == events.SignedOut && !c.sessionValid() {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) sessionValid() bool {
	if c.hub.deps.Sessions == nil {
		return false
	}
	_, err := c.hub.deps.Sessions.CurrentSession(c.ctx, c.token)
	return err == nil
}

func (c *Client) handleMessage(raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.enqueue(ErrorMessage{Type: MsgError, Error: "invalid message"})
		return
	}
	MessagesIn.WithLabelValues(in.Type).Inc()

	switch in.Type {
	case MsgFilter:
		var p CriteriaPayload
		if in.Criteria != nil {
			p = *in.Criteria
		}
		crit, err := p.parse(c.hub.deps.Location)
		if err != nil {
			c.sendError(err)
			return
		}
		c.live.SetCriteria(crit)
	case MsgSearch:
		c.live.SetQuery(in.Query)
		if in.Flush {
			c.live.FlushQuery()
		}
	case MsgRefresh:
		c.refresh()
	case MsgPing:
		c.enqueue(Outbound{Type: MsgPong})
	default:
		c.enqueue(ErrorMessage{Type: MsgError, Error: "unknown message type"})
	}
}

// refresh fetches the task list in the background. Results that arrive
// after a newer fetch has been applied are dropped by the view.
func (c *Client) refresh() {
	seq := c.live.BeginFetch()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, fetchTimeout)
		defer cancel()

		tasks, err := c.hub.deps.Tasks.List(ctx, c.UserID)
		if err != nil {
			if c.ctx.Err() == nil {
				logger.FromContext(c.ctx).Error("live view fetch failed", "error", err)
				c.enqueue(ErrorMessage{Type: MsgError, Error: "failed to load tasks"})
			}
			return
		}
		c.live.ApplyFetch(seq, tasks)
	}()
}

func (c *Client) pushView(r taskview.Result) {
	c.enqueue(ViewMessage{
		Type:     MsgView,
		Result:   r,
		Criteria: c.live.Criteria(),
		Query:    c.live.Query(),
	})
}

func (c *Client) sendError(err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.enqueue(ErrorMessage{Type: MsgError, Error: "validation failed", Fields: verr.Fields})
		return
	}
	c.enqueue(ErrorMessage{Type: MsgError, Error: err.Error()})
}

// enqueue never blocks; a client that cannot keep up loses messages.
func (c *Client) enqueue(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(c.ctx).Error("ws marshal failed", "error", err)
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	select {
	case c.Send <- msg:
	default:
		logger.FromContext(c.ctx).Warn("ws send buffer full, dropping message")
	}
}
