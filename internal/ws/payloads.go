package ws

import (
	"net/url"
	"time"

	"todo_webapp/internal/events"
	"todo_webapp/internal/taskview"
)

// client → server
type Inbound struct {
	Type     string           `json:"type"`
	Criteria *CriteriaPayload `json:"criteria,omitempty"`
	Query    string           `json:"q,omitempty"`
	// Flush applies a search immediately instead of after the debounce delay.
	Flush bool `json:"flush,omitempty"`
}

// CriteriaPayload mirrors the query parameters of GET /tasks.
type CriteriaPayload struct {
	Priority string `json:"priority,omitempty"`
	Status   string `json:"status,omitempty"`
	Project  string `json:"project,omitempty"`
	Due      string `json:"due,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

func (p CriteriaPayload) parse(loc *time.Location) (taskview.Criteria, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"priority": p.Priority,
		"status":   p.Status,
		"project":  p.Project,
		"due":      p.Due,
		"from":     p.From,
		"to":       p.To,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return taskview.ParseCriteria(q, loc)
}

// server → client
type Outbound struct {
	Type string `json:"type"`
}

type ViewMessage struct {
	Type string `json:"type"`
	taskview.Result
	Criteria taskview.Criteria `json:"criteria"`
	Query    string            `json:"query"`
}

type SessionMessage struct {
	Type string `json:"type"`
	events.Event
}

type ErrorMessage struct {
	Type   string            `json:"type"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"errors,omitempty"`
}
