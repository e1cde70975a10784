// Package taskview composes the visible task list from the full task set,
// the active filter criteria and a free-text search query.
package taskview

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"todo_webapp/internal/domain"
)

// Any disables a criterion.
const Any = "all"

type DueBucket string

const (
	DueAny      DueBucket = Any
	DueToday    DueBucket = "today"
	DueThisWeek DueBucket = "thisWeek"
	DueNextWeek DueBucket = "nextWeek"
	DueOverdue  DueBucket = "overdue"
	DueCustom   DueBucket = "custom"
)

const dateLayout = "2006-01-02"

type Criteria struct {
	Priority string     `json:"priority"`
	Status   string     `json:"status"`
	Project  string     `json:"project"`
	Due      DueBucket  `json:"due"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}

// DefaultCriteria has every criterion set to Any.
func DefaultCriteria() Criteria {
	return Criteria{Priority: Any, Status: Any, Project: Any, Due: DueAny}
}

// Normalize maps empty fields to Any.
func (c Criteria) Normalize() Criteria {
	if c.Priority == "" {
		c.Priority = Any
	}
	if c.Status == "" {
		c.Status = Any
	}
	if c.Project == "" {
		c.Project = Any
	}
	if c.Due == "" {
		c.Due = DueAny
	}
	return c
}

// ActiveCount is the number of criteria that narrow the list. A custom due
// range without bounds does not count.
func (c Criteria) ActiveCount() int {
	c = c.Normalize()
	n := 0
	if c.Priority != Any {
		n++
	}
	if c.Status != Any {
		n++
	}
	if c.Project != Any {
		n++
	}
	if c.dueActive() {
		n++
	}
	return n
}

func (c Criteria) dueActive() bool {
	switch c.Due {
	case DueAny:
		return false
	case DueCustom:
		return c.From != nil || c.To != nil
	}
	return true
}

// Validate reports unknown enum values keyed by query parameter name.
func (c Criteria) Validate() error {
	c = c.Normalize()
	verr := &domain.ValidationError{}
	if c.Priority != Any {
		if _, err := domain.ParseTaskPriority(c.Priority); err != nil {
			verr.Add("priority", "must be one of all, low, med, high")
		}
	}
	if c.Status != Any {
		if _, err := domain.ParseTaskStatus(c.Status); err != nil {
			verr.Add("status", "must be one of all, open, done")
		}
	}
	switch c.Due {
	case DueAny, DueToday, DueThisWeek, DueNextWeek, DueOverdue, DueCustom:
	default:
		verr.Add("due", "must be one of all, today, thisWeek, nextWeek, overdue, custom")
	}
	return verr.OrNil()
}

// ParseCriteria reads priority, status, project, due, from and to.
// Dates are YYYY-MM-DD in loc, or RFC 3339. Supplying from or to without a
// due bucket selects the custom range.
func ParseCriteria(q url.Values, loc *time.Location) (Criteria, error) {
	if loc == nil {
		loc = time.Local
	}
	c := Criteria{
		Priority: strings.TrimSpace(q.Get("priority")),
		Status:   strings.TrimSpace(q.Get("status")),
		Project:  strings.TrimSpace(q.Get("project")),
		Due:      DueBucket(strings.TrimSpace(q.Get("due"))),
	}.Normalize()

	verr := &domain.ValidationError{}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			verr.Add("from", "must be a date (YYYY-MM-DD)")
		} else {
			c.From = &t
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			verr.Add("to", "must be a date (YYYY-MM-DD)")
		} else {
			c.To = &t
		}
	}
	if c.Due == DueAny && (c.From != nil || c.To != nil) {
		c.Due = DueCustom
	}
	var cerr *domain.ValidationError
	if errors.As(c.Validate(), &cerr) {
		for k, v := range cerr.Fields {
			verr.Add(k, v)
		}
	}
	if err := verr.OrNil(); err != nil {
		return DefaultCriteria(), err
	}
	return c, nil
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
