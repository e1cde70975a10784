package taskview

import (
	"strings"
	"time"

	"todo_webapp/internal/domain"
)

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// civilDay numbers calendar days so that differences are whole days even
// across DST changes.
func civilDay(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Filter keeps the tasks matching every active criterion, preserving order.
// Day buckets are evaluated in now's location.
func Filter(tasks []*domain.Task, c Criteria, now time.Time) []*domain.Task {
	c = c.Normalize()
	loc := now.Location()
	today := civilDay(now, loc)
	startOfToday := StartOfDay(now, loc)

	var fromDay, toDay int64
	if c.From != nil {
		fromDay = civilDay(*c.From, loc)
	}
	if c.To != nil {
		toDay = civilDay(*c.To, loc)
	}

	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Priority != Any && string(t.Priority) != c.Priority {
			continue
		}
		if c.Status != Any && string(t.Status) != c.Status {
			continue
		}
		if c.Project != Any && (t.ProjectID == nil || *t.ProjectID != c.Project) {
			continue
		}

		offset := civilDay(t.DueAt, loc) - today
		switch c.Due {
		case DueToday:
			if offset != 0 {
				continue
			}
		case DueThisWeek:
			if offset < 0 || offset > 6 {
				continue
			}
		case DueNextWeek:
			if offset < 7 || offset > 13 {
				continue
			}
		case DueOverdue:
			if t.Status != domain.TaskStatusOpen || !t.DueAt.Before(startOfToday) {
				continue
			}
		case DueCustom:
			day := offset + today
			if c.From != nil && day < fromDay {
				continue
			}
			if c.To != nil && day > toDay {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Search keeps tasks whose name or description contains query, ignoring
// case. A blank query keeps everything.
func Search(tasks []*domain.Task, query string) []*domain.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// Compose intersects the two passes by task ID, in the order of filtered.
func Compose(filtered, searched []*domain.Task) []*domain.Task {
	ids := make(map[string]struct{}, len(searched))
	for _, t := range searched {
		ids[t.ID] = struct{}{}
	}
	out := make([]*domain.Task, 0, len(filtered))
	for _, t := range filtered {
		if _, ok := ids[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ByStatus returns the subset with the given status, regardless of the
// status criterion used to build tasks.
func ByStatus(tasks []*domain.Task, status domain.TaskStatus) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

type Result struct {
	All           []*domain.Task `json:"all"`
	Open          []*domain.Task `json:"open"`
	Done          []*domain.Task `json:"done"`
	ActiveFilters int            `json:"activeFilters"`
}

// View runs both passes over tasks and splits the composed list by status.
func View(tasks []*domain.Task, c Criteria, query string, now time.Time) Result {
	all := Compose(Filter(tasks, c, now), Search(tasks, query))
	return Result{
		All:           all,
		Open:          ByStatus(all, domain.TaskStatusOpen),
		Done:          ByStatus(all, domain.TaskStatusDone),
		ActiveFilters: c.ActiveCount(),
	}
}
