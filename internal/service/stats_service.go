package service

import (
	"context"
	"math"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/taskview"
)

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Statistics backs the statistics page.
type Statistics struct {
	DueNext7Days []DayCount `json:"dueNext7Days"`
	OpenPerDay   []DayCount `json:"openPerDay"`
}

// DashboardCards are the headline counts over all of a user's tasks. Filters
// and search never change them.
type DashboardCards struct {
	Total          int `json:"total"`
	Open           int `json:"open"`
	Done           int `json:"done"`
	CompletionRate int `json:"completionRate"`
}

type StatsService struct {
	tasks TaskStore
	loc   *time.Location
	now   func() time.Time
}

func NewStatsService(tasks TaskStore, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{tasks: tasks, loc: loc, now: time.Now}
}

func (s *StatsService) Statistics(ctx context.Context, userID string) (*Statistics, error) {
	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	return &Statistics{
		DueNext7Days: DueNextDays(tasks, now, 7),
		OpenPerDay:   OpenPerDay(tasks, now, 30),
	}, nil
}

// DueNextDays counts open tasks due on each of the next n days, today first.
func DueNextDays(tasks []*domain.Task, now time.Time, n int) []DayCount {
	today := taskview.StartOfDay(now, now.Location())
	out := make([]DayCount, n)
	for i := 0; i < n; i++ {
		start := today.AddDate(0, 0, i)
		end := today.AddDate(0, 0, i+1)
		c := 0
		for _, t := range tasks {
			if t.Status == domain.TaskStatusOpen && !t.DueAt.Before(start) && t.DueAt.Before(end) {
				c++
			}
		}
		out[i] = DayCount{Date: start.Format("2006-01-02"), Count: c}
	}
	return out
}

// OpenPerDay counts, for each of the last n days ending today, the tasks
// that are currently open and existed at the start of that day.
func OpenPerDay(tasks []*domain.Task, now time.Time, n int) []DayCount {
	today := taskview.StartOfDay(now, now.Location())
	out := make([]DayCount, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		c := 0
		for _, t := range tasks {
			if t.Status == domain.TaskStatusOpen && !t.CreatedAt.After(day) {
				c++
			}
		}
		out = append(out, DayCount{Date: day.Format("2006-01-02"), Count: c})
	}
	return out
}

// Cards counts tasks by status. CompletionRate is the rounded share of done
// tasks in percent, 0 when there are none.
func Cards(tasks []*domain.Task) DashboardCards {
	c := DashboardCards{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case domain.TaskStatusOpen:
			c.Open++
		case domain.TaskStatusDone:
			c.Done++
		}
	}
	if c.Total > 0 {
		c.CompletionRate = int(math.Round(float64(c.Done) * 100 / float64(c.Total)))
	}
	return c
}
