package taskview

import (
	"sync"
	"time"

	"todo_webapp/internal/domain"
)

// Live holds one viewer's state: the last applied task list, the current
// criteria and the applied search query. Every change recomputes the view
// and hands it to the onChange callback.
//
// Fetches are numbered by BeginFetch. A result older than the newest one
// already applied is discarded, so a slow response cannot overwrite a
// fresher list.
type Live struct {
	mu       sync.Mutex
	tasks    []*domain.Task
	criteria Criteria
	query    string
	issued   uint64
	applied  uint64

	emitMu   sync.Mutex
	debounce *Debouncer
	now      func() time.Time
	onChange func(Result)
}

// NewLive creates a view. now may be nil; onChange may be nil.
func NewLive(debounce time.Duration, now func() time.Time, onChange func(Result)) *Live {
	if now == nil {
		now = time.Now
	}
	return &Live{
		criteria: DefaultCriteria(),
		debounce: NewDebouncer(debounce),
		now:      now,
		onChange: onChange,
	}
}

// BeginFetch reserves the sequence number for a new fetch.
func (l *Live) BeginFetch() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return l.issued
}

// ApplyFetch installs the result of fetch seq. It reports false when a newer
// fetch has already been applied.
func (l *Live) ApplyFetch(seq uint64, tasks []*domain.Task) bool {
	l.mu.Lock()
	if seq <= l.applied {
		l.mu.Unlock()
		return false
	}
	l.applied = seq
	l.tasks = tasks
	l.mu.Unlock()

	l.emit()
	return true
}

// SetCriteria applies new filter criteria immediately.
func (l *Live) SetCriteria(c Criteria) {
	l.mu.Lock()
	l.criteria = c.Normalize()
	l.mu.Unlock()

	l.emit()
}

// SetQuery applies the search query once input has been quiet for the
// debounce delay.
func (l *Live) SetQuery(q string) {
	l.debounce.Trigger(func() {
		l.mu.Lock()
		l.query = q
		l.mu.Unlock()
		l.emit()
	})
}

// FlushQuery applies a pending search query without waiting.
func (l *Live) FlushQuery() bool {
	return l.debounce.Flush()
}

func (l *Live) Criteria() Criteria {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.criteria
}

func (l *Live) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Current computes the view from the present state.
func (l *Live) Current() Result {
	l.mu.Lock()
	tasks, c, q := l.tasks, l.criteria, l.query
	l.mu.Unlock()
	return View(tasks, c, q, l.now())
}

// Close drops any pending search update.
func (l *Live) Close() {
	l.debounce.Stop()
}

func (l *Live) emit() {
	if l.onChange == nil {
		return
	}
	l.emitMu.Lock()
	defer l.emitMu.Unlock()
	l.onChange(l.Current())
}
