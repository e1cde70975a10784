package checklist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todo_webapp/internal/logger"
)

// Engine reads and writes checklist state through a Store. Storage failures
// are logged and never returned: every operation yields a usable state.
type Engine struct {
	catalog *Catalog
	store   Store
	key     string
	now     func() time.Time

	// mu serialises read-modify-write cycles within this process. Writers in
	// other processes sharing the store still race; the last write wins.
	mu sync.Mutex
}

func NewEngine(catalog *Catalog, store Store) *Engine {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Engine{catalog: catalog, store: store, key: StorageKey, now: time.Now}
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

// Initialize returns a fresh all-incomplete state without persisting it.
func (e *Engine) Initialize() State {
	return Initialize(e.catalog, e.now())
}

// Load returns the persisted state with missing catalog items backfilled, or
// a fresh state when nothing usable is stored.
func (e *Engine) Load(ctx context.Context) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) State {
	blob, err := e.store.Get(ctx, e.key)
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			logger.FromContext(ctx).Error("checklist load failed", "error", err)
		}
		return e.Initialize()
	}
	s, err := decodeState(blob)
	if err != nil {
		logger.FromContext(ctx).Error("checklist state unreadable, starting fresh", "error", err)
		return e.Initialize()
	}
	s.backfill(e.catalog)
	return s
}

func (e *Engine) saveLocked(ctx context.Context, s State) {
	blob, err := encodeState(s)
	if err == nil {
		err = e.store.Set(ctx, e.key, blob)
	}
	if err != nil {
		logger.FromContext(ctx).Error("checklist save failed", "error", err)
	}
	observeState(e.catalog, s)
}

// Update sets one item's completion as requested by a user.
func (e *Engine) Update(ctx context.Context, id string, completed bool) (State, error) {
	return e.transition(ctx, id, completed, SourceUser)
}

func (e *Engine) transition(ctx context.Context, id string, completed bool, src Source) (State, error) {
	if _, ok := e.catalog.Item(id); !ok {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.loadLocked(ctx)
	s.Items[id] = Transition(s.Items[id], completed, src)
	s.LastUpdated = e.now().UTC()
	e.saveLocked(ctx, s)
	return s.Clone(), nil
}

// Reset discards all progress.
func (e *Engine) Reset(ctx context.Context) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.Initialize()
	e.saveLocked(ctx, s)
	logger.FromContext(ctx).Info("checklist reset")
	return s.Clone()
}

// Stats loads the current state and computes its statistics.
func (e *Engine) Stats(ctx context.Context) (State, Stats) {
	s := e.Load(ctx)
	return s, ComputeStats(e.catalog, s)
}

type CheckResult struct {
	ItemID string `json:"itemId"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// RunAutomatedCheck runs one item's check and completes the item when it
// passes. A failing check leaves the state untouched. The error is non-nil
// only for unknown or non-automated items.
func (e *Engine) RunAutomatedCheck(ctx context.Context, id string) (CheckResult, State, error) {
	item, ok := e.catalog.Item(id)
	if !ok {
		return CheckResult{}, State{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if !item.HasCheck() {
		return CheckResult{}, State{}, fmt.Errorf("%w: %s", ErrNotAutomated, id)
	}

	res := runCheck(ctx, item)
	if !res.Passed {
		return res, e.Load(ctx), nil
	}
	s, err := e.transition(ctx, id, true, SourceCheck)
	return res, s, err
}

// RunAllChecks runs every automated check in catalog order, continuing past
// failures.
func (e *Engine) RunAllChecks(ctx context.Context) ([]CheckResult, State) {
	items := e.catalog.Automated()
	results := make([]CheckResult, 0, len(items))
	for _, it := range items {
		res, _, err := e.RunAutomatedCheck(ctx, it.ID)
		if err != nil {
			res = CheckResult{ItemID: it.ID, Error: err.Error()}
		}
		results = append(results, res)
	}
	return results, e.Load(ctx)
}

func runCheck(ctx context.Context, item Item) (res CheckResult) {
	res.ItemID = item.ID
	defer func() {
		if r := recover(); r != nil {
			res.Passed = false
			res.Error = fmt.Sprintf("check panicked: %v", r)
		}
		recordCheck(item.ID, res)
		if !res.Passed {
			logger.FromContext(ctx).Warn("checklist check failed", "item", item.ID, "error", res.Error)
		}
	}()

	ok, err := item.check(ctx)
	switch {
	case err != nil:
		res.Error = err.Error()
	case !ok:
		res.Error = "check did not pass"
	default:
		res.Passed = true
	}
	return res
}
