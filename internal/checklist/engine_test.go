package checklist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

var validEnv = envFrom(map[string]string{
	"DATABASE_URL": "postgres://localhost/todo",
	"JWT_SECRET":   "s3cret",
})

func newTestEngine(t *testing.T, store Store, checks map[string]CheckFunc) *Engine {
	t.Helper()
	c, err := NewCatalog(checks)
	require.NoError(t, err)
	return NewEngine(c, store)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingStore) Set(context.Context, string, []byte) error   { return errors.New("disk on fire") }

func TestComputeStats_InitialState(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := ComputeStats(e.Catalog(), e.Initialize())

	assert.Equal(t, 40, st.TotalItems)
	assert.Equal(t, 0, st.CompletedItems)
	assert.Equal(t, 0, st.CompletionPercentage)
	assert.Greater(t, st.CriticalItems, 0)
	assert.False(t, st.IsReadyForDeployment)
}

func TestComputeStats_AllCriticalComplete(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	s := e.Initialize()
	for _, it := range e.Catalog().Critical() {
		s.Items[it.ID] = true
	}
	st := ComputeStats(e.Catalog(), s)

	assert.True(t, st.IsReadyForDeployment)
	assert.Equal(t, 100, st.CriticalCompletionPercentage)
	assert.Less(t, st.CompletionPercentage, 100)
	assert.Equal(t, st.CriticalItems, st.CompletedItems)
}

func TestComputeStats_RoundingAndEmptyCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(`
categories:
  - {id: a, name: A}
items:
  - {id: x, category: a, critical: true}
  - {id: y, category: a}
  - {id: z, category: a}
`), nil)
	require.NoError(t, err)

	st := ComputeStats(c, State{Items: map[string]bool{"x": true, "stale": true}})
	assert.Equal(t, 1, st.CompletedItems)
	assert.Equal(t, 33, st.CompletionPercentage)
	st = ComputeStats(c, State{Items: map[string]bool{"x": true, "y": true}})
	assert.Equal(t, 67, st.CompletionPercentage)

	empty, err := ParseCatalog([]byte("categories: []\nitems: []\n"), nil)
	require.NoError(t, err)
	st = ComputeStats(empty, State{})
	assert.Equal(t, 0, st.CompletionPercentage)
	assert.Equal(t, 0, st.CriticalCompletionPercentage)
	assert.True(t, st.IsReadyForDeployment)
}

func TestEngine_ResetThenLoadIsInitialized(t *testing.T) {
	e := newTestEngine(t, NewMemoryStore(), nil)
	ctx := context.Background()

	_, err := e.Update(ctx, "db-backup", true)
	require.NoError(t, err)

	e.Reset(ctx)
	s := e.Load(ctx)
	require.Len(t, s.Items, e.Catalog().Len())
	for _, it := range e.Catalog().Items() {
		done, ok := s.Items[it.ID]
		assert.True(t, ok, it.ID)
		assert.False(t, done, it.ID)
	}
}

func TestEngine_LoadBackfillsAndKeepsProgress(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, StorageKey, []byte(`{"items":{"db-backup":true},"lastUpdated":"2025-01-02T03:04:05Z"}`)))

	e := newTestEngine(t, store, nil)
	s := e.Load(ctx)
	assert.Len(t, s.Items, e.Catalog().Len())
	assert.True(t, s.Items["db-backup"])
	assert.False(t, s.Items["docs-readme"])
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), s.LastUpdated)
}

func TestEngine_CorruptOrFailingStorageFallsBack(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, StorageKey, []byte("not json")))
	s := newTestEngine(t, store, nil).Load(ctx)
	assert.Len(t, s.Items, 40)

	e := newTestEngine(t, failingStore{}, nil)
	s = e.Load(ctx)
	assert.Len(t, s.Items, 40)

	s, err := e.Update(ctx, "db-backup", true)
	require.NoError(t, err)
	assert.True(t, s.Items["db-backup"])
	assert.Len(t, e.Reset(ctx).Items, 40)
}

func TestEngine_UpdateUnknownItem(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	_, err := e.Update(context.Background(), "nope", true)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to bool
		src      Source
		want     bool
	}{
		{false, true, SourceUser, true},
		{true, false, SourceUser, false},
		{false, true, SourceCheck, true},
		{true, false, SourceCheck, true},
		{false, false, SourceCheck, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Transition(tt.from, tt.to, tt.src), "%v->%v src=%d", tt.from, tt.to, tt.src)
	}
}

func TestEngine_EnvCheckCompletesAndSurvivesReload(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	checks := map[string]CheckFunc{ItemEnvRequiredVars: EnvCheck(validEnv)}

	e := newTestEngine(t, store, checks)
	require.False(t, e.Load(ctx).Items[ItemEnvRequiredVars])

	before := testutil.ToFloat64(ChecksTotal.WithLabelValues(ItemEnvRequiredVars, "pass"))
	res, s, err := e.RunAutomatedCheck(ctx, ItemEnvRequiredVars)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.True(t, s.Items[ItemEnvRequiredVars])
	assert.Equal(t, before+1, testutil.ToFloat64(ChecksTotal.WithLabelValues(ItemEnvRequiredVars, "pass")))

	reloaded := newTestEngine(t, store, checks)
	assert.True(t, reloaded.Load(ctx).Items[ItemEnvRequiredVars])
}

func TestEngine_FailingCheckLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	bad := EnvCheck(envFrom(map[string]string{"JWT_SECRET": " "}))
	e := newTestEngine(t, NewMemoryStore(), map[string]CheckFunc{ItemEnvRequiredVars: bad})

	// a completed item stays complete when its check later fails
	_, err := e.Update(ctx, ItemEnvRequiredVars, true)
	require.NoError(t, err)

	res, s, err := e.RunAutomatedCheck(ctx, ItemEnvRequiredVars)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Error, "DATABASE_URL")
	assert.True(t, s.Items[ItemEnvRequiredVars])

	_, _, err = e.RunAutomatedCheck(ctx, "docs-readme")
	assert.ErrorIs(t, err, ErrNotAutomated)
	_, _, err = e.RunAutomatedCheck(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestEngine_RunAllChecksContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	var order []string
	checks := map[string]CheckFunc{
		ItemEnvRequiredVars: func(context.Context) (bool, error) {
			order = append(order, ItemEnvRequiredVars)
			panic("boom")
		},
		ItemDBMigrations: func(context.Context) (bool, error) {
			order = append(order, ItemDBMigrations)
			return false, errors.New("pending")
		},
		ItemDBConnectionPool: func(context.Context) (bool, error) {
			order = append(order, ItemDBConnectionPool)
			return true, nil
		},
	}
	e := newTestEngine(t, NewMemoryStore(), checks)

	results, s := e.RunAllChecks(ctx)
	require.Len(t, results, 3)
	assert.Equal(t, []string{ItemEnvRequiredVars, ItemDBMigrations, ItemDBConnectionPool}, order)
	assert.Contains(t, results[0].Error, "panicked")
	assert.False(t, results[1].Passed)
	assert.True(t, results[2].Passed)

	assert.False(t, s.Items[ItemEnvRequiredVars])
	assert.False(t, s.Items[ItemDBMigrations])
	assert.True(t, s.Items[ItemDBConnectionPool])
}

func TestEngine_ReadyGaugeFollowsState(t *testing.T) {
	e := newTestEngine(t, NewMemoryStore(), nil)
	ctx := context.Background()

	e.Reset(ctx)
	assert.Equal(t, float64(0), testutil.ToFloat64(Ready))

	for _, it := range e.Catalog().Critical() {
		_, err := e.Update(ctx, it.ID, true)
		require.NoError(t, err)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(Ready))
}
