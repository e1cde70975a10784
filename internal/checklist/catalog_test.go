package checklist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_Embedded(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)

	assert.Equal(t, 40, c.Len())
	assert.Len(t, c.Categories(), 10)
	assert.Empty(t, c.Automated(), "no checks attached")

	it, ok := c.Item(ItemEnvRequiredVars)
	require.True(t, ok)
	assert.True(t, it.Critical)
	assert.True(t, it.Automated)
	assert.Equal(t, "environment", it.Category)

	groups := c.ByCategory()
	require.Len(t, groups, 10)
	total := 0
	for _, g := range groups {
		assert.Len(t, g.Items, 4, g.Category.ID)
		total += len(g.Items)
	}
	assert.Equal(t, 40, total)
}

func TestNewCatalog_AttachesChecks(t *testing.T) {
	c, err := NewCatalog(DefaultChecks(validEnv, nil))
	require.NoError(t, err)

	var ids []string
	for _, it := range c.Automated() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{ItemEnvRequiredVars, ItemDBMigrations, ItemDBConnectionPool}, ids)
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		checks map[string]CheckFunc
	}{
		{"duplicate item", "categories: [{id: a}]\nitems: [{id: x, category: a}, {id: x, category: a}]", nil},
		{"unknown category", "categories: [{id: a}]\nitems: [{id: x, category: b}]", nil},
		{"check for manual item", "categories: [{id: a}]\nitems: [{id: x, category: a}]",
			map[string]CheckFunc{"x": func(context.Context) (bool, error) { return true, nil }}},
		{"check for missing item", "categories: [{id: a}]\nitems: []",
			map[string]CheckFunc{"x": func(context.Context) (bool, error) { return true, nil }}},
		{"not yaml", "{{{", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml), tt.checks)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_ItemsAreCopies(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)
	items := c.Items()
	items[0].Title = "changed"
	it, _ := c.Item(items[0].ID)
	assert.NotEqual(t, "changed", it.Title)
}

func TestSQLiteStore_RoundTripAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checklist.db")
	ctx := context.Background()

	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, ErrNoState)

	require.NoError(t, s.Set(ctx, StorageKey, []byte(`{"items":{"a":true}}`)))
	require.NoError(t, s.Set(ctx, StorageKey, []byte(`{"items":{"a":false}}`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":{"a":false}}`, string(got))
}

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()

	s := NewRedisStore(rdb)
	key := "test-" + time.Now().Format("150405.000000")
	defer rdb.Del(ctx, "checklist:"+key)

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNoState)
	require.NoError(t, s.Set(ctx, key, []byte("blob")))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "blob", string(got))
}

func TestScheduler_RejectsBadInterval(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)
	s := NewScheduler(NewEngine(c, nil), time.UTC)
	_, err = s.Every(0)
	assert.Error(t, err)
	_, err = s.Every(time.Minute)
	assert.NoError(t, err)
}
