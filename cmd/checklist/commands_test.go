package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CHECKLIST_STORE", "sqlite")
	t.Setenv("CHECKLIST_SQLITE_PATH", filepath.Join(t.TempDir(), "checklist.db"))
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts := &rootOptions{}
	defer opts.close()
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMarkPersistsAcrossInvocations(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "mark", "db-backup", "docs-readme")
	require.NoError(t, err)
	assert.Contains(t, out, "2/40 complete")

	out, err = execute(t, "status", "--json")
	require.NoError(t, err)
	var body struct {
		State struct {
			Items map[string]bool `json:"items"`
		} `json:"state"`
		Stats struct {
			CompletedItems int `json:"completedItems"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.True(t, body.State.Items["db-backup"])
	assert.Equal(t, 2, body.Stats.CompletedItems)

	_, err = execute(t, "unmark", "db-backup")
	require.NoError(t, err)
	out, err = execute(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "0/40 complete")
	assert.Contains(t, out, "NOT READY")
}

func TestMarkUnknownItem(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "mark", "no-such-item")
	assert.Error(t, err)
}

func TestStatusCategory(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "status", "--category", "environment")
	require.NoError(t, err)
	assert.Contains(t, out, "env-required-vars")
	assert.NotContains(t, out, "db-backup")

	_, err = execute(t, "status", "--category", "nope")
	assert.Error(t, err)
}

func TestRunReportsFailures(t *testing.T) {
	setupEnv(t)
	// no database configured: the env check fails on DATABASE_URL and the
	// database checks fail outright
	out, err := execute(t, "run")
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL  env-required-vars")
	assert.Contains(t, out, "FAIL  db-connection-pool")

	_, err = execute(t, "run", "db-backup")
	assert.Error(t, err, "manual items cannot be run")
}
