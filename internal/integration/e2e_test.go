package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"todo_webapp/internal/app"
	"todo_webapp/internal/config"
	"todo_webapp/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	app *app.App
	ts  *httptest.Server
}

// startServer boots the full application against DATABASE_URL.
func startServer(t *testing.T) *server {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CHECKLIST_STORE", "memory")
	t.Setenv("CHECKLIST_CHECK_INTERVAL", "0")
	t.Setenv("SEARCH_DEBOUNCE_MS", "20")
	t.Setenv("LOG_LEVEL", "error")

	cfg := config.Load()
	require.True(t, cfg.Validation.Valid, cfg.Validation.ErrorMessage())

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	require.NoError(t, err)

	_, err = db.Migrate(ctx, a.DB)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	ts := httptest.NewServer(a.Router("test", ""))
	t.Cleanup(func() {
		ts.Close()
		_ = a.Close()
	})
	return &server{app: a, ts: ts}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out.Bytes()
}

func (s *server) signUp(t *testing.T) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email":    uuid.NewString() + "@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	var res struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	return res.Session.Token
}

func (s *server) createTask(t *testing.T, token, name, priority string) string {
	t.Helper()
	due := time.Now().Add(24 * time.Hour)
	code, body := s.do(t, http.MethodPost, "/api/v1/tasks", token, gin.H{
		"name": name, "priority": priority, "dueAt": due,
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	var task struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &task))
	return task.ID
}

type viewMessage struct {
	Type string `json:"type"`
	All  []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"all"`
	Open []json.RawMessage `json:"open"`
	Done []json.RawMessage `json:"done"`
}

func nextView(t *testing.T, conn *websocket.Conn) viewMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m viewMessage
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == "view" {
			return m
		}
	}
}

func TestE2E_TasksAndLiveView(t *testing.T) {
	s := startServer(t)
	token := s.signUp(t)
	other := s.signUp(t)

	milk := s.createTask(t, token, "Buy milk", "high")
	taxes := s.createTask(t, token, "File taxes", "low")
	s.createTask(t, other, "Buy bread", "high")

	code, body := s.do(t, http.MethodPost, "/api/v1/tasks/"+taxes+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, code, string(body))

	code, body = s.do(t, http.MethodGet, "/api/v1/tasks?priority=high&q=buy", token, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var list viewMessage
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.All, 1, "other users' tasks stay hidden")
	assert.Equal(t, milk, list.All[0].ID)

	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	v := nextView(t, conn)
	assert.Len(t, v.All, 2)
	assert.Len(t, v.Open, 1)
	assert.Len(t, v.Done, 1)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "filter", "criteria": gin.H{"status": "done"}}))
	v = nextView(t, conn)
	require.Len(t, v.All, 1)
	assert.Equal(t, taxes, v.All[0].ID)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "filter", "criteria": gin.H{}}))
	nextView(t, conn)
	require.NoError(t, conn.WriteJSON(gin.H{"type": "search", "q": "milk", "flush": true}))
	v = nextView(t, conn)
	require.Len(t, v.All, 1)
	assert.Equal(t, milk, v.All[0].ID)
}

func TestE2E_ChecklistChecksAgainstDatabase(t *testing.T) {
	s := startServer(t)
	token := s.signUp(t)

	code, body := s.do(t, http.MethodPost, "/api/v1/checklist/checks", token, nil)
	require.Equal(t, http.StatusOK, code, string(body))

	var res struct {
		State struct {
			Items map[string]bool `json:"items"`
		} `json:"state"`
		Results []struct {
			ItemID string `json:"itemId"`
			Passed bool   `json:"passed"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Results, 3)
	for _, r := range res.Results {
		assert.True(t, r.Passed, r.ItemID)
		assert.True(t, res.State.Items[r.ItemID], r.ItemID)
	}
}
