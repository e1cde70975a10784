package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"todo_webapp/internal/logger"
	"todo_webapp/internal/ws"

	"github.com/gorilla/websocket"
)

// ws_smoke signs in against a running server, creates a task and walks the
// live view through a filter and a search.
func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	email := flag.String("email", "smoke@example.com", "user email")
	password := flag.String("password", "smoke-test", "user password")
	flag.Parse()
	logger.Init("info", false)

	base := "http://" + *addr + "/api/v1"
	token, err := session(base, *email, *password)
	if err != nil {
		logger.Fatal("sign in", "error", err)
	}

	name := fmt.Sprintf("smoke task %d", time.Now().Unix())
	if err := post(base+"/tasks", token, map[string]any{
		"name":     name,
		"dueAt":    time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"priority": "high",
	}, nil); err != nil {
		logger.Fatal("create task", "error", err)
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	v := waitView(conn)
	logger.Info("initial view", "all", len(v.All), "open", len(v.Open), "done", len(v.Done))

	must(conn.WriteJSON(ws.Inbound{Type: ws.MsgFilter, Criteria: &ws.CriteriaPayload{Priority: "high", Status: "open"}}))
	v = waitView(conn)
	logger.Info("filtered view", "all", len(v.All), "active_filters", v.ActiveFilters)

	must(conn.WriteJSON(ws.Inbound{Type: ws.MsgSearch, Query: name}))
	v = waitView(conn)
	logger.Info("searched view", "all", len(v.All), "query", v.Query)
	if len(v.All) != 1 {
		logger.Fatal("expected exactly the smoke task", "got", len(v.All))
	}

	fmt.Println("OK")
}

func session(base, email, password string) (string, error) {
	var out struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	creds := map[string]string{"email": email, "password": password}
	if err := post(base+"/auth/signin", "", creds, &out); err == nil {
		return out.Session.Token, nil
	}
	if err := post(base+"/auth/signup", "", creds, &out); err != nil {
		return "", err
	}
	return out.Session.Token, nil
}

func post(target, token string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", target, res.Status)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func waitView(conn *websocket.Conn) ws.ViewMessage {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("read", "error", err)
		}
		var m ws.ViewMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			logger.Fatal("decode", "error", err)
		}
		if m.Type == ws.MsgView {
			return m
		}
	}
}

func must(err error) {
	if err != nil {
		logger.Fatal("write", "error", err)
	}
}
