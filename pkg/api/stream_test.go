package api

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vyvo/trafficlight/pkg/feed"
)

func postUpdate(t *testing.T, baseURL, body string) {
	t.Helper()
	resp, err := http.Post(baseURL+"/update_traffic_light", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post update: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from update, got %d", resp.StatusCode)
	}
}

func TestStreamDeliversUpdates(t *testing.T) {
	srv, _, hub := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/traffic_lights/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "http://dashboard.example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin on stream, got %q", got)
	}
	if hub.Subscribers() != 1 {
		t.Fatalf("expected stream to be subscribed, got %d", hub.Subscribers())
	}

	postUpdate(t, ts.URL, `{"junction_id": "junction_2", "status": "green", "time_left": 33}`)

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
				return
			}
		}
	}()

	select {
	case payload := <-lines:
		var e feed.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if e.JunctionID != "junction_2" || e.Status != "green" || e.TimeLeft != 33 {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received on stream")
	}
}

func TestWebSocketDeliversUpdatesAndPongs(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/traffic_lights"
	header := http.Header{}
	header.Set("Origin", "http://elsewhere.example.net")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	postUpdate(t, ts.URL, `{"junction_id": "junction_8", "status": "red", "time_left": 60}`)

	var e feed.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if e.JunctionID != "junction_8" || e.Status != "red" || e.TimeLeft != 60 {
		t.Fatalf("unexpected event: %+v", e)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var reply wsControl
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if reply.Type != "pong" {
		t.Fatalf("expected pong, got %+v", reply)
	}
}

func TestWebSocketUnsubscribesOnClose(t *testing.T) {
	srv, _, hub := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/traffic_lights"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	if hub.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", hub.Subscribers())
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not released after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStreamEndsWhenHubIsClosed(t *testing.T) {
	srv, _, hub := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	hub.Close()

	resp, err := http.Get(ts.URL + "/traffic_lights/stream")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, resp.Body)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream stayed open after the hub closed")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}
