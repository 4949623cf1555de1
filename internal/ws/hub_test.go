package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()

	hub.Subscribe("match-1", nil)
	if hub.Subscribers("match-1") != 1 {
		t.Fatalf("expected one subscriber")
	}

	hub.Unsubscribe("match-1", nil)
	if hub.Subscribers("match-1") != 0 {
		t.Fatalf("expected room to be removed")
	}
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty room to be dropped")
	}
}

// TestHubConcurrentBroadcast races broadcasts into the same room; writes to a
// connection must be serialized, so every event arrives intact.
func TestHubConcurrentBroadcast(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe("match-1", conn)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	for i := 0; hub.Subscribers("match-1") == 0; i++ {
		if i > 100 {
			t.Fatalf("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	const events = 20
	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Event{Type: "message", MatchID: "match-1", Text: "ping"})
		}()
	}

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	for received := 0; received < events; received++ {
		if _, _, err := client.ReadMessage(); err != nil {
			t.Fatalf("read %d: %v", received, err)
		}
	}
	wg.Wait()
}

func TestHubUnsubscribeUnknownRoom(t *testing.T) {
	hub := NewHub()

	// must not panic
	hub.Unsubscribe("missing", nil)
	if hub.Subscribers("missing") != 0 {
		t.Fatalf("expected zero subscribers")
	}
}
