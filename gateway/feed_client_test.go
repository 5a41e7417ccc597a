package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type recordingRegistry struct {
	ch chan FeedUpdate
}

func (r *recordingRegistry) Publish(update FeedUpdate) bool {
	r.ch <- update
	return true
}

func TestFeedClientDeliversUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		frame := `{"type":"exponent","market":"SOL-PERP","data":{"price":100000000,"confidence":10000,"exponent":-6,"twap":99000000,"publish_slot":7}}`
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	registry := &recordingRegistry{ch: make(chan FeedUpdate, 1)}
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client := NewFeedClient(url, registry, zap.NewNop())

	connected := make(chan struct{}, 1)
	client.OnConnect(func() { connected <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = client.Run(ctx)
		close(done)
	}()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}

	select {
	case update := <-registry.ch:
		if update.Market != "SOL-PERP" {
			t.Fatalf("unexpected update: %+v", update)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop on cancel")
	}
}
