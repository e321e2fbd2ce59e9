package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub registers one server-side connection with hub and returns the client end
func dialHub(t *testing.T, hub *WSHub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(1, conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWSHubDeliversBroadcast(t *testing.T) {
	hub := NewWSHub()
	defer hub.Close()

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.NotifyPOICreated(map[string]string{"name": "here"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, WSTypePOICreated, msg.Type)
	assert.Equal(t, "here", msg.Data["name"])
}

func TestWSHubBroadcastDoesNotWaitForStalledSubscriber(t *testing.T) {
	hub := NewWSHub()
	defer hub.Close()

	// never reads, so the socket buffers fill and writes block
	dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	payload := strings.Repeat("x", 1<<20)
	start := time.Now()
	for i := 0; i < 64; i++ {
		hub.NotifyPOIUpdated(payload)
	}
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWSHubSendUnknownSubscription(t *testing.T) {
	hub := NewWSHub()
	assert.Error(t, hub.Send("missing", WSMessage{Type: WSTypePOICreated}))
}
