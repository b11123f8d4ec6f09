package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// dialTestConnection stands up a websocket pair and wraps the client side.
// The server side drains inbound frames until the connection closes.
func dialTestConnection(t *testing.T) *Connection {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	conn := NewConnection(ws)
	conn.Start()
	return conn
}

func TestEmitAfterClose(t *testing.T) {
	conn := dialTestConnection(t)
	conn.Close(websocket.CloseNormalClosure, "done")

	// Fan-out snapshots taken before the close may still hold this
	// connection; every emit must fail with an error, never panic.
	for i := 0; i < 200; i++ {
		err := conn.Emit("new-message", map[string]string{"message": "late"})
		assert.Error(t, err)
	}
}

func TestConcurrentEmitAndClose(t *testing.T) {
	conn := dialTestConnection(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				// Emit result is irrelevant here; racing a close must
				// not panic or deadlock.
				_ = conn.Emit("broadcast", struct{}{})
			}
		}()
	}
	conn.Close(websocket.CloseGoingAway, "session replaced")
	wg.Wait()

	assert.Error(t, conn.Send([]byte("after")))
}

func TestCloseIsIdempotent(t *testing.T) {
	conn := dialTestConnection(t)
	conn.Close(websocket.CloseNormalClosure, "first")
	conn.Close(websocket.CloseNormalClosure, "second")
}
