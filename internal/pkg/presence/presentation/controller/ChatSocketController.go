package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-relay/internal/infrastructure/realtime"
	"go-relay/internal/pkg/presence/registry"
	"go-relay/internal/pkg/presence/routing"
	"go-relay/internal/pkg/presence/usecase"
)

// ChatSocketController owns the websocket endpoint: it upgrades the HTTP
// request, runs the per-connection read loop, and dispatches inbound event
// frames to the routing core. One read loop and one write loop per connection.
type ChatSocketController struct {
	registry    *registry.ConnectionRegistry
	router      *routing.Router
	broadcaster *routing.Broadcaster
	typing      *routing.TypingSignal
	lastSeen    *usecase.LastSeenUseCase
}

func NewChatSocketController(
	reg *registry.ConnectionRegistry,
	router *routing.Router,
	broadcaster *routing.Broadcaster,
	typing *routing.TypingSignal,
	lastSeen *usecase.LastSeenUseCase,
) *ChatSocketController {
	return &ChatSocketController{
		registry:    reg,
		router:      router,
		broadcaster: broadcaster,
		typing:      typing,
		lastSeen:    lastSeen,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; plug a proper checker when auth is added.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

type connectedPayload struct {
	ConnectionID string    `json:"connectionId"`
	ServerTime   time.Time `json:"serverTime"`
}

type welcomePayload struct {
	Username string   `json:"username"`
	Users    []string `json:"users"`
	Count    int      `json:"count"`
}

type joinData struct {
	Username string `json:"username"`
}

type sendMessageData struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type broadcastData struct {
	Message string `json:"message"`
}

type markReadData struct {
	MessageID string `json:"messageId"`
}

type typingData struct {
	To       string `json:"to"`
	IsTyping bool   `json:"isTyping"`
}

// Handle upgrades the connection and processes frames until the client
// disconnects. Unregistration runs before the handler returns, so no routing
// can resolve this connection after the socket is gone.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(ws)
		conn.Start()
		defer func() {
			if rec, ok := ctl.registry.Unregister(conn.ID); ok {
				ctl.broadcaster.Left(rec)
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				ctl.lastSeen.Touch(ctx, rec.Username, time.Now())
				cancel()
			}
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		_ = conn.Emit(routing.EventConnected, connectedPayload{
			ConnectionID: conn.ID,
			ServerTime:   time.Now().UTC(),
		})

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					log.Printf("socket: read %s: %v", conn.ID, err)
				}
				return
			}

			var frame realtime.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "invalid payload")
				continue
			}

			switch frame.Event {
			case "join":
				ctl.handleJoin(conn, frame.Data)
			case "send-message":
				ctl.handleSendMessage(c, conn, frame.Data)
			case "broadcast-message":
				ctl.handleBroadcast(c, conn, frame.Data)
			case "mark-read":
				ctl.handleMarkRead(c, conn, frame.Data)
			case "typing":
				ctl.handleTyping(conn, frame.Data)
			default:
				ctl.replyError(conn, "unknown event")
			}
		}
	}
}

func (ctl *ChatSocketController) handleJoin(conn *realtime.Connection, data json.RawMessage) {
	var d joinData
	_ = json.Unmarshal(data, &d)

	rec, evicted, err := ctl.registry.Register(conn.ID, d.Username, conn)
	if err != nil {
		ctl.replyError(conn, "username is required")
		return
	}

	if evicted != nil {
		if prev, ok := evicted.Sink.(*realtime.Connection); ok {
			prev.Close(4001, "session replaced")
		}
	}

	_ = conn.Emit(routing.EventWelcome, welcomePayload{
		Username: rec.Username,
		Users:    ctl.registry.Snapshot(),
		Count:    ctl.registry.Count(),
	})
	ctl.broadcaster.Joined(rec)
}

func (ctl *ChatSocketController) handleSendMessage(c *gin.Context, conn *realtime.Connection, data json.RawMessage) {
	var d sendMessageData
	_ = json.Unmarshal(data, &d)

	if err := ctl.router.SendDirect(c.Request.Context(), conn.ID, d.To, d.Message); err != nil {
		ctl.replyError(conn, routing.ValidationMessage(err))
	}
}

func (ctl *ChatSocketController) handleBroadcast(c *gin.Context, conn *realtime.Connection, data json.RawMessage) {
	var d broadcastData
	_ = json.Unmarshal(data, &d)

	if err := ctl.router.Broadcast(c.Request.Context(), conn.ID, d.Message); err != nil {
		ctl.replyError(conn, routing.ValidationMessage(err))
	}
}

func (ctl *ChatSocketController) handleMarkRead(c *gin.Context, conn *realtime.Connection, data json.RawMessage) {
	var d markReadData
	_ = json.Unmarshal(data, &d)

	// Best-effort: no event is emitted either way.
	ctl.router.MarkRead(c.Request.Context(), conn.ID, d.MessageID)
}

func (ctl *ChatSocketController) handleTyping(conn *realtime.Connection, data json.RawMessage) {
	var d typingData
	_ = json.Unmarshal(data, &d)

	ctl.typing.Signal(conn.ID, d.To, d.IsTyping)
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, message string) {
	_ = conn.Emit(routing.EventError, routing.ErrorPayload{Error: message})
}
