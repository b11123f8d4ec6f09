// Package routing implements the message-routing and delivery-state engine:
// direct sends, broadcast fan-out, read acknowledgment, presence
// notifications, and typing signals.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	qport "go-relay/internal/infrastructure/queue/port"
	presence "go-relay/internal/pkg/presence/domain"
	repository "go-relay/internal/pkg/presence/persistence/repository/port"
	"go-relay/internal/pkg/presence/registry"
	"go-relay/internal/pkg/presence/task"
)

const storeTimeout = 5 * time.Second

// Router resolves recipients through the registry, persists best-effort, and
// emits delivery and acknowledgment events. Live delivery never waits on the
// store: a persistence failure downgrades the message to a transient id and
// the flow continues.
type Router struct {
	registry *registry.ConnectionRegistry
	store    repository.MessageRepository
	queue    qport.Client // nil when the queue backend is down
}

func NewRouter(reg *registry.ConnectionRegistry, store repository.MessageRepository, queue qport.Client) *Router {
	return &Router{registry: reg, store: store, queue: queue}
}

// SendDirect routes one message from the connection senderConnID to the user
// `to`. Terminal states: delivered, queued-offline, or a returned taxonomy
// error (rejected). Delivery is attempted exactly once, at send time; offline
// messages are recoverable only via history.
func (r *Router) SendDirect(ctx context.Context, senderConnID, to, content string) error {
	sender, ok := r.registry.Entry(senderConnID)
	if !ok {
		return presence.ErrNotJoined
	}

	msg, err := presence.NewMessage(sender.Record.Username, to, content)
	if err != nil {
		return err
	}

	persisted := r.persist(ctx, msg)

	status := StatusOffline
	if target, ok := r.registry.Lookup(msg.Receiver); ok {
		msg.Delivered = true
		status = StatusDelivered
		if err := target.Sink.Emit(EventNewMessage, NewMessagePayload{
			ID:        msg.ID,
			From:      msg.Sender,
			Message:   msg.Content,
			Timestamp: msg.CreatedAt,
			Delivered: true,
		}); err != nil {
			log.Printf("router: deliver to %s: %v", msg.Receiver, err)
		}
	}

	if err := sender.Sink.Emit(EventMessageSent, MessageSentPayload{
		ID:        msg.ID,
		To:        msg.Receiver,
		Message:   msg.Content,
		Timestamp: msg.CreatedAt,
		Delivered: msg.Delivered,
		Persisted: persisted,
		Status:    status,
	}); err != nil {
		log.Printf("router: ack to %s: %v", msg.Sender, err)
	}

	// The delivered-flag update runs after the ack so a slow store can never
	// delay the sender's acknowledgment.
	if msg.Delivered && persisted {
		r.flagDelivered(msg.ID)
	}
	return nil
}

// Broadcast routes one message from senderConnID to every live connection,
// the sender included. Broadcasts are fire-and-forget: no delivered flag, no
// per-recipient state.
func (r *Router) Broadcast(ctx context.Context, senderConnID, content string) error {
	sender, ok := r.registry.Get(senderConnID)
	if !ok {
		return presence.ErrNotJoined
	}

	msg, err := presence.NewMessage(sender.Username, presence.Everyone, content)
	if err != nil {
		return err
	}

	r.persist(ctx, msg)

	payload := BroadcastPayload{
		ID:        msg.ID,
		From:      msg.Sender,
		Message:   msg.Content,
		Timestamp: msg.CreatedAt,
	}
	for _, entry := range r.registry.Entries("") {
		if err := entry.Sink.Emit(EventBroadcast, payload); err != nil {
			log.Printf("router: broadcast to %s: %v", entry.Record.Username, err)
		}
	}
	return nil
}

// MarkRead acknowledges a message on behalf of the connection connID. It is
// best-effort and silent: transient ids, unknown ids, a missing sender
// registration, and store failures are all logged and swallowed. Only the
// message's receiver can acknowledge it; the store enforces the match.
func (r *Router) MarkRead(ctx context.Context, connID, messageID string) {
	rec, ok := r.registry.Get(connID)
	if !ok {
		log.Printf("router: mark-read from unregistered connection %s", connID)
		return
	}
	if messageID == "" || presence.IsTransientID(messageID) {
		log.Printf("router: mark-read skipped for in-memory id %q", messageID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := r.store.MarkRead(ctx, messageID, rec.Username); err != nil {
		switch {
		case errors.Is(err, presence.ErrNotFound):
			log.Printf("router: mark-read %s by %s: no matching unread message", messageID, rec.Username)
		case errors.Is(err, presence.ErrStoreUnavailable):
			log.Printf("router: mark-read %s: store unavailable", messageID)
		default:
			log.Printf("router: mark-read %s: %v", messageID, err)
		}
	}
}

// persist appends msg to the store best-effort. On success the durable id is
// set on msg; on failure a transient id is minted so routing can continue in
// degraded mode. Reports whether the message was persisted.
func (r *Router) persist(ctx context.Context, msg *presence.Message) bool {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	id, err := r.store.SaveMessage(ctx, *msg)
	if err != nil {
		msg.ID = presence.NewTransientID()
		log.Printf("router: persist %s -> %s failed, continuing with %s: %v", msg.Sender, msg.Receiver, msg.ID, err)
		return false
	}
	msg.ID = id
	return true
}

// flagDelivered schedules the delivered-flag update for a persisted message.
// Preferred path is the background queue; when the queue is down the update
// runs inline as a direct best-effort store call.
func (r *Router) flagDelivered(messageID string) {
	if r.queue != nil {
		payload, err := json.Marshal(task.MarkDeliveredPayload{MessageID: messageID})
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			_, err = r.queue.Enqueue(ctx, qport.Task{Type: task.MarkDeliveredTaskType, Payload: payload},
				qport.EnqueueOption{Queue: "presence", MaxRetry: 5})
			if err == nil {
				return
			}
		}
		log.Printf("router: enqueue delivered update for %s: %v", messageID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := r.store.MarkDelivered(ctx, messageID); err != nil {
		log.Printf("router: delivered update for %s: %v", messageID, err)
	}
}

// ValidationMessage renders a taxonomy error for the error event sent back to
// the originating connection.
func ValidationMessage(err error) string {
	switch {
	case errors.Is(err, presence.ErrNotJoined):
		return "join before sending messages"
	case errors.Is(err, presence.ErrInvalidInput):
		return "recipient and message are required"
	default:
		return fmt.Sprintf("request failed: %v", err)
	}
}
