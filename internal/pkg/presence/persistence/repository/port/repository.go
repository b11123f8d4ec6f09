package repository

import (
	"context"

	presence "go-relay/internal/pkg/presence/domain"
)

// MessageRepository is the durable store contract consumed by the router.
// The store is advisory for the live-routing hot path and authoritative only
// for history: every method may fail without affecting delivery. A failing
// store puts the system in degraded mode, it never aborts routing.
type MessageRepository interface {
	// SaveMessage appends a message and returns the store-assigned id.
	SaveMessage(ctx context.Context, m presence.Message) (string, error)

	// MarkDelivered flips the delivered flag for a persisted message.
	MarkDelivered(ctx context.Context, id string) error

	// MarkRead flips the read flag and stamps readAt, once. The update is
	// keyed by (id, receiver) so only the message's receiver can acknowledge.
	// Returns presence.ErrNotFound when no unread row matches.
	MarkRead(ctx context.Context, id string, receiver string) error

	// GetConversation returns all messages exchanged between the two users
	// in either direction, ordered by creation time ascending, capped at limit.
	GetConversation(ctx context.Context, userA, userB string, limit int) ([]presence.Message, error)

	// CountMessages returns the total number of persisted messages.
	CountMessages(ctx context.Context) (int64, error)
}

// UserRepository persists known usernames for the registration endpoint.
type UserRepository interface {
	Upsert(ctx context.Context, username string) error
}
