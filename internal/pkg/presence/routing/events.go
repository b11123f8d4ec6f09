package routing

import "time"

// Event names carried on the wire. The transport emits them as
// {"event": <name>, "data": <payload>} frames, FIFO per connection.
const (
	EventConnected   = "connected"
	EventWelcome     = "welcome"
	EventUserJoined  = "user-joined"
	EventUsersUpdate = "users-update"
	EventNewMessage  = "new-message"
	EventMessageSent = "message-sent"
	EventBroadcast   = "broadcast"
	EventUserTyping  = "user-typing"
	EventUserLeft    = "user-left"
	EventError       = "error"
)

// Delivery statuses reported back to the sender in message-sent.
const (
	StatusDelivered = "delivered"
	StatusOffline   = "offline"
)

// NewMessagePayload goes to the recipient of a direct message.
type NewMessagePayload struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Delivered bool      `json:"delivered"`
}

// MessageSentPayload acknowledges a direct send to its sender. Delivery and
// persistence are independent outcomes joined only here.
type MessageSentPayload struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Delivered bool      `json:"delivered"`
	Persisted bool      `json:"persisted"`
	Status    string    `json:"status"`
}

// BroadcastPayload goes to every live connection, sender included.
type BroadcastPayload struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PresencePayload announces a single peer joining or leaving.
type PresencePayload struct {
	Username string `json:"username"`
}

// UsersUpdatePayload carries the full roster snapshot.
type UsersUpdatePayload struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// TypingPayload is the transient typing signal, target only.
type TypingPayload struct {
	From     string `json:"from"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorPayload surfaces validation failures to the originating connection.
type ErrorPayload struct {
	Error string `json:"error"`
}
