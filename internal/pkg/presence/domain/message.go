package presence

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Everyone is the sentinel receiver for broadcast messages.
const Everyone = "everyone"

// TransientIDPrefix marks identifiers minted in memory when the durable store
// could not assign one. Clients can tell the two id spaces apart by prefix.
const TransientIDPrefix = "mem-"

// Message is a directed communication unit. Sender and Receiver are usernames,
// not connection ids, so history survives disconnects. Delivered/Read/ReadAt
// are the only fields ever mutated after creation, and only false->true.
type Message struct {
	ID        string     `db:"id" json:"id"`
	Sender    string     `db:"sender" json:"sender"`
	Receiver  string     `db:"receiver" json:"receiver"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	Delivered bool       `db:"delivered" json:"delivered"`
	Read      bool       `db:"read" json:"read"`
	ReadAt    *time.Time `db:"read_at" json:"readAt,omitempty"`
}

// NewMessage validates and normalizes a message at send time. The id is left
// empty; the store assigns one on persist, or the router mints a transient id.
func NewMessage(sender, receiver, content string) (*Message, error) {
	if sender == "" {
		return nil, ErrInvalidInput
	}
	receiver = strings.TrimSpace(receiver)
	content = strings.TrimSpace(content)
	if receiver == "" || content == "" {
		return nil, ErrInvalidInput
	}
	return &Message{
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewTransientID mints an in-memory message identifier.
func NewTransientID() string {
	return TransientIDPrefix + uuid.NewString()
}

// IsTransientID reports whether id belongs to the in-memory id space,
// i.e. no durable record exists for it.
func IsTransientID(id string) bool {
	return strings.HasPrefix(id, TransientIDPrefix)
}
