package presence

import "time"

// PresenceRecord binds a live connection to a username for the lifetime of the
// connection. Records are immutable once created; the registry owns them
// exclusively and replaces rather than mutates.
type PresenceRecord struct {
	ConnectionID string    `json:"connectionId"`
	Username     string    `json:"username"`
	JoinedAt     time.Time `json:"joinedAt"`
}
