package presence

import "errors"

// Error taxonomy for the presence/routing core.
// InvalidInput and NotJoined surface back to the originating connection as an
// error event; the other two are absorbed locally and only logged.
var (
	ErrInvalidInput     = errors.New("presence: missing required field")
	ErrNotJoined        = errors.New("presence: connection has not joined")
	ErrStoreUnavailable = errors.New("presence: message store unavailable")
	ErrNotFound         = errors.New("presence: message not found")
)
