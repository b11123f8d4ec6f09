// Package registry tracks which users are currently connected. It is the
// single source of truth for presence and the only shared mutable state in
// the routing core.
package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	presence "go-relay/internal/pkg/presence/domain"
)

// EventSink receives named events for one live connection. The transport
// layer guarantees FIFO delivery per connection.
type EventSink interface {
	Emit(event string, data any) error
}

// Entry pairs a presence record with the sink used to reach its connection.
type Entry struct {
	Record presence.PresenceRecord
	Sink   EventSink
}

// ConnectionRegistry maps live connection ids to presence records. All maps
// live under a single mutex so lookups, snapshots, and fan-out enumeration
// observe a consistent view. Registry operations never block.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byConn map[string]*Entry
	byUser map[string]string // username -> connection id
}

func New() *ConnectionRegistry {
	return &ConnectionRegistry{
		byConn: make(map[string]*Entry),
		byUser: make(map[string]string),
	}
}

// Register binds connID to username. Registering the same connID again
// replaces its record (idempotent per connection). A username already bound
// to a different live connection is evicted deterministically; the evicted
// entry is returned so the transport can close the stale socket.
func (r *ConnectionRegistry) Register(connID, username string, sink EventSink) (presence.PresenceRecord, *Entry, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return presence.PresenceRecord{}, nil, fmt.Errorf("register %q: %w", connID, presence.ErrInvalidInput)
	}

	rec := presence.PresenceRecord{
		ConnectionID: connID,
		Username:     username,
		JoinedAt:     time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-registration on the same connection: drop the old username binding.
	if prev, ok := r.byConn[connID]; ok {
		if cur, ok := r.byUser[prev.Record.Username]; ok && cur == connID {
			delete(r.byUser, prev.Record.Username)
		}
	}

	var evicted *Entry
	if otherID, ok := r.byUser[username]; ok && otherID != connID {
		evicted = r.byConn[otherID]
		delete(r.byConn, otherID)
	}

	r.byConn[connID] = &Entry{Record: rec, Sink: sink}
	r.byUser[username] = connID
	return rec, evicted, nil
}

// Unregister removes the record for connID. It is a no-op when absent.
func (r *ConnectionRegistry) Unregister(connID string) (presence.PresenceRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byConn[connID]
	if !ok {
		return presence.PresenceRecord{}, false
	}
	delete(r.byConn, connID)
	if cur, ok := r.byUser[entry.Record.Username]; ok && cur == connID {
		delete(r.byUser, entry.Record.Username)
	}
	return entry.Record, true
}

// Get returns the presence record for a connection id.
func (r *ConnectionRegistry) Get(connID string) (presence.PresenceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byConn[connID]
	if !ok {
		return presence.PresenceRecord{}, false
	}
	return entry.Record, true
}

// Entry returns the full entry (record and sink) for a connection id.
func (r *ConnectionRegistry) Entry(connID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byConn[connID]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Lookup resolves a username to its live connection. Uniqueness is enforced
// at register time, so resolution is deterministic.
func (r *ConnectionRegistry) Lookup(username string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[username]
	if !ok {
		return Entry{}, false
	}
	entry, ok := r.byConn[connID]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Entries returns a point-in-time copy of all live entries, optionally
// excluding one connection. Callers fan out over the copy without holding
// the registry lock.
func (r *ConnectionRegistry) Entries(excludeConnID string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.byConn))
	for id, entry := range r.byConn {
		if excludeConnID != "" && id == excludeConnID {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries
}

// Snapshot returns the current roster of usernames.
func (r *ConnectionRegistry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.byConn))
	for _, entry := range r.byConn {
		users = append(users, entry.Record.Username)
	}
	return users
}

// Count returns the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
