package routing

import (
	"log"

	presence "go-relay/internal/pkg/presence/domain"
	"go-relay/internal/pkg/presence/registry"
)

// Broadcaster fans out presence changes. Every registry mutation produces two
// independent rounds: a targeted joined/left event, then a roster update.
// There is no coalescing; concurrently racing joins may interleave their
// pairs, which is acceptable because the roster payload is a full snapshot.
type Broadcaster struct {
	registry *registry.ConnectionRegistry
}

func NewBroadcaster(reg *registry.ConnectionRegistry) *Broadcaster {
	return &Broadcaster{registry: reg}
}

// Joined announces a new registration: user-joined to every other connection,
// then users-update to all connections including the one that joined.
func (b *Broadcaster) Joined(rec presence.PresenceRecord) {
	peer := PresencePayload{Username: rec.Username}
	for _, entry := range b.registry.Entries(rec.ConnectionID) {
		if err := entry.Sink.Emit(EventUserJoined, peer); err != nil {
			log.Printf("broadcaster: user-joined to %s: %v", entry.Record.Username, err)
		}
	}
	b.roster()
}

// Left announces a removal. The record is already gone from the registry, so
// both rounds naturally reach only the remaining connections.
func (b *Broadcaster) Left(rec presence.PresenceRecord) {
	peer := PresencePayload{Username: rec.Username}
	for _, entry := range b.registry.Entries("") {
		if err := entry.Sink.Emit(EventUserLeft, peer); err != nil {
			log.Printf("broadcaster: user-left to %s: %v", entry.Record.Username, err)
		}
	}
	b.roster()
}

func (b *Broadcaster) roster() {
	payload := UsersUpdatePayload{
		Users: b.registry.Snapshot(),
		Count: b.registry.Count(),
	}
	for _, entry := range b.registry.Entries("") {
		if err := entry.Sink.Emit(EventUsersUpdate, payload); err != nil {
			log.Printf("broadcaster: users-update to %s: %v", entry.Record.Username, err)
		}
	}
}
