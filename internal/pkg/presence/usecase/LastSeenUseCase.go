package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	cacheport "go-relay/internal/infrastructure/cache/port"
	presence "go-relay/internal/pkg/presence/domain"
	"go-relay/internal/pkg/presence/registry"
)

const lastSeenKeyPrefix = "presence:last-seen:"

// LastSeenOutput reports whether the user is online right now, and when they
// were last seen otherwise. LastSeen is nil when the user is online or the
// cache has no record.
type LastSeenOutput struct {
	Username string
	Online   bool
	LastSeen *time.Time
}

// LastSeenUseCase answers presence queries for the HTTP surface. The live
// registry is authoritative; the cache only covers users currently offline.
type LastSeenUseCase struct {
	Cache    cacheport.Cache // nil when the cache backend is down
	Registry *registry.ConnectionRegistry
	TTL      time.Duration
}

func NewLastSeenUseCase(cache cacheport.Cache, reg *registry.ConnectionRegistry, ttl time.Duration) *LastSeenUseCase {
	return &LastSeenUseCase{Cache: cache, Registry: reg, TTL: ttl}
}

func (uc *LastSeenUseCase) Execute(ctx context.Context, username string) (LastSeenOutput, error) {
	if username == "" {
		return LastSeenOutput{}, presence.ErrInvalidInput
	}

	out := LastSeenOutput{Username: username}
	if _, ok := uc.Registry.Lookup(username); ok {
		out.Online = true
		return out, nil
	}
	if uc.Cache == nil {
		return out, nil
	}

	val, err := uc.Cache.Get(ctx, lastSeenKeyPrefix+username)
	if err != nil {
		if !errors.Is(err, cacheport.ErrMiss) {
			log.Printf("last-seen: get %s: %v", username, err)
		}
		return out, nil
	}
	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		log.Printf("last-seen: bad cached value for %s: %v", username, err)
		return out, nil
	}
	out.LastSeen = &ts
	return out, nil
}

// Touch records when a user was last connected. Called on disconnect;
// best-effort, a cache failure is only logged.
func (uc *LastSeenUseCase) Touch(ctx context.Context, username string, at time.Time) {
	if uc.Cache == nil || username == "" {
		return
	}
	if err := uc.Cache.Set(ctx, lastSeenKeyPrefix+username, at.UTC().Format(time.RFC3339), uc.TTL); err != nil {
		log.Printf("last-seen: set %s: %v", username, err)
	}
}
