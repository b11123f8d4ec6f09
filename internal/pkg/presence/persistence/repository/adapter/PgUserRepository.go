package adapter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	presence "go-relay/internal/pkg/presence/domain"
	repository "go-relay/internal/pkg/presence/persistence/repository/port"
)

// PgUserRepository persists registered usernames.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) Upsert(ctx context.Context, username string) error {
	if r == nil || r.pool == nil {
		return presence.ErrStoreUnavailable
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO presence.app_user (username, created_at)
		VALUES ($1, now())
		ON CONFLICT (username) DO NOTHING
	`, username)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
