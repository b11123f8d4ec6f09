package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	presence "go-relay/internal/pkg/presence/domain"
	repository "go-relay/internal/pkg/presence/persistence/repository/port"
)

// PgMessageRepository persists messages in Postgres. A nil pool is legal and
// makes every operation return ErrStoreUnavailable, which is how the service
// runs in degraded mode when the database is down at startup.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ repository.MessageRepository = (*PgMessageRepository)(nil)

func (r *PgMessageRepository) SaveMessage(ctx context.Context, m presence.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", presence.ErrStoreUnavailable
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO presence.message (sender, receiver, content, created_at, delivered, read)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING id::text
	`, m.Sender, m.Receiver, m.Content, m.CreatedAt, m.Delivered).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save message: %w", err)
	}
	return id, nil
}

func (r *PgMessageRepository) MarkDelivered(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return presence.ErrStoreUnavailable
	}
	// Zero rows affected means already delivered or unknown id; the flag is
	// monotone either way, so only transport errors are reported.
	_, err := r.pool.Exec(ctx, `
		UPDATE presence.message
		SET delivered = true
		WHERE id = $1::uuid AND delivered = false
	`, id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func (r *PgMessageRepository) MarkRead(ctx context.Context, id string, receiver string) error {
	if r == nil || r.pool == nil {
		return presence.ErrStoreUnavailable
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE presence.message
		SET read = true, delivered = true, read_at = now()
		WHERE id = $1::uuid AND receiver = $2 AND read = false
	`, id, receiver)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return presence.ErrNotFound
	}
	return nil
}

func (r *PgMessageRepository) GetConversation(ctx context.Context, userA, userB string, limit int) ([]presence.Message, error) {
	if r == nil || r.pool == nil {
		return nil, presence.ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, sender, receiver, content, created_at, delivered, read, read_at
		FROM presence.message
		WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		ORDER BY created_at ASC
		LIMIT $3
	`, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	defer rows.Close()

	var msgs []presence.Message
	for rows.Next() {
		var msg presence.Message
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.Content, &msg.CreatedAt, &msg.Delivered, &msg.Read, &msg.ReadAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgMessageRepository) CountMessages(ctx context.Context) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, presence.ErrStoreUnavailable
	}
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM presence.message`).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
