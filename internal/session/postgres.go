package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions in a sessions table:
//
//	CREATE TABLE sessions (
//	    id          TEXT PRIMARY KEY,
//	    user_id     TEXT NOT NULL,
//	    user_name   TEXT NOT NULL,
//	    user_email  TEXT NOT NULL,
//	    user_role   TEXT NOT NULL,
//	    user_status TEXT NOT NULL,
//	    token       TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    expires_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, sess Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, user_name, user_email, user_role, user_status, token, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    user_name = EXCLUDED.user_name,
		    user_email = EXCLUDED.user_email,
		    user_role = EXCLUDED.user_role,
		    user_status = EXCLUDED.user_status,
		    token = EXCLUDED.token,
		    expires_at = EXCLUDED.expires_at
	`,
		sess.ID, sess.User.ID, sess.User.Name, sess.User.Email, sess.User.Role, sess.User.Status,
		sess.Token, sess.CreatedAt, sess.ExpiresAt,
	)

	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Session, error) {
	var sess Session

	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, user_name, user_email, user_role, user_status, token, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(
		&sess.ID,
		&sess.User.ID,
		&sess.User.Name,
		&sess.User.Email,
		&sess.User.Role,
		&sess.User.Status,
		&sess.Token,
		&sess.CreatedAt,
		&sess.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}

		return Session{}, err
	}

	return sess, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)

	return err
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)

	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
