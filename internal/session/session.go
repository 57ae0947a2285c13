package session

import (
	"context"
	"errors"
	"time"

	"github.com/projecthub/console/internal/domain/user"
)

var ErrNotFound = errors.New("session not found")

// Session is the one piece of cross-request mutable state the console owns:
// the authenticated Identity paired with the opaque upstream Credential.
// Either both are present or the session does not exist.
type Session struct {
	ID        string    `json:"id"`
	User      user.User `json:"user"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Complete reports whether the record holds a full Identity/Credential pair.
// A partial record (identity without credential or vice versa, e.g. after a
// corrupted store read) is treated as logged out, never propagated.
func (s Session) Complete() bool {
	return s.ID != "" && s.Token != "" && s.User.ID != ""
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store persists session records. Implementations: memory, redis, postgres.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Ping(ctx context.Context) error
}
