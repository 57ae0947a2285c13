package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/projecthub/console/internal/domain/user"
)

type cookieClaims struct {
	SID       string `json:"sid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager owns the login/logout lifecycle. The browser holds a signed HS256
// cookie carrying only the session id; the Identity and the upstream bearer
// Credential live in the Store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
}

func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
	}
}

// Login replaces any prior session state with the server-returned identity
// and credential, persists the pair and returns the signed cookie value.
func (m *Manager) Login(ctx context.Context, identity user.User, credential string) (Session, string, error) {
	now := time.Now().UTC()

	s := Session{
		ID:        uuid.NewString(),
		User:      identity,
		Token:     credential,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, "", err
	}

	cookie, err := m.sign(s)

	if err != nil {
		return Session{}, "", err
	}

	return s, cookie, nil
}

// Logout clears the durable copy. Idempotent: an unknown id is not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, id)

	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

// Resolve rehydrates the session behind a cookie value. Anything short of a
// valid signature plus a complete, unexpired record resolves to ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, cookie string) (Session, error) {
	claims, err := m.verify(cookie)

	if err != nil {
		return Session{}, ErrNotFound
	}

	s, err := m.store.Get(ctx, claims.SID)

	if err != nil {
		return Session{}, ErrNotFound
	}

	if !s.Complete() || s.Expired(time.Now().UTC()) {
		// drop the unusable record so it does not linger
		_ = m.store.Delete(ctx, s.ID)
		return Session{}, ErrNotFound
	}

	return s, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Ping reports whether the backing store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) sign(s Session) (string, error) {
	claims := cookieClaims{
		SID:       s.ID,
		TokenType: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			Subject:   s.User.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

func (m *Manager) verify(raw string) (*cookieClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &cookieClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*cookieClaims)

	if !ok || !token.Valid {
		return nil, errors.New("invalid session cookie")
	}

	if claims.TokenType != "session" || claims.SID == "" {
		return nil, errors.New("invalid session cookie")
	}

	return claims, nil
}
