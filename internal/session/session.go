// Package session holds the identity of a logged-in judge between requests.
// A Session is created at login, loaded by the auth middleware on every
// request that needs a judge and cleared at logout.
package session

import (
	"context"
	"errors"
	"time"

	"nomination_ledger/internal/domain/model"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string      `json:"id"`
	Judge     model.Judge `json:"judge"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func New(judge model.Judge, ttl time.Duration, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:        uuid.NewString(),
		Judge:     judge,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Load returns ErrNotFound for unknown, cleared or
// expired sessions; Clear of a missing session is not an error.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Clear(ctx context.Context, id string) error
}
