// Package session holds signed-in state. A Session is an explicit value that
// handlers pass to services; it is persisted in a Store so it survives
// process restarts and can be rehydrated from the client's token.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID         string    `json:"id"`
	CustomerID int64     `json:"customerId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Store interface {
	Save(ctx context.Context, s *Session) error
	// Load returns ErrSessionNotFound for unknown or expired sessions.
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
