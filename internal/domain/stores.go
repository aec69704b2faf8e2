package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteIdle removes sessions (and their turns) not updated within the
	// given age, returning how many were removed.
	DeleteIdle(ctx context.Context, olderThan time.Duration) (int64, error)
}

type TurnStore interface {
	Create(ctx context.Context, t *Turn) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Turn, error)
}
