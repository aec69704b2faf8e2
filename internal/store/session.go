package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleyhq/parley/internal/domain"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	belief, err := marshalBelief(sess.Belief)
	if err != nil {
		return err
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO sessions (domain, turn_count, belief)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		sess.Domain, sess.TurnCount, belief,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
}

func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess := &domain.Session{}
	var belief []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, domain, turn_count, belief, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Domain, &sess.TurnCount, &belief, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(belief) > 0 {
		sess.Belief = &domain.BeliefState{}
		if err := json.Unmarshal(belief, sess.Belief); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *SessionStore) Update(ctx context.Context, sess *domain.Session) error {
	belief, err := marshalBelief(sess.Belief)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions
		 SET turn_count = $2, belief = $3, updated_at = NOW()
		 WHERE id = $1`,
		sess.ID, sess.TurnCount, belief,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIdle removes sessions whose last activity is older than the given
// age. Turn rows go with them via the foreign key.
func (s *SessionStore) DeleteIdle(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM sessions WHERE updated_at < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds(),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func marshalBelief(bs *domain.BeliefState) ([]byte, error) {
	if bs == nil {
		return nil, nil
	}
	return json.Marshal(bs)
}
