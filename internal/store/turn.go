package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleyhq/parley/internal/domain"
)

type TurnStore struct {
	db *pgxpool.Pool
}

func NewTurnStore(db *pgxpool.Pool) *TurnStore {
	return &TurnStore{db: db}
}

func (s *TurnStore) Create(ctx context.Context, t *domain.Turn) error {
	userActs, err := json.Marshal(t.UserActs)
	if err != nil {
		return err
	}
	sysAct, err := json.Marshal(t.SysAct)
	if err != nil {
		return err
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO turns (session_id, turn_index, user_acts, sys_act)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.SessionID, t.Index, userActs, sysAct,
	).Scan(&t.ID, &t.CreatedAt)
}

func (s *TurnStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Turn, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, turn_index, user_acts, sys_act, created_at
		 FROM turns WHERE session_id = $1
		 ORDER BY turn_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var (
			t        domain.Turn
			userActs []byte
			sysAct   []byte
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Index, &userActs, &sysAct, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(userActs) > 0 {
			if err := json.Unmarshal(userActs, &t.UserActs); err != nil {
				return nil, err
			}
		}
		if len(sysAct) > 0 {
			t.SysAct = &domain.SysAct{}
			if err := json.Unmarshal(sysAct, t.SysAct); err != nil {
				return nil, err
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
