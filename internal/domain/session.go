package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one dialog with one user against one knowledge domain. The
// belief snapshot is whatever the last turn left behind, persisted so the
// memory fields survive a restart.
type Session struct {
	ID        uuid.UUID    `json:"id"`
	Domain    string       `json:"domain"`
	TurnCount int          `json:"turn_count"`
	Belief    *BeliefState `json:"belief,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Turn is one entry in the append-only dialog log: the user acts that came
// in and the system act that went out.
type Turn struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Index     int       `json:"index"`
	UserActs  []UserAct `json:"user_acts,omitempty"`
	SysAct    *SysAct   `json:"sys_act"`
	CreatedAt time.Time `json:"created_at"`
}
