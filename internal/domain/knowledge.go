package domain

import "context"

// Record is one row returned by a knowledge-source lookup: a mapping from
// slot name to value. Every record carries the domain's primary-key field.
type Record map[string]string

// KnowledgeSource is the domain adapter the policy queries. Slot metadata is
// static per domain; lookups may hit external storage and take a context.
type KnowledgeSource interface {
	// Name identifies the knowledge domain (e.g. "courses").
	Name() string
	// PrimaryKey returns the slot that uniquely identifies an entity.
	PrimaryKey() string
	// SystemRequestableSlots returns, in domain-declared order, the slots
	// the system may proactively ask the user about.
	SystemRequestableSlots() []string
	// PossibleValues returns the candidate values for a slot. A slot with
	// exactly two possible values is treated as binary by the slot selector.
	PossibleValues(slot string) []string
	// FindEntities returns all entities matching the given constraints.
	FindEntities(ctx context.Context, constraints map[string]string) ([]Record, error)
	// FindInfoAboutEntity returns the requested slots (plus the primary key)
	// for the entity with the given identifier.
	FindInfoAboutEntity(ctx context.Context, id string, requested []string) ([]Record, error)
}

// PolicyStrategy decides the next system action for one dialog turn. A
// strategy instance belongs to a single session and owns its cross-turn
// browsing state; callers must serialize turns per instance.
type PolicyStrategy interface {
	Decide(ctx context.Context, turn int, bs *BeliefState, acts []UserAct) (*SysAct, error)
}
