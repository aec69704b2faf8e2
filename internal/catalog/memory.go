package catalog

import (
	"context"

	"github.com/parleyhq/parley/internal/domain"
)

// SlotConfig describes one slot of a catalog domain.
type SlotConfig struct {
	Name              string   `json:"name"`
	SystemRequestable bool     `json:"system_requestable"`
	PossibleValues    []string `json:"possible_values,omitempty"`
}

// Config describes an in-memory catalog domain.
type Config struct {
	Name       string          `json:"name"`
	PrimaryKey string          `json:"primary_key"`
	Slots      []SlotConfig    `json:"slots"`
	Records    []domain.Record `json:"records"`
}

// MemorySource is a KnowledgeSource backed by an in-process record list.
// Used in tests and by embedders of the decision core that do not run
// Postgres.
type MemorySource struct {
	cfg Config
}

var _ domain.KnowledgeSource = (*MemorySource)(nil)

func NewMemorySource(cfg Config) *MemorySource {
	return &MemorySource{cfg: cfg}
}

func (s *MemorySource) Name() string       { return s.cfg.Name }
func (s *MemorySource) PrimaryKey() string { return s.cfg.PrimaryKey }

func (s *MemorySource) SystemRequestableSlots() []string {
	var slots []string
	for _, sc := range s.cfg.Slots {
		if sc.SystemRequestable {
			slots = append(slots, sc.Name)
		}
	}
	return slots
}

func (s *MemorySource) PossibleValues(slot string) []string {
	for _, sc := range s.cfg.Slots {
		if sc.Name == slot {
			return sc.PossibleValues
		}
	}
	return nil
}

func (s *MemorySource) FindEntities(_ context.Context, constraints map[string]string) ([]domain.Record, error) {
	var out []domain.Record
	for _, rec := range s.cfg.Records {
		if matches(rec, constraints) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemorySource) FindInfoAboutEntity(_ context.Context, id string, requested []string) ([]domain.Record, error) {
	var out []domain.Record
	for _, rec := range s.cfg.Records {
		if rec[s.cfg.PrimaryKey] == id {
			out = append(out, project(rec, s.cfg.PrimaryKey, requested))
		}
	}
	return out, nil
}

func matches(rec domain.Record, constraints map[string]string) bool {
	for slot, val := range constraints {
		if rec[slot] != val {
			return false
		}
	}
	return true
}

// project narrows a record to the requested slots plus the primary key.
func project(rec domain.Record, primaryKey string, requested []string) domain.Record {
	out := domain.Record{primaryKey: rec[primaryKey]}
	for _, slot := range requested {
		if val, ok := rec[slot]; ok {
			out[slot] = val
		}
	}
	return out
}
