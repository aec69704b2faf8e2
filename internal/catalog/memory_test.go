package catalog

import (
	"context"
	"testing"

	"github.com/parleyhq/parley/internal/domain"
)

func testConfig() Config {
	return Config{
		Name:       "courses",
		PrimaryKey: "name",
		Slots: []SlotConfig{
			{Name: "name"},
			{Name: "semester", SystemRequestable: true, PossibleValues: []string{"winter", "summer"}},
			{Name: "lecturer", SystemRequestable: true},
			{Name: "room"},
		},
		Records: []domain.Record{
			{"name": "nlp", "semester": "winter", "lecturer": "vu", "room": "0.108"},
			{"name": "phonetics", "semester": "winter", "lecturer": "dogil", "room": "0.201"},
			{"name": "semantics", "semester": "summer", "lecturer": "pado"},
		},
	}
}

func TestMemorySource_Slots(t *testing.T) {
	s := NewMemorySource(testConfig())

	if s.Name() != "courses" || s.PrimaryKey() != "name" {
		t.Fatalf("unexpected identity: %s/%s", s.Name(), s.PrimaryKey())
	}

	requestable := s.SystemRequestableSlots()
	if len(requestable) != 2 || requestable[0] != "semester" || requestable[1] != "lecturer" {
		t.Fatalf("expected requestables in declaration order, got %v", requestable)
	}

	if vals := s.PossibleValues("semester"); len(vals) != 2 {
		t.Fatalf("expected two semester values, got %v", vals)
	}
	if vals := s.PossibleValues("nosuch"); vals != nil {
		t.Fatalf("expected nil for unknown slot, got %v", vals)
	}
}

func TestMemorySource_FindEntities(t *testing.T) {
	s := NewMemorySource(testConfig())
	ctx := context.Background()

	recs, err := s.FindEntities(ctx, map[string]string{"semester": "winter"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected two winter courses, got %d", len(recs))
	}

	recs, _ = s.FindEntities(ctx, map[string]string{"semester": "winter", "lecturer": "vu"})
	if len(recs) != 1 || recs[0]["name"] != "nlp" {
		t.Fatalf("expected only nlp, got %v", recs)
	}

	// no constraints matches everything
	recs, _ = s.FindEntities(ctx, nil)
	if len(recs) != 3 {
		t.Fatalf("expected the whole catalog, got %d", len(recs))
	}

	recs, _ = s.FindEntities(ctx, map[string]string{"semester": "spring"})
	if len(recs) != 0 {
		t.Fatalf("expected no matches, got %v", recs)
	}
}

func TestMemorySource_FindInfoAboutEntity(t *testing.T) {
	s := NewMemorySource(testConfig())
	ctx := context.Background()

	recs, err := s.FindInfoAboutEntity(ctx, "nlp", []string{"room", "nosuch"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	rec := recs[0]
	if rec["name"] != "nlp" {
		t.Fatalf("expected the primary key in the projection, got %v", rec)
	}
	if rec["room"] != "0.108" {
		t.Fatalf("expected the requested field, got %v", rec)
	}
	if _, ok := rec["nosuch"]; ok {
		t.Fatalf("expected unknown fields dropped from the projection, got %v", rec)
	}
	if _, ok := rec["lecturer"]; ok {
		t.Fatalf("expected unrequested fields dropped, got %v", rec)
	}

	recs, _ = s.FindInfoAboutEntity(ctx, "nosuch", nil)
	if len(recs) != 0 {
		t.Fatalf("expected no records for unknown entity, got %v", recs)
	}
}
