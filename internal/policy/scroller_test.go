package policy

import (
	"testing"

	"github.com/parleyhq/parley/internal/domain"
)

func TestSuggestions_ReplaceStartsOnFirst(t *testing.T) {
	var s suggestions
	s.replace([]domain.Record{{"name": "a"}, {"name": "b"}})

	rec, ok := s.current()
	if !ok || rec["name"] != "a" {
		t.Fatalf("expected cursor on first entry, got %v (ok=%v)", rec, ok)
	}
}

func TestSuggestions_SeedAdvancesOntoFirst(t *testing.T) {
	var s suggestions
	s.seed([]domain.Record{{"name": "a"}, {"name": "b"}})

	if _, ok := s.current(); ok {
		t.Fatal("expected no current entry before the first advance")
	}

	rec, first, ok := s.advance()
	if !ok || !first || rec["name"] != "a" {
		t.Fatalf("expected first advance to land on the opening entry, got %v (first=%v ok=%v)", rec, first, ok)
	}
}

func TestSuggestions_AdvanceClampsOnExhaustion(t *testing.T) {
	var s suggestions
	s.replace([]domain.Record{{"name": "a"}, {"name": "b"}})

	rec, first, ok := s.advance()
	if !ok || first || rec["name"] != "b" {
		t.Fatalf("expected second entry, got %v (first=%v ok=%v)", rec, first, ok)
	}

	// the cursor never rewinds and never runs past the end
	for i := 0; i < 3; i++ {
		if _, _, ok := s.advance(); ok {
			t.Fatal("expected exhaustion past the last entry")
		}
		rec, ok := s.current()
		if !ok || rec["name"] != "b" {
			t.Fatalf("expected cursor clamped to last entry, got %v (ok=%v)", rec, ok)
		}
	}
}

func TestSuggestions_Empty(t *testing.T) {
	var s suggestions
	if !s.empty() {
		t.Fatal("expected a zero-value list to be empty")
	}
	if _, _, ok := s.advance(); ok {
		t.Fatal("expected advance on an empty list to fail")
	}
	s.replace([]domain.Record{{"name": "a"}})
	if s.empty() {
		t.Fatal("expected a replaced list to be non-empty")
	}
}
