package policy

import (
	"testing"

	"github.com/parleyhq/parley/internal/domain"
)

func TestRelevantActTypes_LoneFillerKept(t *testing.T) {
	types := relevantActTypes([]domain.UserAct{{Type: domain.UserActHello}})
	if len(types) != 1 || !types[domain.UserActHello] {
		t.Fatalf("expected a lone greeting to survive, got %v", types)
	}
}

func TestRelevantActTypes_FillerDroppedNextToContent(t *testing.T) {
	types := relevantActTypes([]domain.UserAct{
		{Type: domain.UserActHello},
		{Type: domain.UserActInform, Slot: "semester", Value: "winter"},
	})
	if types[domain.UserActHello] {
		t.Fatal("expected the greeting to be suppressed")
	}
	if !types[domain.UserActInform] {
		t.Fatal("expected the inform to survive")
	}
}

func TestRelevantActTypes_OnlyOneFillerDropped(t *testing.T) {
	// bad outranks thanks; thanks stays even though it is also a filler
	types := relevantActTypes([]domain.UserAct{
		{Type: domain.UserActBad},
		{Type: domain.UserActThanks},
	})
	if types[domain.UserActBad] {
		t.Fatal("expected bad to be suppressed first")
	}
	if !types[domain.UserActThanks] {
		t.Fatal("expected thanks to survive")
	}
}

func TestRelevantActTypes_DuplicatesCollapse(t *testing.T) {
	types := relevantActTypes([]domain.UserAct{
		{Type: domain.UserActInform, Slot: "semester", Value: "winter"},
		{Type: domain.UserActInform, Slot: "language", Value: "en"},
	})
	if len(types) != 1 || !types[domain.UserActInform] {
		t.Fatalf("expected one distinct type, got %v", types)
	}
}

func TestRelevantActTypes_Empty(t *testing.T) {
	if types := relevantActTypes(nil); len(types) != 0 {
		t.Fatalf("expected no types, got %v", types)
	}
}
