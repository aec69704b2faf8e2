package policy

import (
	"testing"

	"github.com/parleyhq/parley/internal/catalog"
)

func selectorSource() *catalog.MemorySource {
	return catalog.NewMemorySource(catalog.Config{
		Name:       "courses",
		PrimaryKey: "name",
		Slots: []catalog.SlotConfig{
			{Name: "name"},
			{Name: "lecturer", SystemRequestable: true},
			{Name: "semester", SystemRequestable: true, PossibleValues: []string{"winter", "summer"}},
			{Name: "language", SystemRequestable: true, PossibleValues: []string{"de", "en"}},
			{Name: "graded", SystemRequestable: true, PossibleValues: []string{"no", "yes"}},
		},
	})
}

func TestSelectNextSlot_NonBinaryFirst(t *testing.T) {
	ks := selectorSource()
	columns := map[string][]string{
		"lecturer": {"vu", "pado"},
		"semester": {"winter", "summer"},
	}

	got := selectNextSlot(ks, columns, nil, nil)
	if got != "lecturer" {
		t.Fatalf("expected the non-binary slot to win, got %q", got)
	}
}

func TestSelectNextSlot_ConstrainedSlotsSkipped(t *testing.T) {
	ks := selectorSource()
	columns := map[string][]string{
		"lecturer": {"vu", "pado"},
		"semester": {"winter", "summer"},
	}
	constraints := map[string]string{"lecturer": "vu"}

	got := selectNextSlot(ks, columns, constraints, nil)
	if got != "semester" {
		t.Fatalf("expected semester once lecturer is constrained, got %q", got)
	}
}

func TestSelectNextSlot_DontCareSkipped(t *testing.T) {
	ks := selectorSource()
	columns := map[string][]string{
		"lecturer": {"vu", "vu"},
		"semester": {"winter", "summer"},
		"language": {"de", "en"},
	}
	dontcare := map[string]bool{"semester": true}

	got := selectNextSlot(ks, columns, nil, dontcare)
	if got != "language" {
		t.Fatalf("expected language when semester is dontcare, got %q", got)
	}
}

func TestSelectNextSlot_EvenBinarySplitWins(t *testing.T) {
	ks := selectorSource()
	// semester splits 3/1, language 2/2: language narrows the set better
	// even though semester is declared earlier
	columns := map[string][]string{
		"lecturer": {"vu", "vu", "vu", "vu"},
		"semester": {"winter", "winter", "winter", "summer"},
		"language": {"de", "de", "en", "en"},
		"graded":   {"yes", "yes", "yes", "yes"},
	}

	got := selectNextSlot(ks, columns, nil, nil)
	if got != "language" {
		t.Fatalf("expected the most even binary split, got %q", got)
	}
}

func TestSelectNextSlot_OneSidedBinarySkipped(t *testing.T) {
	ks := selectorSource()
	// graded cannot split the candidates at all
	columns := map[string][]string{
		"lecturer": {"vu", "vu"},
		"graded":   {"yes", "yes"},
	}

	got := selectNextSlot(ks, columns, nil, nil)
	if got != "" {
		t.Fatalf("expected no slot, got %q", got)
	}
}

func TestSelectNextSlot_BinaryTieGoesToDeclarationOrder(t *testing.T) {
	ks := selectorSource()
	columns := map[string][]string{
		"lecturer": {"vu", "vu"},
		"semester": {"winter", "summer"},
		"language": {"de", "en"},
	}

	got := selectNextSlot(ks, columns, nil, nil)
	if got != "semester" {
		t.Fatalf("expected the earlier-declared slot on a tie, got %q", got)
	}
}
