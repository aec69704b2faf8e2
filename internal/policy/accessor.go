package policy

import (
	"sort"

	"github.com/parleyhq/parley/internal/domain"
)

// activeValue returns the most probable value with probability above zero,
// skipping any excluded sentinels. Several values above zero at once is an
// upstream-tracker ambiguity; the arg-max is taken rather than relying on
// map iteration order, with ties broken toward the lexicographically smaller
// value so repeated reads agree.
func activeValue(dist map[string]float64, exclude ...string) string {
	best := ""
	bestProb := 0.0
	for val, prob := range dist {
		if prob <= 0 || excluded(val, exclude) {
			continue
		}
		if prob > bestProb || (prob == bestProb && best != "" && val < best) {
			best, bestProb = val, prob
		}
	}
	return best
}

func excluded(val string, exclude []string) bool {
	for _, e := range exclude {
		if val == e {
			return true
		}
	}
	return false
}

// activeMethod reads the query mode the user is currently in. An absent or
// zeroed-out method distribution reads as MethodNone.
func activeMethod(bs *domain.BeliefState) domain.Method {
	m := activeValue(bs.Distribution(domain.SlotMethod))
	if m == "" {
		return domain.MethodNone
	}
	return domain.Method(m)
}

// activeConstraints extracts the slot/value constraints the user has
// committed to and the set of slots they declared irrelevant. Reserved slots
// and the primary key never yield constraints; the **NONE** sentinel is
// ignored and zero-probability values are never emitted. A slot can appear
// in both maps when the tracker holds mass on dontcare and a concrete value.
// The belief state is never mutated.
func activeConstraints(bs *domain.BeliefState, primaryKey string) (map[string]string, map[string]bool) {
	constraints := make(map[string]string)
	dontcare := make(map[string]bool)
	if bs == nil {
		return constraints, dontcare
	}
	for slot, dist := range bs.Beliefs {
		switch slot {
		case domain.SlotRequested, domain.SlotDiscourseAct, domain.SlotMethod, primaryKey:
			continue
		}
		if prob, ok := dist[domain.ValueDontCare]; ok && prob > 0 {
			dontcare[slot] = true
		}
		if val := activeValue(dist, domain.ValueNone, domain.ValueDontCare); val != "" {
			constraints[slot] = val
		}
	}
	return constraints, dontcare
}

// requestedSlots lists the slots the user asked to hear about, sorted so the
// lookup projection and inform ordering are deterministic.
func requestedSlots(bs *domain.BeliefState) []string {
	var slots []string
	for slot, prob := range bs.Distribution(domain.SlotRequested) {
		if prob > 0 && slot != domain.ValueNone {
			slots = append(slots, slot)
		}
	}
	sort.Strings(slots)
	return slots
}

// openSlot returns the first system-requestable slot the user has not yet
// constrained, used to keep a greeting-only turn moving. Empty when every
// requestable slot is filled.
func openSlot(bs *domain.BeliefState, ks domain.KnowledgeSource) string {
	constraints, _ := activeConstraints(bs, ks.PrimaryKey())
	for _, slot := range ks.SystemRequestableSlots() {
		if _, ok := constraints[slot]; !ok {
			return slot
		}
	}
	return ""
}
