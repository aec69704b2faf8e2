package policy

import "github.com/parleyhq/parley/internal/domain"

// selectNextSlot picks the slot to clarify next when a constraint search
// left more than one candidate. columns maps each non-primary-key result
// column to its values across all candidates.
//
// Non-binary requestable slots are scanned first in domain-declared order;
// the first one whose observed values still differ between candidates is
// asked about. If none discriminates, the binary slot whose two values split
// the candidates most evenly wins: without labeled outcomes an even split is
// the best available proxy for information gain. Returns "" when nothing is
// left to discriminate.
//
// The split counts are recomputed over the full result set each turn, which
// is fine at catalog sizes but would want caching on large result sets.
func selectNextSlot(ks domain.KnowledgeSource, columns map[string][]string, constraints map[string]string, dontcare map[string]bool) string {
	var binary, nonBinary []string
	for _, slot := range ks.SystemRequestableSlots() {
		if _, ok := constraints[slot]; ok {
			continue
		}
		if dontcare[slot] {
			continue
		}
		if len(ks.PossibleValues(slot)) == 2 {
			binary = append(binary, slot)
		} else {
			nonBinary = append(nonBinary, slot)
		}
	}

	for _, slot := range nonBinary {
		if distinctCount(columns[slot]) > 1 {
			return slot
		}
	}
	return bestBinarySplit(ks, binary, columns)
}

func distinctCount(values []string) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}

// bestBinarySplit returns the binary slot with the smallest absolute count
// difference between its two values across the candidates. Slots where only
// one value occurs cannot split the set and are skipped; ties go to the slot
// declared earlier by the domain.
func bestBinarySplit(ks domain.KnowledgeSource, binary []string, columns map[string][]string) string {
	best := ""
	bestDiff := 0
	for _, slot := range binary {
		possible := ks.PossibleValues(slot)
		if len(possible) != 2 {
			continue
		}
		var first, second int
		for _, v := range columns[slot] {
			switch v {
			case possible[0]:
				first++
			case possible[1]:
				second++
			}
		}
		if first == 0 || second == 0 {
			continue
		}
		diff := first - second
		if diff < 0 {
			diff = -diff
		}
		if best == "" || diff < bestDiff {
			best, bestDiff = slot, diff
		}
	}
	return best
}
