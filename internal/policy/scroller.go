package policy

import "github.com/parleyhq/parley/internal/domain"

// suggestions holds the ordered candidates of the last successful constraint
// search and a forward-only cursor used when the user browses alternatives.
// The list is replaced by the next successful search, never rewound.
type suggestions struct {
	items []domain.Record
	index int
}

// replace installs a fresh candidate list with the cursor on the first entry.
func (s *suggestions) replace(items []domain.Record) {
	s.items = items
	s.index = 0
}

// seed installs candidates so that the next advance lands on the first entry.
func (s *suggestions) seed(items []domain.Record) {
	s.items = items
	s.index = -1
}

func (s *suggestions) empty() bool {
	return len(s.items) == 0
}

// current returns the record under the cursor, if the cursor is in bounds.
func (s *suggestions) current() (domain.Record, bool) {
	if s.index >= 0 && s.index < len(s.items) {
		return s.items[s.index], true
	}
	return nil, false
}

// advance moves the cursor forward one entry. first reports a landing on the
// opening entry. When the list is exhausted, ok is false and the cursor
// clamps to the last entry so repeated advances stay put.
func (s *suggestions) advance() (rec domain.Record, first, ok bool) {
	s.index++
	if s.index < len(s.items) {
		return s.items[s.index], s.index == 0, true
	}
	s.index = len(s.items) - 1
	return nil, false, false
}
