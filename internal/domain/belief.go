package domain

// Sentinel values used inside per-slot belief distributions.
const (
	ValueNone     = "**NONE**"
	ValueDontCare = "dontcare"
)

// Reserved belief-state slots that never hold user constraints.
const (
	SlotRequested    = "requested"
	SlotMethod       = "method"
	SlotDiscourseAct = "discourseAct"
)

// Method is the user's current query mode, tracked as a distribution in the
// reserved "method" slot.
type Method string

const (
	MethodNone           Method = "none"
	MethodByPrimaryKey   Method = "byprimarykey"
	MethodByConstraints  Method = "byconstraints"
	MethodByAlternatives Method = "byalternatives"
)

// SystemMemory holds the cross-turn fields the decision core is allowed to
// write back into the belief state. Everything else in BeliefState is owned
// by the belief-update collaborator.
type SystemMemory struct {
	LastInformedPrimKeyVal string `json:"last_informed_prim_key_val,omitempty"`
	LastRequestSlot        string `json:"last_request_slot,omitempty"`
}

// BeliefState is a per-slot probability distribution over candidate values,
// summarizing system confidence about user goals. It is supplied fresh each
// turn by the belief tracker; the core reads it and writes only System.
type BeliefState struct {
	Beliefs map[string]map[string]float64 `json:"beliefs"`
	System  SystemMemory                  `json:"system"`
}

// NewBeliefState returns an empty belief state with an initialized slot map.
func NewBeliefState() *BeliefState {
	return &BeliefState{Beliefs: make(map[string]map[string]float64)}
}

// Distribution returns the value distribution for a slot, or nil if the slot
// is not tracked.
func (b *BeliefState) Distribution(slot string) map[string]float64 {
	if b == nil || b.Beliefs == nil {
		return nil
	}
	return b.Beliefs[slot]
}

// SetBelief assigns a probability to a candidate value of a slot, creating
// the distribution if needed. Convenience for tests and embedders.
func (b *BeliefState) SetBelief(slot, value string, prob float64) {
	if b.Beliefs == nil {
		b.Beliefs = make(map[string]map[string]float64)
	}
	dist, ok := b.Beliefs[slot]
	if !ok {
		dist = make(map[string]float64)
		b.Beliefs[slot] = dist
	}
	dist[value] = prob
}
