package domain

import (
	"encoding/json"
	"fmt"
)

// UserActType tags one parsed unit of user intent.
type UserActType string

const (
	UserActInform              UserActType = "inform"
	UserActNegativeInform      UserActType = "negative_inform"
	UserActRequest             UserActType = "request"
	UserActHello               UserActType = "hello"
	UserActBye                 UserActType = "bye"
	UserActThanks              UserActType = "thanks"
	UserActAffirm              UserActType = "affirm"
	UserActDeny                UserActType = "deny"
	UserActRequestAlternatives UserActType = "request_alternatives"
	UserActConfirm             UserActType = "confirm"
	UserActBad                 UserActType = "bad"
)

// ValidUserActType reports whether s names a known user act type.
func ValidUserActType(s string) bool {
	switch UserActType(s) {
	case UserActInform, UserActNegativeInform, UserActRequest, UserActHello,
		UserActBye, UserActThanks, UserActAffirm, UserActDeny,
		UserActRequestAlternatives, UserActConfirm, UserActBad:
		return true
	}
	return false
}

// UserAct is one parsed unit of user intent for the turn, supplied by the
// NLU collaborator. Slot and Value are optional depending on Type.
type UserAct struct {
	Type  UserActType `json:"type"`
	Slot  string      `json:"slot,omitempty"`
	Value string      `json:"value,omitempty"`
	Score float64     `json:"score,omitempty"`
	Text  string      `json:"text,omitempty"`
}

// SysActType tags the engine's output action.
type SysActType string

const (
	SysActWelcome              SysActType = "welcome"
	SysActInformByName         SysActType = "inform_by_name"
	SysActInformByAlternatives SysActType = "inform_by_alternatives"
	SysActRequest              SysActType = "request"
	SysActConfirm              SysActType = "confirm"
	SysActSelect               SysActType = "select"
	SysActRequestMore          SysActType = "request_more"
	SysActBad                  SysActType = "bad"
	SysActBye                  SysActType = "bye"
)

// SysAct is the engine's output: an action type plus an ordered slot to
// values mapping. Insertion order of slots is preserved so the NLG
// collaborator renders fields in the order the policy chose them; a slot may
// accumulate multiple values.
type SysAct struct {
	Type   SysActType
	slots  []string
	values map[string][]string
}

// NewSysAct returns an empty act of the given type.
func NewSysAct(t SysActType) *SysAct {
	return &SysAct{Type: t, values: make(map[string][]string)}
}

// AddSlot registers a slot without a value (used by request acts).
func (a *SysAct) AddSlot(slot string) {
	if a.values == nil {
		a.values = make(map[string][]string)
	}
	if _, ok := a.values[slot]; !ok {
		a.slots = append(a.slots, slot)
		a.values[slot] = nil
	}
}

// AddValue appends a value to a slot, registering the slot if new.
func (a *SysAct) AddValue(slot, value string) {
	a.AddSlot(slot)
	a.values[slot] = append(a.values[slot], value)
}

// Values returns the values recorded for a slot, in insertion order.
func (a *SysAct) Values(slot string) []string {
	if a.values == nil {
		return nil
	}
	return a.values[slot]
}

// Slots returns the slot names in insertion order.
func (a *SysAct) Slots() []string {
	return a.slots
}

// sysActSlot is the wire form of one ordered slot entry.
type sysActSlot struct {
	Slot   string   `json:"slot"`
	Values []string `json:"values,omitempty"`
}

type sysActWire struct {
	Type  SysActType   `json:"type"`
	Slots []sysActSlot `json:"slots,omitempty"`
}

func (a *SysAct) MarshalJSON() ([]byte, error) {
	w := sysActWire{Type: a.Type}
	for _, slot := range a.slots {
		w.Slots = append(w.Slots, sysActSlot{Slot: slot, Values: a.values[slot]})
	}
	return json.Marshal(w)
}

func (a *SysAct) UnmarshalJSON(data []byte) error {
	var w sysActWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.Type = w.Type
	a.slots = nil
	a.values = make(map[string][]string)
	for _, s := range w.Slots {
		if len(s.Values) == 0 {
			a.AddSlot(s.Slot)
			continue
		}
		for _, v := range s.Values {
			a.AddValue(s.Slot, v)
		}
	}
	return nil
}

// String renders the act for logs, e.g. request(semester) or
// inform_by_name(name=NLP;ects=6).
func (a *SysAct) String() string {
	out := string(a.Type) + "("
	for i, slot := range a.slots {
		if i > 0 {
			out += ";"
		}
		out += slot
		if vals := a.values[slot]; len(vals) > 0 {
			out += "="
			for j, v := range vals {
				if j > 0 {
					out += ","
				}
				out += v
			}
		}
	}
	return out + ")"
}

var _ fmt.Stringer = (*SysAct)(nil)
