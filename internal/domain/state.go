package domain

import "fmt"

// EntrantState is the lifecycle state of an entrant on a waiting list
type EntrantState string

const (
	// StateNotIn is the sentinel for "no entry exists". It is returned by
	// lookups that miss and is never stored in a list.
	StateNotIn EntrantState = "NOT_IN"

	StateEntered     EntrantState = "ENTERED"
	StateSelected    EntrantState = "SELECTED"
	StateNotSelected EntrantState = "NOT_SELECTED"
	StateAccepted    EntrantState = "ACCEPTED"
	StateDeclined    EntrantState = "DECLINED"
	StateCanceled    EntrantState = "CANCELED"
)

// String returns the state name
func (s EntrantState) String() string {
	return string(s)
}

// IsValid reports whether s is a known state
func (s EntrantState) IsValid() bool {
	switch s {
	case StateNotIn, StateEntered, StateSelected, StateNotSelected,
		StateAccepted, StateDeclined, StateCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether s is excluded from reselection pools
func (s EntrantState) IsTerminal() bool {
	switch s {
	case StateAccepted, StateDeclined, StateCanceled:
		return true
	}
	return false
}

// ParseEntrantState converts a stored string into an EntrantState
func ParseEntrantState(v string) (EntrantState, error) {
	s := EntrantState(v)
	if !s.IsValid() {
		return StateNotIn, fmt.Errorf("%w: %q", ErrUnknownState, v)
	}
	return s, nil
}

// legalTransitions is the full join -> lottery -> confirm state table.
// Anything not listed is a design error and must be rejected.
var legalTransitions = map[EntrantState][]EntrantState{
	StateEntered:     {StateSelected, StateNotSelected},
	StateSelected:    {StateAccepted, StateDeclined},
	StateAccepted:    {StateCanceled},
	StateDeclined:    {StateEntered},
	StateCanceled:    {StateEntered},
	StateNotSelected: {StateSelected, StateNotSelected},
}

// CanTransition reports whether from -> to is in the state table.
// Redraws may move NOT_SELECTED entries back into SELECTED.
func CanTransition(from, to EntrantState) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
