package domain

// UnlimitedCapacity disables the capacity check on a waiting list
const UnlimitedCapacity = -1

// WaitingListEntry is one entrant's position and state on a waiting list
type WaitingListEntry struct {
	UserID string       `json:"user_id"`
	State  EntrantState `json:"state"`
}

// WaitingList holds the entrants of a single event. Entries keep their
// insertion order for display; lookups go through the state index so
// membership checks and updates stay O(1).
//
// A WaitingList belongs to exactly one event and is mutated only by that
// event's organizer flow, so it carries no internal locking.
type WaitingList struct {
	capacity int
	order    []string
	states   map[string]EntrantState
}

// NewWaitingList creates an empty waiting list. capacity < 0 means unlimited.
func NewWaitingList(capacity int) *WaitingList {
	if capacity < 0 {
		capacity = UnlimitedCapacity
	}
	return &WaitingList{
		capacity: capacity,
		states:   make(map[string]EntrantState),
	}
}

// RestoreWaitingList rebuilds a list from persisted entries. Duplicate
// user ids collapse to the first occurrence.
func RestoreWaitingList(capacity int, entries []WaitingListEntry) *WaitingList {
	wl := NewWaitingList(capacity)
	for _, e := range entries {
		if _, ok := wl.states[e.UserID]; ok {
			continue
		}
		wl.order = append(wl.order, e.UserID)
		wl.states[e.UserID] = e.State
	}
	return wl
}

// Capacity returns the configured capacity (-1 = unlimited)
func (wl *WaitingList) Capacity() int {
	return wl.capacity
}

// AddEntrant appends a new entrant in state ENTERED.
// Returns ErrAlreadyInList for duplicates and ErrCapacityExceeded when a
// finite-capacity list is full.
func (wl *WaitingList) AddEntrant(userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if _, ok := wl.states[userID]; ok {
		return ErrAlreadyInList
	}
	if wl.capacity != UnlimitedCapacity && len(wl.order) >= wl.capacity {
		return ErrCapacityExceeded
	}
	wl.order = append(wl.order, userID)
	wl.states[userID] = StateEntered
	return nil
}

// RemoveEntrant deletes the entrant's entry entirely.
// Returns ErrNotInList if the entrant is absent.
func (wl *WaitingList) RemoveEntrant(userID string) error {
	if _, ok := wl.states[userID]; !ok {
		return ErrNotInList
	}
	delete(wl.states, userID)
	for i, id := range wl.order {
		if id == userID {
			wl.order = append(wl.order[:i], wl.order[i+1:]...)
			break
		}
	}
	return nil
}

// CheckEntrant reports whether the entrant has an entry
func (wl *WaitingList) CheckEntrant(userID string) bool {
	_, ok := wl.states[userID]
	return ok
}

// StateOf returns the entrant's state, or NOT_IN if absent
func (wl *WaitingList) StateOf(userID string) EntrantState {
	if s, ok := wl.states[userID]; ok {
		return s
	}
	return StateNotIn
}

// UpdateEntrantState replaces the entrant's state in place, preserving
// position. Returns false if the entrant is absent; used for best-effort
// updates where a miss is not an error.
func (wl *WaitingList) UpdateEntrantState(userID string, state EntrantState) bool {
	if _, ok := wl.states[userID]; !ok {
		return false
	}
	wl.states[userID] = state
	return true
}

// Transition moves the entrant along the state table, rejecting anything
// not in it with ErrIllegalTransition.
func (wl *WaitingList) Transition(userID string, to EntrantState) error {
	from, ok := wl.states[userID]
	if !ok {
		return ErrNotInList
	}
	if !to.IsValid() || to == StateNotIn {
		return ErrUnknownState
	}
	if !CanTransition(from, to) {
		return ErrIllegalTransition
	}
	wl.states[userID] = to
	return nil
}

// NumEntrants returns the count of valid entries
func (wl *WaitingList) NumEntrants() int {
	return len(wl.order)
}

// Entries returns the entries in insertion order
func (wl *WaitingList) Entries() []WaitingListEntry {
	out := make([]WaitingListEntry, 0, len(wl.order))
	for _, id := range wl.order {
		out = append(out, WaitingListEntry{UserID: id, State: wl.states[id]})
	}
	return out
}

// SetEntries replaces all entry states from a drawn slice, preserving only
// ids already on the list. Used to fold lottery results back in.
func (wl *WaitingList) SetEntries(entries []WaitingListEntry) {
	for _, e := range entries {
		if _, ok := wl.states[e.UserID]; ok {
			wl.states[e.UserID] = e.State
		}
	}
}

// UsersOnly returns all entrant ids in insertion order
func (wl *WaitingList) UsersOnly() []string {
	out := make([]string, len(wl.order))
	copy(out, wl.order)
	return out
}

// SelectedEntrants returns the ids currently in state SELECTED
func (wl *WaitingList) SelectedEntrants() []string {
	return wl.entrantsIn(StateSelected)
}

// EntrantsIn returns the ids currently in the given state
func (wl *WaitingList) EntrantsIn(state EntrantState) []string {
	return wl.entrantsIn(state)
}

func (wl *WaitingList) entrantsIn(state EntrantState) []string {
	var out []string
	for _, id := range wl.order {
		if wl.states[id] == state {
			out = append(out, id)
		}
	}
	return out
}
