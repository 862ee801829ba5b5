package domain

import "math/rand"

// Lottery runs randomized entrant selection over waiting list entries.
// The RNG is injected so tests can pin the permutation.
type Lottery struct {
	rng *rand.Rand
}

// NewLottery creates a lottery backed by the given RNG source
func NewLottery(rng *rand.Rand) *Lottery {
	return &Lottery{rng: rng}
}

// Draw shuffles entries with a uniform permutation and assigns the first
// min(numSelect, len) entries SELECTED, the rest NOT_SELECTED. An empty
// slice is a no-op. Drawing twice reshuffles from scratch and reassigns
// every entry; use Reselect to keep responded entrants intact.
func (l *Lottery) Draw(entries []WaitingListEntry, numSelect int) {
	if len(entries) == 0 {
		return
	}
	l.rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	for i := range entries {
		if i < numSelect {
			entries[i].State = StateSelected
		} else {
			entries[i].State = StateNotSelected
		}
	}
}

// Reselect redraws only the entries still in play. ACCEPTED, DECLINED and
// CANCELED entrants keep their state and their spot; previously SELECTED
// entrants who have not yet responded also keep theirs. The pool is the
// ENTERED / NOT_SELECTED remnant, shuffled, with numSelect winners.
func (l *Lottery) Reselect(entries []WaitingListEntry, numSelect int) {
	pool := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.State == StateEntered || e.State == StateNotSelected {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		return
	}
	l.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	for rank, idx := range pool {
		if rank < numSelect {
			entries[idx].State = StateSelected
		} else {
			entries[idx].State = StateNotSelected
		}
	}
}
