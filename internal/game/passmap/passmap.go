// Package passmap builds the per-game hand-off order: a single rotation over
// all players in which nobody passes to themselves.
package passmap

import (
	"errors"
	"math/rand/v2"
)

// MinPlayers is the smallest group a pass map can be built for.
const MinPlayers = 2

var (
	ErrTooFewPlayers = errors.New("passmap: at least 2 players are required")
	ErrDuplicateID   = errors.New("passmap: player ids must be unique")
)

// Generate shuffles ids and maps every player to the one after it, wrapping
// the last back to the first. The result is one cycle covering every id.
// A nil rng uses the global source.
func Generate(ids []string, rng *rand.Rand) (map[string]string, error) {
	if len(ids) < MinPlayers {
		return nil, ErrTooFewPlayers
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateID
		}
		seen[id] = struct{}{}
	}

	order := append([]string(nil), ids...)
	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }
	if rng != nil {
		rng.Shuffle(len(order), swap)
	} else {
		rand.Shuffle(len(order), swap)
	}

	m := make(map[string]string, len(order))
	for i, id := range order {
		m[id] = order[(i+1)%len(order)]
	}
	return m, nil
}

// FromOrder builds the pass map for an already fixed order, without shuffling.
func FromOrder(order ...string) map[string]string {
	m := make(map[string]string, len(order))
	for i, id := range order {
		m[id] = order[(i+1)%len(order)]
	}
	return m
}

// CycleLength follows m from start until it returns to start. It returns 0
// if the walk leaves the map or loops without coming back.
func CycleLength(m map[string]string, start string) int {
	cur := start
	for steps := 1; steps <= len(m); steps++ {
		next, ok := m[cur]
		if !ok {
			return 0
		}
		if next == start {
			return steps
		}
		cur = next
	}
	return 0
}
