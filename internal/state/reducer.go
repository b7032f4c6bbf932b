package state

import (
	"fmt"
	"sync"
	"sync/atomic"

	"dealclient/internal/holding"
)

// View is everything derived from one snapshot for the local player. A View
// is built once per snapshot and never patched.
type View struct {
	Snapshot  *Snapshot
	SelfID    string
	Self      *Player
	Opponents []string

	sets map[string]holding.Sets
}

// Derive builds a View of snap for player self.
func Derive(snap *Snapshot, self string) (*View, error) {
	v := &View{
		Snapshot: snap,
		SelfID:   self,
		sets:     make(map[string]holding.Sets, len(snap.Players)),
	}
	for i := range snap.Players {
		p := &snap.Players[i]
		sets, err := holding.Partition(p.Properties)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.ID, err)
		}
		v.sets[p.ID] = sets
		if p.ID == self {
			v.Self = p
		} else {
			v.Opponents = append(v.Opponents, p.ID)
		}
	}
	return v, nil
}

// Sets returns the partition of player id's holding.
func (v *View) Sets(id string) (holding.Sets, bool) {
	s, ok := v.sets[id]
	return s, ok
}

// Player returns a player of the underlying snapshot.
func (v *View) Player(id string) (*Player, bool) {
	return v.Snapshot.Player(id)
}

// IsMyTurn reports whether the local player holds the turn.
func (v *View) IsMyTurn() bool {
	return v.Self != nil && v.Snapshot.CurrentTurn == v.SelfID
}

// Reducer owns the single working snapshot. Readers get the latest View
// without locking; Apply replaces it atomically.
type Reducer struct {
	self       string
	onTerminal func(Outcome)

	mu       sync.Mutex
	current  atomic.Pointer[View]
	terminal Outcome
}

// NewReducer creates a reducer for the local player self. onTerminal is
// called once per transition into a winner or tie condition.
func NewReducer(self string, onTerminal func(Outcome)) *Reducer {
	return &Reducer{self: self, onTerminal: onTerminal}
}

// Apply makes snap the entire working state and returns its View. A snapshot
// that cannot be derived is rejected and the previous state is kept.
func (r *Reducer) Apply(snap Snapshot) (*View, error) {
	v, err := Derive(&snap, r.self)
	if err != nil {
		return nil, fmt.Errorf("apply snapshot: %w", err)
	}

	r.mu.Lock()
	r.current.Store(v)
	outcome := snap.Outcome()
	fire := outcome.Over() && outcome != r.terminal
	r.terminal = outcome
	r.mu.Unlock()

	if fire && r.onTerminal != nil {
		r.onTerminal(outcome)
	}
	return v, nil
}

// Current returns the latest View, or nil before the first snapshot.
func (r *Reducer) Current() *View {
	return r.current.Load()
}
