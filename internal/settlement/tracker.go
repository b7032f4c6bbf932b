// Package settlement tracks demands that several players must answer and the
// local player's own outstanding obligation.
package settlement

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotObligated is returned when a payment names a player the demand does
// not obligate.
var ErrNotObligated = errors.New("player is not obligated by this demand")

// Tracker follows one multi-recipient demand until every payer has settled.
type Tracker struct {
	DemandID  string
	Recipient string
	Amount    int
	Created   time.Time

	obligated []string
	paid      map[string]struct{}
}

// NewTracker creates a tracker for the distinct payers in obligated,
// excluding the recipient.
func NewTracker(demandID, recipient string, obligated []string, amount int, now time.Time) *Tracker {
	t := &Tracker{
		DemandID:  demandID,
		Recipient: recipient,
		Amount:    amount,
		Created:   now,
		paid:      make(map[string]struct{}),
	}
	seen := make(map[string]struct{}, len(obligated))
	for _, id := range obligated {
		if id == recipient {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t.obligated = append(t.obligated, id)
	}
	return t
}

// Settle records that payer has paid or countered. Duplicates are absorbed.
func (t *Tracker) Settle(payer string) (changed bool, err error) {
	if !t.obligates(payer) {
		return false, fmt.Errorf("demand %s, payer %s: %w", t.DemandID, payer, ErrNotObligated)
	}
	if _, ok := t.paid[payer]; ok {
		return false, nil
	}
	t.paid[payer] = struct{}{}
	return true, nil
}

func (t *Tracker) obligates(id string) bool {
	for _, o := range t.obligated {
		if o == id {
			return true
		}
	}
	return false
}

// Total is the number of obligated payers.
func (t *Tracker) Total() int { return len(t.obligated) }

// PaidCount is the number of distinct payers that have settled.
func (t *Tracker) PaidCount() int { return len(t.paid) }

// Resolved reports whether every obligated payer has settled.
func (t *Tracker) Resolved() bool { return len(t.paid) == len(t.obligated) }

// Waiting lists obligated payers that have not settled, in demand order.
func (t *Tracker) Waiting() []string {
	var out []string
	for _, id := range t.obligated {
		if _, ok := t.paid[id]; ok || id == t.Recipient {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Obligated returns every payer named by the demand.
func (t *Tracker) Obligated() []string {
	out := make([]string, len(t.obligated))
	copy(out, t.obligated)
	return out
}
