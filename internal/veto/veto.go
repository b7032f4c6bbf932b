// Package veto runs the counter-card negotiation: the initiator's side holds
// an action until its target declines, counters or the window expires; the
// target's side asks the local player whether to play the counter-card.
package veto

import (
	"errors"

	"dealclient/internal/card"
	"dealclient/internal/state"
)

var (
	// ErrChainedVeto is returned for a solicitation against a counter-card.
	ErrChainedVeto = errors.New("countering a counter-card is not supported")
	// ErrUnknownWindow is returned for a response to a window that is not open.
	ErrUnknownWindow = errors.New("no open veto window")
)

// Outcome is how a veto window closed.
type Outcome string

const (
	Declined  Outcome = "declined"
	Countered Outcome = "countered"
	TimedOut  Outcome = "timed_out"
	Cancelled Outcome = "cancelled"
)

// Proceed reports whether the held action should now be sent.
func (o Outcome) Proceed() bool { return o == Declined || o == TimedOut }

// FindCounterCard returns the first counter-card in p's hand.
func FindCounterCard(p *state.Player) (card.Card, bool) {
	if p == nil {
		return card.Card{}, false
	}
	for _, c := range p.Hand {
		if c.IsCounter() {
			return c, true
		}
	}
	return card.Card{}, false
}
