// Package ui is the boundary between the client core and whatever renders
// the game. The core only reports through these calls.
package ui

import (
	"context"
	"errors"
)

// ErrDismissed is returned by ShowChoiceDialog when the player closes the
// dialog without choosing.
var ErrDismissed = errors.New("dialog dismissed")

// Option is one selectable entry of a choice dialog.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Dialog asks the local player to pick one option.
type Dialog struct {
	Title   string   `json:"title"`
	Options []Option `json:"options"`
}

// Has reports whether id is one of the dialog's options.
func (d Dialog) Has(id string) bool {
	for _, o := range d.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// EventKind classifies a notification surfaced to the player.
type EventKind string

const (
	EventCountered  EventKind = "countered"
	EventSent       EventKind = "sent"
	EventStolen     EventKind = "property_stolen"
	EventSwapped    EventKind = "property_swap"
	EventDealBroken EventKind = "deal_breaker"
	EventPaid       EventKind = "paid"
	EventDemand     EventKind = "demand"
	EventCardPlayed EventKind = "card_played"
	EventGameOver   EventKind = "game_over"
)

// Event is a transient, dismissible notification.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
}

// Reporter is implemented by the presentation layer.
type Reporter interface {
	ReportError(message string)
	ReportEvent(e Event)
	ShowChoiceDialog(ctx context.Context, d Dialog) (string, error)
	// ShowWaitingIndicator lists the players a demand still waits on. An
	// empty list hides the indicator.
	ShowWaitingIndicator(recipients []string)
}
