// Package state holds the authoritative game snapshot and the reducer that
// swaps it in wholesale on every server push.
package state

import (
	"dealclient/internal/card"
	"dealclient/internal/holding"
)

// Player is one participant as seen in a snapshot.
type Player struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	Hand       []card.Card     `json:"hand"`
	Bank       []card.Card     `json:"bank"`
	Properties holding.Holding `json:"properties"`
}

// Snapshot is the full authoritative state. It is never mutated after decode.
type Snapshot struct {
	Players          []Player   `json:"players"`
	DeckCount        int        `json:"deck_count"`
	DiscardTop       *card.Card `json:"discard_top,omitempty"`
	CurrentTurn      string     `json:"current_turn"`
	ActionsRemaining int        `json:"actions_remaining"`
	Winner           string     `json:"winner,omitempty"`
	Tie              bool       `json:"tie,omitempty"`
}

// Player returns the player with id.
func (s *Snapshot) Player(id string) (*Player, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// Outcome describes whether the game has ended.
type Outcome struct {
	Winner string `json:"winner,omitempty"`
	Tie    bool   `json:"tie,omitempty"`
}

func (o Outcome) Over() bool { return o.Winner != "" || o.Tie }

// Outcome derives the terminal condition. A tie is flagged by the server or
// implied by an exhausted draw pile with every hand empty.
func (s *Snapshot) Outcome() Outcome {
	if s.Winner != "" {
		return Outcome{Winner: s.Winner}
	}
	if s.Tie {
		return Outcome{Tie: true}
	}
	if s.DeckCount > 0 || len(s.Players) == 0 {
		return Outcome{}
	}
	for _, p := range s.Players {
		if len(p.Hand) > 0 {
			return Outcome{}
		}
	}
	return Outcome{Tie: true}
}
