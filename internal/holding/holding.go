// Package holding splits a player's property holding into main sets and
// overflow and answers the completeness questions every theft, swap and
// upgrade action depends on.
package holding

import (
	"fmt"

	"dealclient/internal/card"
)

// Holding maps a color to the cards placed under it, in placement order.
type Holding map[card.Color][]card.Card

// Group is either the main set or the overflow of one color.
type Group struct {
	Color       card.Color  `json:"color"`
	Overflow    bool        `json:"overflow"`
	Requirement int         `json:"requirement"`
	Cards       []card.Card `json:"cards"`
}

// PropertyCount counts property cards, ignoring House and Hotel.
func (g Group) PropertyCount() int {
	n := 0
	for _, c := range g.Cards {
		if c.IsProperty() {
			n++
		}
	}
	return n
}

// Complete reports whether the group meets its color's requirement.
func (g Group) Complete() bool {
	return g.Requirement > 0 && g.PropertyCount() >= g.Requirement
}

func (g Group) HasHouse() bool { return g.has(card.Card.IsHouse) }
func (g Group) HasHotel() bool { return g.has(card.Card.IsHotel) }

func (g Group) has(pred func(card.Card) bool) bool {
	for _, c := range g.Cards {
		if pred(c) {
			return true
		}
	}
	return false
}

// IDs returns the ids of every card in the group.
func (g Group) IDs() []string {
	ids := make([]string, len(g.Cards))
	for i, c := range g.Cards {
		ids[i] = c.ID
	}
	return ids
}

// Sets is the derived partition of one holding. Every known color has an
// entry in both maps, possibly empty.
type Sets struct {
	Main     map[card.Color]Group
	Overflow map[card.Color]Group
}

// Partition splits h per color: the first Requirement property cards plus
// the first House and first Hotel form the main set; everything else is
// overflow. Colors keyed in h that have no requirement are an error.
func Partition(h Holding) (Sets, error) {
	sets := Sets{
		Main:     make(map[card.Color]Group, len(card.Colors())),
		Overflow: make(map[card.Color]Group, len(card.Colors())),
	}
	for _, color := range card.Colors() {
		req, _ := color.Requirement()
		sets.Main[color] = Group{Color: color, Requirement: req}
		sets.Overflow[color] = Group{Color: color, Overflow: true, Requirement: req}
	}

	for color, cards := range h {
		req, err := color.Requirement()
		if err != nil {
			return Sets{}, fmt.Errorf("partition: %w", err)
		}
		main := Group{Color: color, Requirement: req}
		over := Group{Color: color, Overflow: true, Requirement: req}
		var props int
		var house, hotel bool
		for _, c := range cards {
			switch {
			case c.IsProperty():
				if props < req {
					main.Cards = append(main.Cards, c)
				} else {
					over.Cards = append(over.Cards, c)
				}
				props++
			case c.IsHouse() && !house:
				house = true
				main.Cards = append(main.Cards, c)
			case c.IsHotel() && !hotel:
				hotel = true
				main.Cards = append(main.Cards, c)
			default:
				over.Cards = append(over.Cards, c)
			}
		}
		sets.Main[color] = main
		sets.Overflow[color] = over
	}
	return sets, nil
}

// Groups returns every non-empty group, main before overflow, in color order.
func (s Sets) Groups() []Group {
	var out []Group
	for _, color := range card.Colors() {
		if g := s.Main[color]; len(g.Cards) > 0 {
			out = append(out, g)
		}
		if g := s.Overflow[color]; len(g.Cards) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// CompleteGroups returns every complete main or overflow group.
func (s Sets) CompleteGroups() []Group {
	var out []Group
	for _, g := range s.Groups() {
		if g.Complete() {
			out = append(out, g)
		}
	}
	return out
}

// Raidable returns the property cards that sit in incomplete groups and may
// therefore be stolen or swapped.
func (s Sets) Raidable() []card.Card {
	var out []card.Card
	for _, g := range s.Groups() {
		if g.Complete() {
			continue
		}
		for _, c := range g.Cards {
			if c.IsProperty() {
				out = append(out, c)
			}
		}
	}
	return out
}

// Locate returns the group containing card id.
func (s Sets) Locate(id string) (Group, bool) {
	for _, g := range s.Groups() {
		for _, c := range g.Cards {
			if c.ID == id {
				return g, true
			}
		}
	}
	return Group{}, false
}

// PropertyCount counts property cards of color across the whole holding.
func (h Holding) PropertyCount(color card.Color) int {
	n := 0
	for _, c := range h[color] {
		if c.IsProperty() {
			n++
		}
	}
	return n
}

// Owns reports whether at least one property card sits under color.
func (h Holding) Owns(color card.Color) bool {
	return h.PropertyCount(color) > 0
}
