package card

import (
	"errors"
	"fmt"
)

// ErrUnknownColor is returned when a color has no entry in the requirement table.
var ErrUnknownColor = errors.New("unknown color")

// Color is one of the property colors of the deck.
type Color string

const (
	Brown     Color = "brown"
	LightBlue Color = "light_blue"
	Pink      Color = "pink"
	Orange    Color = "orange"
	Red       Color = "red"
	Yellow    Color = "yellow"
	Green     Color = "green"
	DarkBlue  Color = "dark_blue"
	Black     Color = "black"
	Utility   Color = "utility"
)

// Fixed bonuses added to rent for a complete set carrying an upgrade.
const (
	HouseBonus = 3
	HotelBonus = 4
)

// Fixed demand amounts.
const (
	DebtCollectorAmount = 5
	BirthdayAmount      = 2
)

// Hand limits used by Pass Go.
const (
	MaxHandSize = 7
	PassGoDraw  = 2
)

type colorInfo struct {
	requirement int
	rent        []int
	upgradable  bool
}

// Static tables: never derived at runtime.
var colorTable = map[Color]colorInfo{
	Brown:     {2, []int{1, 2}, true},
	LightBlue: {3, []int{1, 2, 3}, true},
	Pink:      {3, []int{1, 2, 4}, true},
	Orange:    {3, []int{1, 3, 5}, true},
	Red:       {3, []int{2, 3, 6}, true},
	Yellow:    {3, []int{2, 4, 6}, true},
	Green:     {3, []int{2, 4, 7}, true},
	DarkBlue:  {2, []int{3, 8}, true},
	Black:     {4, []int{1, 2, 3, 4}, false},
	Utility:   {2, []int{1, 2}, false},
}

var colorOrder = []Color{Brown, LightBlue, Pink, Orange, Red, Yellow, Green, DarkBlue, Black, Utility}

// Colors returns every color in display order.
func Colors() []Color {
	out := make([]Color, len(colorOrder))
	copy(out, colorOrder)
	return out
}

func (c Color) Valid() bool {
	_, ok := colorTable[c]
	return ok
}

// Requirement returns the number of property cards that complete a set of c.
func (c Color) Requirement() (int, error) {
	info, ok := colorTable[c]
	if !ok {
		return 0, fmt.Errorf("requirement for %q: %w", c, ErrUnknownColor)
	}
	return info.requirement, nil
}

// RentSchedule returns rent indexed by owned card count minus one.
func (c Color) RentSchedule() ([]int, error) {
	info, ok := colorTable[c]
	if !ok {
		return nil, fmt.Errorf("rent schedule for %q: %w", c, ErrUnknownColor)
	}
	out := make([]int, len(info.rent))
	copy(out, info.rent)
	return out, nil
}

// Upgradable reports whether a House or Hotel may be placed on a set of c.
func (c Color) Upgradable() bool {
	return colorTable[c].upgradable
}
