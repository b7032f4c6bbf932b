package card

import "slices"

// Type is the top-level discriminator of a card.
type Type string

const (
	TypeMoney    Type = "money"
	TypeProperty Type = "property"
	TypeAction   Type = "action"
)

// ActionKind identifies what an action card does when played.
type ActionKind string

const (
	ActionRent           ActionKind = "rent"
	ActionMulticolorRent ActionKind = "multicolor_rent"
	ActionDebtCollector  ActionKind = "debt_collector"
	ActionBirthday       ActionKind = "its_your_birthday"
	ActionSlyDeal        ActionKind = "sly_deal"
	ActionForcedDeal     ActionKind = "forced_deal"
	ActionDealBreaker    ActionKind = "deal_breaker"
	ActionPassGo         ActionKind = "pass_go"
	ActionHouse          ActionKind = "house"
	ActionHotel          ActionKind = "hotel"
	ActionDoubleRent     ActionKind = "double_the_rent"
	ActionJustSayNo      ActionKind = "just_say_no"
)

// Card is an immutable value identified by an ID unique within one game.
// Exactly one of the kind-specific field groups is meaningful, selected by Type.
type Card struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`
	Name string `json:"name,omitempty"`

	// Bank value. Every card type carries one.
	Value int `json:"value"`

	// Property fields. Colors holds every color the card may count as;
	// a wild carries more than one, a rainbow wild carries all of them.
	Colors []Color `json:"colors,omitempty"`
	Wild   bool    `json:"is_wild,omitempty"`

	// Action fields.
	Action     ActionKind `json:"action,omitempty"`
	RentColors []Color    `json:"rent_colors,omitempty"`
}

// Money builds a money card.
func Money(id string, value int) Card {
	return Card{ID: id, Type: TypeMoney, Value: value}
}

// Property builds a single-color property card.
func Property(id string, color Color) Card {
	return Card{ID: id, Type: TypeProperty, Colors: []Color{color}}
}

// WildProperty builds a property card that may count as any of colors.
func WildProperty(id string, colors ...Color) Card {
	return Card{ID: id, Type: TypeProperty, Colors: colors, Wild: true}
}

// Action builds an action card of the given kind.
func Action(id string, kind ActionKind) Card {
	return Card{ID: id, Type: TypeAction, Action: kind}
}

// Rent builds a two-color rent card.
func Rent(id string, colors ...Color) Card {
	return Card{ID: id, Type: TypeAction, Action: ActionRent, RentColors: colors}
}

func (c Card) IsProperty() bool { return c.Type == TypeProperty }
func (c Card) IsMoney() bool    { return c.Type == TypeMoney }

// Is reports whether c is an action card of kind k.
func (c Card) Is(k ActionKind) bool { return c.Type == TypeAction && c.Action == k }

func (c Card) IsHouse() bool { return c.Is(ActionHouse) }
func (c Card) IsHotel() bool { return c.Is(ActionHotel) }

// IsUpgrade reports whether c is a House or Hotel.
func (c Card) IsUpgrade() bool { return c.IsHouse() || c.IsHotel() }

// IsCounter reports whether c can veto an action directed at its holder.
func (c Card) IsCounter() bool { return c.Is(ActionJustSayNo) }

// HasColor reports whether a property card may count as color.
func (c Card) HasColor(color Color) bool {
	return c.IsProperty() && slices.Contains(c.Colors, color)
}

// CanCharge reports whether a rent card may charge rent on color.
func (c Card) CanCharge(color Color) bool {
	switch {
	case c.Is(ActionMulticolorRent):
		return color.Valid()
	case c.Is(ActionRent):
		return slices.Contains(c.RentColors, color)
	}
	return false
}

// Find returns the card with the given id from cards.
func Find(cards []Card, id string) (Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// FindAction returns the first card in cards that is an action of kind k.
func FindAction(cards []Card, k ActionKind) (Card, bool) {
	for _, c := range cards {
		if c.Is(k) {
			return c, true
		}
	}
	return Card{}, false
}
