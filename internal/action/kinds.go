package action

import (
	"fmt"
	"strings"

	"dealclient/internal/card"
	"dealclient/internal/holding"
	"dealclient/internal/protocol"
	"dealclient/internal/state"
	"dealclient/internal/ui"
)

func baseMsg(p *Pending) protocol.ActionMsg {
	return protocol.ActionMsg{Action: string(p.Kind), Player: p.Initiator, Card: p.Card}
}

func groupKey(g holding.Group) string {
	if g.Overflow {
		return string(g.Color) + "/overflow"
	}
	return string(g.Color) + "/main"
}

func groupLabel(g holding.Group) string {
	label := strings.ReplaceAll(string(g.Color), "_", " ")
	if g.Overflow {
		label += " (second set)"
	}
	return label
}

func findGroup(groups []holding.Group, key string) (holding.Group, bool) {
	for _, g := range groups {
		if groupKey(g) == key {
			return g, true
		}
	}
	return holding.Group{}, false
}

func cardOptions(cards []card.Card) []ui.Option {
	opts := make([]ui.Option, len(cards))
	for i, c := range cards {
		label := c.Name
		if label == "" {
			label = c.ID
		}
		opts[i] = ui.Option{ID: c.ID, Label: label}
	}
	return opts
}

func idOptions(ids []string) []ui.Option {
	opts := make([]ui.Option, len(ids))
	for i, id := range ids {
		opts[i] = ui.Option{ID: id, Label: id}
	}
	return opts
}

func groupOptions(groups []holding.Group) []ui.Option {
	opts := make([]ui.Option, len(groups))
	for i, g := range groups {
		opts[i] = ui.Option{ID: groupKey(g), Label: groupLabel(g)}
	}
	return opts
}

func raidable(v *state.View, id string) []card.Card {
	sets, ok := v.Sets(id)
	if !ok {
		return nil
	}
	return sets.Raidable()
}

func completeGroups(v *state.View, id string) []holding.Group {
	sets, ok := v.Sets(id)
	if !ok {
		return nil
	}
	return sets.CompleteGroups()
}

// opponentsWith returns the opponents for which pred is true.
func opponentsWith(v *state.View, pred func(id string) bool) []string {
	var out []string
	for _, id := range v.Opponents {
		if pred(id) {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// chooseOpponent prompts for an opponent from candidates or validates the
// opponent already chosen.
func chooseOpponent(p *Pending, candidates []string, title string) (*Prompt, string, error) {
	chosen, ok := p.Choice(FieldOpponent)
	if !ok {
		return &Prompt{Field: FieldOpponent, Title: title, Options: idOptions(candidates), Auto: true}, "", nil
	}
	if !contains(candidates, chosen) {
		return nil, "", illegal(p.Kind, "player %s is no longer a valid target", chosen)
	}
	return nil, chosen, nil
}

// --- Rent ---

// rentHandler covers the two-color rent card, which charges every opponent,
// and the multicolor rent card, which charges one chosen opponent.
type rentHandler struct {
	kind         card.ActionKind
	singleTarget bool
}

func (h rentHandler) Kind() card.ActionKind { return h.kind }

func (h rentHandler) chargeable(v *state.View, p *Pending) []card.Color {
	var out []card.Color
	for _, c := range card.Colors() {
		if p.Card.CanCharge(c) && v.Self.Properties.Owns(c) {
			out = append(out, c)
		}
	}
	return out
}

func (h rentHandler) Check(v *state.View, p *Pending) error {
	if len(h.chargeable(v, p)) == 0 {
		return illegal(h.kind, "you own no property this card can charge rent on")
	}
	if len(v.Opponents) == 0 {
		return illegal(h.kind, "there is nobody to charge")
	}
	return nil
}

func (h rentHandler) Next(v *state.View, p *Pending) (*Prompt, error) {
	colors := h.chargeable(v, p)
	chosen, ok := p.Choice(FieldColor)
	if !ok {
		opts := make([]ui.Option, len(colors))
		for i, c := range colors {
			opts[i] = ui.Option{ID: string(c), Label: strings.ReplaceAll(string(c), "_", " ")}
		}
		return &Prompt{Field: FieldColor, Title: "Charge rent on which color?", Options: opts, Auto: true}, nil
	}
	valid := false
	for _, c := range colors {
		valid = valid || string(c) == chosen
	}
	if !valid {
		return nil, illegal(h.kind, "cannot charge rent on %s", chosen)
	}

	if h.singleTarget {
		if prompt, _, err := chooseOpponent(p, v.Opponents, "Charge rent to whom?"); prompt != nil || err != nil {
			return prompt, err
		}
	}

	if _, ok := doubleRentCard(v, p); ok {
		if _, asked := p.Choice(FieldDoubleRent); !asked {
			return &Prompt{
				Field: FieldDoubleRent,
				Title: "Play Double The Rent with this card?",
				Options: []ui.Option{
					{ID: yes, Label: "Double the rent"},
					{ID: no, Label: "Normal rent"},
				},
			}, nil
		}
	}
	return nil, nil
}

// doubleRentCard returns the Double Rent card the initiator may add. It is
// only offered when playing it leaves an action for the rent card itself.
func doubleRentCard(v *state.View, p *Pending) (card.Card, bool) {
	if v.Snapshot.ActionsRemaining <= 1 {
		return card.Card{}, false
	}
	for _, c := range v.Self.Hand {
		if c.ID != p.Card.ID && c.Is(card.ActionDoubleRent) {
			return c, true
		}
	}
	return card.Card{}, false
}

func (h rentHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	color := card.Color(p.choices[FieldColor])
	sets, _ := v.Sets(v.SelfID)
	amount, err := RentAmount(v.Self.Properties, sets, color)
	if err != nil {
		return protocol.ActionMsg{}, illegal(h.kind, "%v", err)
	}
	msg := baseMsg(p)
	msg.RentColor = color
	if p.choices[FieldDoubleRent] == yes {
		dr, ok := doubleRentCard(v, p)
		if !ok {
			return protocol.ActionMsg{}, illegal(h.kind, "Double The Rent is no longer playable")
		}
		amount *= 2
		msg.DoubleRentCard = &dr
	}
	msg.RentAmount = amount
	if h.singleTarget {
		msg.TargetPlayer = p.choices[FieldOpponent]
	} else {
		msg.Targets = append([]string(nil), v.Opponents...)
		msg.DemandID = p.ID
	}
	return msg, nil
}

// --- Debt Collector ---

type debtCollectorHandler struct{}

func (debtCollectorHandler) Kind() card.ActionKind { return card.ActionDebtCollector }

func (debtCollectorHandler) Check(v *state.View, p *Pending) error {
	if len(v.Opponents) == 0 {
		return illegal(p.Kind, "there is nobody to collect from")
	}
	return nil
}

func (debtCollectorHandler) Next(v *state.View, p *Pending) (*Prompt, error) {
	prompt, _, err := chooseOpponent(p, v.Opponents, "Collect 5M from whom?")
	return prompt, err
}

func (debtCollectorHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	msg := baseMsg(p)
	msg.TargetPlayer = p.choices[FieldOpponent]
	msg.RentAmount = card.DebtCollectorAmount
	return msg, nil
}

// --- It's Your Birthday ---

type birthdayHandler struct{}

func (birthdayHandler) Kind() card.ActionKind { return card.ActionBirthday }

func (birthdayHandler) Check(v *state.View, p *Pending) error {
	if len(v.Opponents) == 0 {
		return illegal(p.Kind, "there is nobody to collect from")
	}
	return nil
}

func (birthdayHandler) Next(v *state.View, p *Pending) (*Prompt, error) { return nil, nil }

func (birthdayHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	msg := baseMsg(p)
	msg.Targets = append([]string(nil), v.Opponents...)
	msg.RentAmount = card.BirthdayAmount
	msg.DemandID = p.ID
	return msg, nil
}

// --- Sly Deal ---

type slyDealHandler struct{}

func (slyDealHandler) Kind() card.ActionKind { return card.ActionSlyDeal }

func victims(v *state.View) []string {
	return opponentsWith(v, func(id string) bool { return len(raidable(v, id)) > 0 })
}

func (slyDealHandler) Check(v *state.View, p *Pending) error {
	if len(victims(v)) == 0 {
		return illegal(p.Kind, "no opponent has a property outside a complete set")
	}
	return nil
}

// chooseTarget prompts for a raidable card of the chosen opponent.
func chooseTarget(v *state.View, p *Pending) (*Prompt, error) {
	prompt, opp, err := chooseOpponent(p, victims(v), "Take a property from whom?")
	if prompt != nil || err != nil {
		return prompt, err
	}
	cards := raidable(v, opp)
	chosen, ok := p.Choice(FieldTargetCard)
	if !ok {
		return &Prompt{Field: FieldTargetCard, Title: "Which property?", Options: cardOptions(cards), Auto: true}, nil
	}
	if _, ok := card.Find(cards, chosen); !ok {
		return nil, illegal(p.Kind, "property %s can no longer be taken", chosen)
	}
	return nil, nil
}

func targetCard(v *state.View, p *Pending) (*card.Card, error) {
	c, ok := card.Find(raidable(v, p.choices[FieldOpponent]), p.choices[FieldTargetCard])
	if !ok {
		return nil, illegal(p.Kind, "property %s can no longer be taken", p.choices[FieldTargetCard])
	}
	return &c, nil
}

func (slyDealHandler) Next(v *state.View, p *Pending) (*Prompt, error) {
	return chooseTarget(v, p)
}

func (slyDealHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	target, err := targetCard(v, p)
	if err != nil {
		return protocol.ActionMsg{}, err
	}
	msg := baseMsg(p)
	msg.TargetPlayer = p.choices[FieldOpponent]
	msg.TargetProperty = target
	return msg, nil
}

// --- Forced Deal ---

type forcedDealHandler struct{}

func (forcedDealHandler) Kind() card.ActionKind { return card.ActionForcedDeal }

func (forcedDealHandler) Check(v *state.View, p *Pending) error {
	if len(raidable(v, v.SelfID)) == 0 {
		return illegal(p.Kind, "you have no property outside a complete set to give")
	}
	if len(victims(v)) == 0 {
		return illegal(p.Kind, "no opponent has a property outside a complete set")
	}
	return nil
}

func (forcedDealHandler) Next(v *state.View, p *Pending) (*Prompt, error) {
	if prompt, err := chooseTarget(v, p); prompt != nil || err != nil {
		return prompt, err
	}
	own := raidable(v, v.SelfID)
	chosen, ok := p.Choice(FieldOwnCard)
	if !ok {
		return &Prompt{Field: FieldOwnCard, Title: "Give which of your properties?", Options: cardOptions(own), Auto: true}, nil
	}
	if _, ok := card.Find(own, chosen); !ok {
		return nil, illegal(p.Kind, "you can no longer give %s", chosen)
	}
	return nil, nil
}

func (forcedDealHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	target, err := targetCard(v, p)
	if err != nil {
		return protocol.ActionMsg{}, err
	}
	own, ok := card.Find(raidable(v, v.SelfID), p.choices[FieldOwnCard])
	if !ok {
		return protocol.ActionMsg{}, illegal(p.Kind, "you can no longer give %s", p.choices[FieldOwnCard])
	}
	msg := baseMsg(p)
	msg.TargetPlayer = p.choices[FieldOpponent]
	msg.TargetProperty = target
	msg.UserProperty = &own
	return msg, nil
}

// --- Deal Breaker ---

type dealBreakerHandler struct{}

func (dealBreakerHandler) Kind() card.ActionKind { return card.ActionDealBreaker }

func setOwners(v *state.View) []string {
	return opponentsWith(v, func(id string) bool { return len(completeGroups(v, id)) > 0 })
}

func (dealBreakerHandler) Check(v *state.View, p *Pending) error {
	if len(setOwners(v)) == 0 {
		return illegal(p.Kind, "no opponent has a complete set")
	}
	return nil
}

func (dealBreakerHandler) Next(v *state.View, p *Pending) (*Prompt, error) {
	prompt, opp, err := chooseOpponent(p, setOwners(v), "Take a complete set from whom?")
	if prompt != nil || err != nil {
		return prompt, err
	}
	groups := completeGroups(v, opp)
	chosen, ok := p.Choice(FieldTargetSet)
	if !ok {
		return &Prompt{Field: FieldTargetSet, Title: "Which set?", Options: groupOptions(groups), Auto: true}, nil
	}
	if _, ok := findGroup(groups, chosen); !ok {
		return nil, illegal(p.Kind, "set %s is no longer complete", chosen)
	}
	return nil, nil
}

func (dealBreakerHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	g, ok := findGroup(completeGroups(v, p.choices[FieldOpponent]), p.choices[FieldTargetSet])
	if !ok {
		return protocol.ActionMsg{}, illegal(p.Kind, "set %s is no longer complete", p.choices[FieldTargetSet])
	}
	msg := baseMsg(p)
	msg.TargetPlayer = p.choices[FieldOpponent]
	msg.TargetSet = append([]card.Card(nil), g.Cards...)
	msg.TargetColor = g.Color
	return msg, nil
}

// --- Pass Go ---

type passGoHandler struct{}

func (passGoHandler) Kind() card.ActionKind { return card.ActionPassGo }

func (passGoHandler) Check(v *state.View, p *Pending) error {
	after := len(v.Self.Hand) - 1 + card.PassGoDraw
	if after > card.MaxHandSize {
		return illegal(p.Kind, "drawing would leave you with %d cards, the limit is %d", after, card.MaxHandSize)
	}
	return nil
}

func (passGoHandler) Next(v *state.View, p *Pending) (*Prompt, error) { return nil, nil }

func (passGoHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	return baseMsg(p), nil
}

// --- House / Hotel ---

type upgradeHandler struct {
	kind card.ActionKind
}

func (h upgradeHandler) Kind() card.ActionKind { return h.kind }

// eligible returns the local player's complete sets that can take this
// upgrade: a House needs a set without one, a Hotel needs a House and no Hotel.
func (h upgradeHandler) eligible(v *state.View) []holding.Group {
	var out []holding.Group
	for _, g := range completeGroups(v, v.SelfID) {
		if !g.Color.Upgradable() {
			continue
		}
		switch h.kind {
		case card.ActionHouse:
			if !g.HasHouse() {
				out = append(out, g)
			}
		case card.ActionHotel:
			if g.HasHouse() && !g.HasHotel() {
				out = append(out, g)
			}
		}
	}
	return out
}

func (h upgradeHandler) Check(v *state.View, p *Pending) error {
	if len(h.eligible(v)) > 0 {
		return nil
	}
	if h.kind == card.ActionHotel {
		return illegal(h.kind, "you need a complete set with a house and no hotel")
	}
	return illegal(h.kind, "you need a complete set without a house")
}

func (h upgradeHandler) Next(v *state.View, p *Pending) (*Prompt, error) {
	groups := h.eligible(v)
	chosen, ok := p.Choice(FieldTargetSet)
	if !ok {
		return &Prompt{
			Field:   FieldTargetSet,
			Title:   fmt.Sprintf("Place the %s on which set?", h.kind),
			Options: groupOptions(groups),
		}, nil
	}
	if _, ok := findGroup(groups, chosen); !ok {
		return nil, illegal(h.kind, "set %s cannot take a %s", chosen, h.kind)
	}
	return nil, nil
}

func (h upgradeHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	g, ok := findGroup(h.eligible(v), p.choices[FieldTargetSet])
	if !ok {
		return protocol.ActionMsg{}, illegal(h.kind, "set %s cannot take a %s", p.choices[FieldTargetSet], h.kind)
	}
	msg := baseMsg(p)
	msg.TargetColor = g.Color
	msg.TargetSet = append([]card.Card(nil), g.Cards...)
	return msg, nil
}

// --- Double The Rent ---

// doubleRentHandler rejects Double The Rent played on its own; it is offered
// as a choice while a rent card is being played.
type doubleRentHandler struct{}

func (doubleRentHandler) Kind() card.ActionKind { return card.ActionDoubleRent }

func (doubleRentHandler) Check(v *state.View, p *Pending) error {
	return illegal(p.Kind, "play a rent card and choose to double it")
}

func (doubleRentHandler) Next(v *state.View, p *Pending) (*Prompt, error) { return nil, nil }

func (doubleRentHandler) Build(v *state.View, p *Pending) (protocol.ActionMsg, error) {
	return protocol.ActionMsg{}, illegal(p.Kind, "play a rent card and choose to double it")
}
