package protocol

import (
	"encoding/json"

	"dealclient/internal/card"
)

// ActionMsg is the outbound frame for every card action. Kind-specific fields
// are omitted when unset.
type ActionMsg struct {
	Action string    `json:"action"`
	Player string    `json:"player"`
	Card   card.Card `json:"card"`

	TargetPlayer   string      `json:"targetPlayer,omitempty"`
	TargetProperty *card.Card  `json:"target_property,omitempty"`
	TargetSet      []card.Card `json:"target_set,omitempty"`
	TargetColor    card.Color  `json:"target_color,omitempty"`
	UserProperty   *card.Card  `json:"user_property,omitempty"`

	RentColor      card.Color `json:"rentColor,omitempty"`
	RentAmount     int        `json:"rentAmount,omitempty"`
	DoubleRentCard *card.Card `json:"double_the_rent_card,omitempty"`

	// Targets lists every obligated payer of a demand.
	Targets  []string `json:"targets,omitempty"`
	DemandID string   `json:"demand_id,omitempty"`
}

// VetoRequest solicits a counter-card from the target. Payload carries the
// would-be action frame verbatim.
type VetoRequest struct {
	Type        string          `json:"type,omitempty"`
	Action      string          `json:"action,omitempty"`
	WindowID    string          `json:"window_id"`
	PlayerID    string          `json:"playerId"`
	OpponentID  string          `json:"opponentId"`
	Card        card.Card       `json:"card"`
	AgainstCard card.Card       `json:"against_card"`
	Payload     json.RawMessage `json:"payload"`
}

// VetoResponse is the target's answer. WindowID is empty when the response
// counters a multi-recipient demand identified by DemandID.
type VetoResponse struct {
	Type        string     `json:"type,omitempty"`
	Action      string     `json:"action,omitempty"`
	WindowID    string     `json:"window_id,omitempty"`
	DemandID    string     `json:"demand_id,omitempty"`
	PlayerID    string     `json:"playerId"`
	OpponentID  string     `json:"opponentId"`
	PlayCounter bool       `json:"play_counter"`
	Card        *card.Card `json:"card,omitempty"`
}

// VetoCancel withdraws an open solicitation.
type VetoCancel struct {
	Type       string `json:"type,omitempty"`
	Action     string `json:"action,omitempty"`
	WindowID   string `json:"window_id"`
	PlayerID   string `json:"playerId"`
	OpponentID string `json:"opponentId"`
}

// PayRentMsg answers a demand addressed to the local player.
type PayRentMsg struct {
	Action    string   `json:"action"`
	Player    string   `json:"player"`
	Recipient string   `json:"recipient"`
	DemandID  string   `json:"demand_id,omitempty"`
	Cards     []string `json:"cards"`
}

// GameUpdateMsg carries the full authoritative snapshot.
type GameUpdateMsg struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

type CardPlayedMsg struct {
	Type   string    `json:"type"`
	Player string    `json:"player"`
	Card   card.Card `json:"card"`
}

type RentRequestMsg struct {
	Type      string    `json:"type"`
	DemandID  string    `json:"demand_id"`
	Recipient string    `json:"recipient"`
	Payers    []string  `json:"payers"`
	Amount    int       `json:"amount"`
	Card      card.Card `json:"card"`
}

type RentPaidMsg struct {
	Type      string   `json:"type"`
	DemandID  string   `json:"demand_id"`
	Payer     string   `json:"payer"`
	Recipient string   `json:"recipient"`
	Cards     []string `json:"cards,omitempty"`
}

type PropertyStolenMsg struct {
	Type   string    `json:"type"`
	Thief  string    `json:"thief"`
	Victim string    `json:"victim"`
	Card   card.Card `json:"card"`
}

type PropertySwapMsg struct {
	Type     string    `json:"type"`
	Player   string    `json:"player"`
	Opponent string    `json:"opponent"`
	Given    card.Card `json:"given"`
	Taken    card.Card `json:"taken"`
}

type DealBreakerOverlayMsg struct {
	Type   string      `json:"type"`
	Player string      `json:"player"`
	Victim string      `json:"victim"`
	Color  card.Color  `json:"color"`
	Cards  []card.Card `json:"cards"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
