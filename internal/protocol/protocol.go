// Package protocol defines the JSON frames exchanged with the game server.
// Outbound frames are discriminated by "action", inbound frames by "type".
package protocol

import "encoding/json"

// Inbound message types.
const (
	TypeGameUpdate         = "game_update"
	TypeCardPlayed         = "card_played"
	TypeRentRequest        = "rent_request"
	TypeRentPaid           = "rent_paid"
	TypePropertyStolen     = "property_stolen"
	TypePropertySwap       = "property_swap"
	TypeDealBreakerOverlay = "deal_breaker_overlay"
	TypeJustSayNoChoice    = "just_say_no_choice"
	TypeJustSayNoResponse  = "just_say_no_response"
	TypeJustSayNoCancel    = "just_say_no_cancel"
	TypeError              = "error"
)

// Outbound actions that are not card kinds.
const (
	ActionJustSayNoChoice   = "just_say_no_choice"
	ActionJustSayNoResponse = "just_say_no_response"
	ActionJustSayNoCancel   = "just_say_no_cancel"
	ActionPayRent           = "pay_rent"
)

// BaseMessage lets us route frames by discriminator before decoding them fully.
type BaseMessage struct {
	Type   string `json:"type,omitempty"`
	Action string `json:"action,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Discriminator returns Type if set, otherwise Action.
func (m BaseMessage) Discriminator() string {
	if m.Type != "" {
		return m.Type
	}
	return m.Action
}
