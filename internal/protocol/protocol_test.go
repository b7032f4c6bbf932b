package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"dealclient/internal/card"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	return v
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestDecodeBase(t *testing.T) {
	b, err := DecodeBase([]byte(`{"type":"game_update","state":{}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Discriminator() != TypeGameUpdate {
		t.Fatalf("discriminator = %q", b.Discriminator())
	}
	b, _ = DecodeBase([]byte(`{"action":"sly_deal"}`))
	if b.Discriminator() != "sly_deal" {
		t.Fatalf("discriminator = %q", b.Discriminator())
	}
	if _, err := DecodeBase([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestValidatorAcceptsActionFrames(t *testing.T) {
	v := newTestValidator(t)
	target := card.Property("b1", card.DarkBlue)
	frames := []any{
		ActionMsg{Action: "sly_deal", Player: "A", Card: card.Action("c1", card.ActionSlyDeal), TargetPlayer: "B", TargetProperty: &target},
		ActionMsg{Action: "pass_go", Player: "A", Card: card.Action("c2", card.ActionPassGo)},
		ActionMsg{Action: "rent", Player: "A", Card: card.Rent("c3", card.Red, card.Yellow), RentColor: card.Red, RentAmount: 3, Targets: []string{"B", "C"}, DemandID: "d1"},
		PayRentMsg{Action: ActionPayRent, Player: "B", Recipient: "A", DemandID: "d1", Cards: []string{"m1"}},
		VetoCancel{Action: ActionJustSayNoCancel, WindowID: "w1", PlayerID: "B", OpponentID: "A"},
		VetoResponse{Action: ActionJustSayNoResponse, DemandID: "d1", PlayerID: "B", OpponentID: "A", PlayCounter: true},
	}
	for _, f := range frames {
		if err := v.Validate(mustJSON(t, f)); err != nil {
			t.Fatalf("validate %T: %v", f, err)
		}
	}
}

func TestValidatorRejectsMissingFields(t *testing.T) {
	v := newTestValidator(t)
	cases := []struct {
		name  string
		frame any
	}{
		{"sly deal without target", ActionMsg{Action: "sly_deal", Player: "A", Card: card.Action("c1", card.ActionSlyDeal), TargetPlayer: "B"}},
		{"forced deal without own card", ActionMsg{Action: "forced_deal", Player: "A", Card: card.Action("c1", card.ActionForcedDeal), TargetPlayer: "B", TargetProperty: &card.Card{ID: "x", Type: card.TypeProperty}}},
		{"rent without amount", ActionMsg{Action: "rent", Player: "A", Card: card.Rent("c3", card.Red), RentColor: card.Red, Targets: []string{"B"}, DemandID: "d"}},
		{"house without color", ActionMsg{Action: "house", Player: "A", Card: card.Action("h", card.ActionHouse)}},
		{"unknown color", ActionMsg{Action: "multicolor_rent", Player: "A", Card: card.Action("m", card.ActionMulticolorRent), RentColor: "purple", RentAmount: 2, TargetPlayer: "B"}},
		{"response without window or demand", VetoResponse{Action: ActionJustSayNoResponse, PlayerID: "B", OpponentID: "A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := v.Validate(mustJSON(t, tc.frame)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidatorVetoRequestValidatesPayload(t *testing.T) {
	v := newTestValidator(t)
	payload := mustJSON(t, ActionMsg{Action: "debt_collector", Player: "A", Card: card.Action("c", card.ActionDebtCollector), TargetPlayer: "B", RentAmount: 5})
	req := VetoRequest{
		Action:      ActionJustSayNoChoice,
		WindowID:    "w1",
		PlayerID:    "B",
		OpponentID:  "A",
		Card:        card.Action("j", card.ActionJustSayNo),
		AgainstCard: card.Action("c", card.ActionDebtCollector),
		Payload:     payload,
	}
	if err := v.Validate(mustJSON(t, req)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	req.Payload = json.RawMessage(`{"action":"debt_collector","player":"A"}`)
	if err := v.Validate(mustJSON(t, req)); err == nil {
		t.Fatal("expected invalid embedded payload to fail")
	}
}

func TestValidatorUnknownAction(t *testing.T) {
	v := newTestValidator(t)
	err := v.Validate([]byte(`{"action":"teleport"}`))
	if err == nil || !strings.Contains(err.Error(), "no schema") {
		t.Fatalf("expected no schema error, got %v", err)
	}
}
