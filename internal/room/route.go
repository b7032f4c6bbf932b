package room

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dealclient/internal/card"
	"dealclient/internal/protocol"
	"dealclient/internal/settlement"
	"dealclient/internal/state"
	"dealclient/internal/ui"
	"dealclient/internal/veto"
)

// handle routes one inbound frame by its type. It runs on the dispatcher and
// never blocks on the player.
func (r *Room) handle(ctx context.Context, frame []byte) error {
	base, err := protocol.DecodeBase(frame)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	switch base.Discriminator() {
	case protocol.TypeGameUpdate:
		var m protocol.GameUpdateMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		return r.handleGameUpdate(m)

	case protocol.TypeCardPlayed:
		var m protocol.CardPlayedMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		if p, ok := r.engine.Observe(m); ok {
			r.log.WithFields(logrus.Fields{"kind": p.Kind, "action": p.ID}).Debug("action resolved")
			return nil
		}
		if m.Player != r.opts.Self {
			r.event(ui.EventCardPlayed, "%s played %s", m.Player, cardName(m.Card.Name, m.Card.ID))
		}

	case protocol.TypeRentRequest:
		var m protocol.RentRequestMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		r.handleDemand(ctx, m)

	case protocol.TypeRentPaid:
		var m protocol.RentPaidMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		r.book.Settle(m.DemandID, m.Payer)
		if m.Recipient == r.opts.Self {
			r.event(ui.EventPaid, "%s paid you", m.Payer)
		}

	case protocol.TypePropertyStolen:
		var m protocol.PropertyStolenMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		if r.stale(m.Thief, m.Victim) {
			return nil
		}
		r.event(ui.EventStolen, "%s took %s from %s", m.Thief, cardName(m.Card.Name, m.Card.ID), m.Victim)

	case protocol.TypePropertySwap:
		var m protocol.PropertySwapMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		if r.stale(m.Player, m.Opponent) {
			return nil
		}
		r.event(ui.EventSwapped, "%s swapped %s for %s's %s", m.Player,
			cardName(m.Given.Name, m.Given.ID), m.Opponent, cardName(m.Taken.Name, m.Taken.ID))

	case protocol.TypeDealBreakerOverlay:
		var m protocol.DealBreakerOverlayMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		if r.stale(m.Player, m.Victim) {
			return nil
		}
		r.event(ui.EventDealBroken, "%s took %s's %s set", m.Player, m.Victim, strings.ReplaceAll(string(m.Color), "_", " "))

	case protocol.TypeJustSayNoChoice:
		var m protocol.VetoRequest
		if err := decode(frame, &m); err != nil {
			return err
		}
		return r.responder.HandleRequest(ctx, m)

	case protocol.TypeJustSayNoResponse:
		var m protocol.VetoResponse
		if err := decode(frame, &m); err != nil {
			return err
		}
		return r.handleVetoResponse(m)

	case protocol.TypeJustSayNoCancel:
		var m protocol.VetoCancel
		if err := decode(frame, &m); err != nil {
			return err
		}
		r.responder.HandleCancel(m)

	case protocol.TypeError:
		var m protocol.ErrorMsg
		if err := decode(frame, &m); err != nil {
			return err
		}
		r.opts.UI.ReportError(m.Message)

	default:
		return fmt.Errorf("unknown message type %q", base.Discriminator())
	}
	return nil
}

func decode(frame []byte, v any) error {
	if err := json.Unmarshal(frame, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

func (r *Room) handleGameUpdate(m protocol.GameUpdateMsg) error {
	var snap state.Snapshot
	if err := json.Unmarshal(m.State, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if _, err := r.reducer.Apply(snap); err != nil {
		return err
	}
	ids := make([]string, len(snap.Players))
	for i, p := range snap.Players {
		ids[i] = p.ID
	}
	r.book.Prune(ids)
	if r.opts.Store != nil {
		if err := r.opts.Store.SaveSnapshot(r.opts.Room, r.opts.Self, string(m.State)); err != nil {
			r.log.WithError(err).Warn("cache snapshot")
		}
	}
	return nil
}

// handleDemand tracks a multi-recipient demand made by the local player and
// records one addressed to the local player. A payer holding a counter-card
// is offered to play it against rent and birthday demands only; single-target
// demands were negotiated before they were sent.
func (r *Room) handleDemand(ctx context.Context, m protocol.RentRequestMsg) {
	if m.Recipient == r.opts.Self {
		r.book.Track(m.DemandID, m.Recipient, m.Payers, m.Amount)
		return
	}
	if !contains(m.Payers, r.opts.Self) {
		return
	}
	r.book.SetObligation(settlement.Obligation{DemandID: m.DemandID, Recipient: m.Recipient, Amount: m.Amount})
	r.event(ui.EventDemand, "%s demands %d from you", m.Recipient, m.Amount)

	if !m.Card.Is(card.ActionRent) && !m.Card.Is(card.ActionBirthday) {
		return
	}
	v := r.reducer.Current()
	if v == nil || v.Self == nil {
		return
	}
	if counter, ok := veto.FindCounterCard(v.Self); ok {
		r.responder.HandleDemand(ctx, m, counter, func() {
			r.book.Settle(m.DemandID, r.opts.Self)
		})
	}
}

func (r *Room) handleVetoResponse(m protocol.VetoResponse) error {
	if m.OpponentID != r.opts.Self {
		return nil
	}
	if m.WindowID != "" {
		return r.negotiator.Resolve(m)
	}
	if m.DemandID == "" || !m.PlayCounter {
		return nil
	}
	// A payer countered a demand that was already sent; it owes nothing.
	r.book.Settle(m.DemandID, m.PlayerID)
	r.event(ui.EventCountered, "%s countered your demand", m.PlayerID)
	return nil
}

// stale reports whether an event names a player missing from the working
// snapshot. Such events predate it and are dropped.
func (r *Room) stale(ids ...string) bool {
	v := r.reducer.Current()
	if v == nil {
		return false
	}
	for _, id := range ids {
		if _, ok := v.Player(id); !ok {
			r.log.WithField("player", id).Debug("dropping event for stale player")
			return true
		}
	}
	return false
}

func (r *Room) event(kind ui.EventKind, format string, args ...any) {
	r.opts.UI.ReportEvent(ui.Event{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func cardName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
