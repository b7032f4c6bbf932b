package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"dealclient/internal/card"
	"dealclient/internal/protocol"
)

var (
	// ErrNoDemand is returned by Pay when nothing is owed.
	ErrNoDemand = errors.New("no demand to pay")
	// ErrUnderpaid is returned when the chosen cards fall short although
	// the player holds more.
	ErrUnderpaid = errors.New("payment does not cover the demand")
)

// Pay answers the local player's outstanding demand with cards from the
// bank or the table. Paying less than owed is only allowed when every
// payable card is handed over.
func (r *Room) Pay(ctx context.Context, cardIDs []string) error {
	o, ok := r.book.Obligation()
	if !ok {
		return ErrNoDemand
	}
	v := r.reducer.Current()
	if v == nil || v.Self == nil {
		return errors.New("waiting for the game state")
	}

	var payable []card.Card
	payable = append(payable, v.Self.Bank...)
	for _, c := range card.Colors() {
		payable = append(payable, v.Self.Properties[c]...)
	}

	total := 0
	seen := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		if seen[id] {
			return fmt.Errorf("card %s listed twice", id)
		}
		seen[id] = true
		c, ok := card.Find(payable, id)
		if !ok {
			return fmt.Errorf("card %s is not in your bank or on your table", id)
		}
		total += c.Value
	}
	if total < o.Amount && len(cardIDs) < len(payable) {
		return fmt.Errorf("%d of %d: %w", total, o.Amount, ErrUnderpaid)
	}

	msg := protocol.PayRentMsg{
		Action:    protocol.ActionPayRent,
		Player:    r.opts.Self,
		Recipient: o.Recipient,
		DemandID:  o.DemandID,
		Cards:     append([]string{}, cardIDs...),
	}
	if _, err := r.outbox.Send(ctx, msg); err != nil {
		return err
	}
	r.book.ClearObligation(o.DemandID)
	r.log.WithFields(logrus.Fields{"demand": o.DemandID, "paid": total}).Info("demand paid")
	return nil
}
