package veto

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dealclient/internal/card"
	"dealclient/internal/protocol"
)

// Window is one open solicitation.
type Window struct {
	ID          string
	InitiatorID string
	TargetID    string
	ActionCard  card.Card
	Counter     card.Card
	Payload     json.RawMessage

	decided chan bool
}

// Recorder is told how every window closed. Optional.
type Recorder interface {
	RecordNegotiation(w *Window, o Outcome)
}

// Negotiator is the initiator's side of the sub-protocol.
type Negotiator struct {
	outbox   *protocol.Outbox
	timeout  time.Duration
	recorder Recorder
	log      logrus.FieldLogger

	mu      sync.Mutex
	windows map[string]*Window
}

// NewNegotiator creates a negotiator whose windows expire after timeout.
func NewNegotiator(outbox *protocol.Outbox, timeout time.Duration, recorder Recorder, log logrus.FieldLogger) *Negotiator {
	return &Negotiator{
		outbox:   outbox,
		timeout:  timeout,
		recorder: recorder,
		log:      log,
		windows:  make(map[string]*Window),
	}
}

// Negotiate sends the would-be action payload to target and blocks until the
// target answers, the window expires or ctx is cancelled. On cancellation the
// target is told to withdraw its prompt.
func (n *Negotiator) Negotiate(ctx context.Context, initiator, target string, actionCard, counter card.Card, payload []byte) (Outcome, error) {
	w := &Window{
		ID:          uuid.NewString(),
		InitiatorID: initiator,
		TargetID:    target,
		ActionCard:  actionCard,
		Counter:     counter,
		Payload:     json.RawMessage(payload),
		decided:     make(chan bool, 1),
	}
	log := n.log.WithFields(logrus.Fields{"window": w.ID, "target": target, "kind": actionCard.Action})

	n.mu.Lock()
	n.windows[w.ID] = w
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.windows, w.ID)
		n.mu.Unlock()
	}()

	req := protocol.VetoRequest{
		Action:      protocol.ActionJustSayNoChoice,
		WindowID:    w.ID,
		PlayerID:    target,
		OpponentID:  initiator,
		Card:        counter,
		AgainstCard: actionCard,
		Payload:     w.Payload,
	}
	if _, err := n.outbox.Send(ctx, req); err != nil {
		return "", fmt.Errorf("open veto window: %w", err)
	}
	log.Debug("veto window open")

	timer := time.NewTimer(n.timeout)
	defer timer.Stop()

	var outcome Outcome
	select {
	case played := <-w.decided:
		outcome = Declined
		if played {
			outcome = Countered
		}
	case <-timer.C:
		outcome = TimedOut
	case <-ctx.Done():
		outcome = Cancelled
		n.withdraw(context.WithoutCancel(ctx), w)
	}

	log.WithField("outcome", outcome).Info("veto window closed")
	if n.recorder != nil {
		n.recorder.RecordNegotiation(w, outcome)
	}
	return outcome, nil
}

func (n *Negotiator) withdraw(ctx context.Context, w *Window) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg := protocol.VetoCancel{
		Action:     protocol.ActionJustSayNoCancel,
		WindowID:   w.ID,
		PlayerID:   w.TargetID,
		OpponentID: w.InitiatorID,
	}
	if _, err := n.outbox.Send(ctx, msg); err != nil {
		n.log.WithError(err).WithField("window", w.ID).Warn("withdraw veto solicitation")
	}
}

// Resolve delivers the target's answer to its window.
func (n *Negotiator) Resolve(resp protocol.VetoResponse) error {
	n.mu.Lock()
	w, ok := n.windows[resp.WindowID]
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("response for %s: %w", resp.WindowID, ErrUnknownWindow)
	}
	if resp.PlayerID != w.TargetID {
		return fmt.Errorf("response for %s from %s, expected %s", w.ID, resp.PlayerID, w.TargetID)
	}
	select {
	case w.decided <- resp.PlayCounter:
	default:
		// already decided; a duplicate answer changes nothing
	}
	return nil
}

// Open returns the number of windows awaiting an answer.
func (n *Negotiator) Open() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.windows)
}
