// Package action runs locally initiated card plays: it checks legality
// against the latest snapshot, collects the choices each kind needs, puts
// targeted actions through the counter-card negotiation and sends exactly
// one frame per action.
package action

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dealclient/internal/card"
	"dealclient/internal/protocol"
	"dealclient/internal/settlement"
	"dealclient/internal/state"
	"dealclient/internal/ui"
	"dealclient/internal/veto"
)

// ViewSource yields the latest derived state.
type ViewSource interface {
	Current() *state.View
}

// Negotiator holds a targeted action until its target answers.
type Negotiator interface {
	Negotiate(ctx context.Context, initiator, target string, actionCard, counter card.Card, payload []byte) (veto.Outcome, error)
}

// Config wires an Engine.
type Config struct {
	Self          string
	Views         ViewSource
	Outbox        *protocol.Outbox
	Negotiator    Negotiator
	Book          *settlement.Book
	UI            ui.Reporter
	Registry      *Registry
	DialogTimeout time.Duration
	Log           logrus.FieldLogger
}

// Engine owns the at-most-one pending action of the local player.
type Engine struct {
	cfg Config
	log logrus.FieldLogger

	mu      sync.Mutex
	pending *Pending
	sent    map[string]*Pending
}

func NewEngine(cfg Config) *Engine {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	return &Engine{
		cfg:  cfg,
		log:  cfg.Log.WithField("player", cfg.Self),
		sent: make(map[string]*Pending),
	}
}

// Begin opens a pending action for the card with id in the local hand and
// returns the first choice it needs, or nil when it needs none.
func (e *Engine) Begin(cardID string) (*Prompt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		return nil, fmt.Errorf("%s: %w", e.pending.Kind, ErrActionPending)
	}

	v := e.cfg.Views.Current()
	c, h, err := e.entryChecks(v, cardID)
	if err != nil {
		return nil, err
	}
	p := &Pending{
		ID:        uuid.NewString(),
		Kind:      c.Action,
		Card:      c,
		Initiator: e.cfg.Self,
		Status:    StatusCollecting,
	}
	if err := h.Check(v, p); err != nil {
		return nil, err
	}
	prompt, err := advance(h, v, p)
	if err != nil {
		return nil, err
	}
	e.pending = p
	e.log.WithFields(logrus.Fields{"kind": p.Kind, "action": p.ID}).Debug("action pending")
	return prompt, nil
}

func (e *Engine) entryChecks(v *state.View, cardID string) (card.Card, Handler, error) {
	if v == nil || v.Self == nil {
		return card.Card{}, nil, illegal("", "waiting for the game state")
	}
	c, ok := card.Find(v.Self.Hand, cardID)
	if !ok {
		return card.Card{}, nil, illegal("", "card %s is not in your hand", cardID)
	}
	if c.Type != card.TypeAction {
		return card.Card{}, nil, illegal(c.Action, "card %s is not an action card", cardID)
	}
	h, ok := e.cfg.Registry.Get(c.Action)
	if !ok {
		return card.Card{}, nil, illegal(c.Action, "this card cannot be played as an action")
	}
	if !v.IsMyTurn() {
		return card.Card{}, nil, illegal(c.Action, "it is not your turn")
	}
	if v.Snapshot.ActionsRemaining < 1 {
		return card.Card{}, nil, illegal(c.Action, "you have no actions left this turn")
	}
	return c, h, nil
}

// advance returns the next prompt, filling in choices that have exactly one
// option without asking.
func advance(h Handler, v *state.View, p *Pending) (*Prompt, error) {
	for {
		prompt, err := h.Next(v, p)
		if err != nil || prompt == nil {
			return prompt, err
		}
		if !prompt.Auto || len(prompt.Options) != 1 {
			if len(prompt.Options) == 0 {
				return nil, illegal(p.Kind, "nothing to choose for %s", prompt.Field)
			}
			return prompt, nil
		}
		p.set(prompt.Field, prompt.Options[0].ID)
	}
}

// Supply records the local player's answer to the current prompt and
// returns the next one.
func (e *Engine) Supply(f Field, value string) (*Prompt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.pending
	if p == nil {
		return nil, ErrNoPending
	}
	if p.Status != StatusCollecting {
		return nil, fmt.Errorf("supply %s while %s", f, p.Status)
	}
	v := e.cfg.Views.Current()
	h, _ := e.cfg.Registry.Get(p.Kind)
	current, err := advance(h, v, p)
	if err != nil {
		e.abortLocked(err)
		return nil, err
	}
	if current == nil || current.Field != f {
		return current, fmt.Errorf("%s is not being asked for", f)
	}
	if !current.Dialog().Has(value) {
		return current, fmt.Errorf("%q is not a valid %s", value, f)
	}
	p.set(f, value)
	next, err := advance(h, v, p)
	if err != nil {
		e.abortLocked(err)
		return nil, err
	}
	return next, nil
}

// Finalize assembles and sends the pending action. A targeted action whose
// target holds a counter-card is first put through the veto negotiation;
// Finalize blocks until it closes. The returned Pending carries the final
// status and, when negotiated, the veto outcome.
func (e *Engine) Finalize(ctx context.Context) (Pending, error) {
	e.mu.Lock()
	p := e.pending
	if p == nil {
		e.mu.Unlock()
		return Pending{}, ErrNoPending
	}
	if p.Status != StatusCollecting {
		e.mu.Unlock()
		return p.Copy(), fmt.Errorf("finalize while %s", p.Status)
	}

	v := e.cfg.Views.Current()
	h, _ := e.cfg.Registry.Get(p.Kind)
	prompt, err := advance(h, v, p)
	if err == nil && prompt != nil {
		err = fmt.Errorf("%s: %s: %w", p.Kind, prompt.Field, ErrMissingInput)
	}
	var msg protocol.ActionMsg
	if err == nil {
		msg, err = h.Build(v, p)
	}
	if err == nil {
		p.Payload, err = e.cfg.Outbox.Encode(msg)
	}
	if err != nil {
		e.abortLocked(err)
		e.mu.Unlock()
		return p.Copy(), err
	}

	var counter card.Card
	held := false
	if msg.TargetPlayer != "" {
		target, _ := v.Player(msg.TargetPlayer)
		counter, held = veto.FindCounterCard(target)
	}
	if held {
		vctx, cancel := context.WithCancel(ctx)
		p.Status = StatusAwaitingVeto
		p.cancel = cancel
		e.mu.Unlock()

		outcome, err := e.cfg.Negotiator.Negotiate(vctx, p.Initiator, msg.TargetPlayer, p.Card, counter, p.Payload)
		cancel()

		e.mu.Lock()
		p.Veto = outcome
		switch {
		case err != nil:
			e.abortLocked(err)
			e.mu.Unlock()
			return p.Copy(), err
		case outcome == veto.Cancelled:
			e.abortLocked(ErrCancelled)
			e.mu.Unlock()
			return p.Copy(), ErrCancelled
		case outcome == veto.Countered:
			p.Status = StatusResolved
			e.pending = nil
			e.mu.Unlock()
			e.log.WithFields(logrus.Fields{"kind": p.Kind, "target": msg.TargetPlayer}).Info("action countered")
			e.cfg.UI.ReportEvent(ui.Event{Kind: ui.EventCountered, Message: fmt.Sprintf("%s countered your %s", msg.TargetPlayer, p.Kind)})
			return p.Copy(), nil
		}
	}

	p.Status = StatusSent
	p.cancel = nil
	e.mu.Unlock()

	if err := e.cfg.Outbox.SendRaw(ctx, p.Payload); err != nil {
		e.mu.Lock()
		e.abortLocked(err)
		e.mu.Unlock()
		return p.Copy(), err
	}

	e.mu.Lock()
	e.pending = nil
	e.sent[p.Card.ID] = p
	out := p.Copy()
	e.mu.Unlock()

	if len(msg.Targets) > 1 && e.cfg.Book != nil {
		e.cfg.Book.Track(msg.DemandID, p.Initiator, msg.Targets, msg.RentAmount)
	}
	e.log.WithFields(logrus.Fields{"kind": p.Kind, "action": p.ID}).Info("action sent")
	e.cfg.UI.ReportEvent(ui.Event{Kind: ui.EventSent, Message: fmt.Sprintf("played %s", p.Kind)})
	return out, nil
}

// abortLocked discards the pending action. Caller holds e.mu.
func (e *Engine) abortLocked(reason error) {
	p := e.pending
	if p == nil {
		return
	}
	p.Status = StatusAborted
	e.pending = nil
	e.log.WithFields(logrus.Fields{"kind": p.Kind, "action": p.ID}).WithError(reason).Debug("action aborted")
}

// Cancel abandons the pending action. An open veto window is withdrawn.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.pending
	if p == nil {
		return ErrNoPending
	}
	switch p.Status {
	case StatusCollecting:
		e.abortLocked(ErrCancelled)
		return nil
	case StatusAwaitingVeto:
		// Finalize observes the cancellation and aborts.
		p.cancel()
		return nil
	}
	return ErrAlreadySent
}

// Current returns a copy of the pending action.
func (e *Engine) Current() (Pending, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return Pending{}, false
	}
	return e.pending.Copy(), true
}

// Observe marks a sent action resolved once the server echoes its card.
func (e *Engine) Observe(m protocol.CardPlayedMsg) (Pending, bool) {
	if m.Player != e.cfg.Self {
		return Pending{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.sent[m.Card.ID]
	if !ok {
		return Pending{}, false
	}
	delete(e.sent, m.Card.ID)
	p.Status = StatusResolved
	return p.Copy(), true
}

// Play drives one card play interactively: every missing choice is asked
// through the choice dialog. Failures are reported to the player and
// returned; nothing is ever partially sent.
func (e *Engine) Play(ctx context.Context, cardID string) (Pending, error) {
	prompt, err := e.Begin(cardID)
	if err != nil {
		e.report(err)
		return Pending{}, err
	}
	for prompt != nil {
		choice, err := e.ask(ctx, prompt)
		if err != nil {
			e.Cancel()
			return Pending{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		prompt, err = e.Supply(prompt.Field, choice)
		if err != nil {
			e.Cancel()
			e.report(err)
			return Pending{}, err
		}
	}
	p, err := e.Finalize(ctx)
	if err != nil && !errors.Is(err, ErrCancelled) {
		e.report(err)
	}
	return p, err
}

func (e *Engine) ask(ctx context.Context, prompt *Prompt) (string, error) {
	if e.cfg.DialogTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.DialogTimeout)
		defer cancel()
	}
	return e.cfg.UI.ShowChoiceDialog(ctx, prompt.Dialog())
}

func (e *Engine) report(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		e.cfg.UI.ReportError(ve.Reason)
		return
	}
	e.cfg.UI.ReportError(err.Error())
}
