package veto

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealclient/internal/card"
	"dealclient/internal/protocol"
	"dealclient/internal/state"
	"dealclient/internal/ui"
)

const (
	optionPlay    = "play"
	optionDecline = "decline"
)

// ViewSource yields the latest derived state.
type ViewSource interface {
	Current() *state.View
}

type prompt struct {
	cancel    context.CancelFunc
	withdrawn bool
}

// Responder is the target's side: it asks the local player whether to play a
// counter-card and answers the initiator. Prompts run off the dispatcher so
// a withdrawal can reach an open dialog.
type Responder struct {
	self    string
	outbox  *protocol.Outbox
	views   ViewSource
	ui      ui.Reporter
	timeout time.Duration
	log     logrus.FieldLogger

	mu      sync.Mutex
	prompts map[string]*prompt
	wg      sync.WaitGroup
}

// PromptTimeout is how long a target may deliberate in a window that the
// initiator closes after window. The prompt ends grace earlier so a late
// answer still arrives in time. A grace outside (0, window) falls back to a
// sixth of the window.
func PromptTimeout(window, grace time.Duration) time.Duration {
	if grace <= 0 || grace >= window {
		grace = window / 6
	}
	return window - grace
}

func NewResponder(self string, outbox *protocol.Outbox, views ViewSource, reporter ui.Reporter, timeout time.Duration, log logrus.FieldLogger) *Responder {
	return &Responder{
		self:    self,
		outbox:  outbox,
		views:   views,
		ui:      reporter,
		timeout: timeout,
		log:     log,
		prompts: make(map[string]*prompt),
	}
}

// HandleRequest answers a solicitation addressed to the local player.
func (r *Responder) HandleRequest(ctx context.Context, req protocol.VetoRequest) error {
	if req.PlayerID != r.self {
		return nil
	}
	log := r.log.WithFields(logrus.Fields{"window": req.WindowID, "initiator": req.OpponentID})

	if req.AgainstCard.IsCounter() {
		r.ui.ReportError("A counter-card cannot itself be countered here.")
		if err := r.respond(ctx, req, nil); err != nil {
			log.WithError(err).Warn("decline chained veto")
		}
		return fmt.Errorf("window %s: %w", req.WindowID, ErrChainedVeto)
	}

	counter, ok := r.heldCounter(req.Card.ID)
	if !ok {
		log.Debug("no counter-card held, declining")
		return r.respond(ctx, req, nil)
	}

	pctx, cancel := context.WithTimeout(ctx, r.timeout)
	p := &prompt{cancel: cancel}
	r.mu.Lock()
	r.prompts[req.WindowID] = p
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		d := ui.Dialog{
			Title: fmt.Sprintf("%s played %s against you. Play your counter-card?", req.OpponentID, req.AgainstCard.Action),
			Options: []ui.Option{
				{ID: optionPlay, Label: "Just Say No"},
				{ID: optionDecline, Label: "Accept"},
			},
		}
		choice, err := r.ui.ShowChoiceDialog(pctx, d)

		r.mu.Lock()
		delete(r.prompts, req.WindowID)
		withdrawn := p.withdrawn
		r.mu.Unlock()
		if withdrawn {
			log.Debug("solicitation withdrawn")
			return
		}

		var played *card.Card
		if err == nil && choice == optionPlay {
			played = &counter
		}
		if err := r.respond(context.WithoutCancel(ctx), req, played); err != nil {
			log.WithError(err).Warn("answer veto solicitation")
		}
	}()
	return nil
}

// HandleCancel closes the prompt of a withdrawn solicitation.
func (r *Responder) HandleCancel(c protocol.VetoCancel) {
	if c.PlayerID != r.self {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prompts[c.WindowID]; ok {
		p.withdrawn = true
		p.cancel()
	}
}

// HandleDemand offers the local player a counter-card against a demand that
// was already sent to several payers. onCounter runs after a counter is sent.
func (r *Responder) HandleDemand(ctx context.Context, d protocol.RentRequestMsg, counter card.Card, onCounter func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		pctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		dialog := ui.Dialog{
			Title: fmt.Sprintf("%s demands %d from you. Play your counter-card?", d.Recipient, d.Amount),
			Options: []ui.Option{
				{ID: optionPlay, Label: "Just Say No"},
				{ID: optionDecline, Label: "Pay"},
			},
		}
		choice, err := r.ui.ShowChoiceDialog(pctx, dialog)
		if err != nil || choice != optionPlay {
			return
		}
		resp := protocol.VetoResponse{
			Action:      protocol.ActionJustSayNoResponse,
			DemandID:    d.DemandID,
			PlayerID:    r.self,
			OpponentID:  d.Recipient,
			PlayCounter: true,
			Card:        &counter,
		}
		if _, err := r.outbox.Send(context.WithoutCancel(ctx), resp); err != nil {
			r.log.WithError(err).WithField("demand", d.DemandID).Warn("counter demand")
			return
		}
		if onCounter != nil {
			onCounter()
		}
	}()
}

// Wait blocks until every open prompt has been answered.
func (r *Responder) Wait() {
	r.wg.Wait()
}

func (r *Responder) heldCounter(preferred string) (card.Card, bool) {
	v := r.views.Current()
	if v == nil || v.Self == nil {
		return card.Card{}, false
	}
	if c, ok := card.Find(v.Self.Hand, preferred); ok && c.IsCounter() {
		return c, true
	}
	return FindCounterCard(v.Self)
}

func (r *Responder) respond(ctx context.Context, req protocol.VetoRequest, played *card.Card) error {
	resp := protocol.VetoResponse{
		Action:      protocol.ActionJustSayNoResponse,
		WindowID:    req.WindowID,
		PlayerID:    r.self,
		OpponentID:  req.OpponentID,
		PlayCounter: played != nil,
		Card:        played,
	}
	_, err := r.outbox.Send(ctx, resp)
	return err
}
