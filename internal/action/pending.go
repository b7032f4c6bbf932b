package action

import (
	"context"
	"errors"
	"fmt"

	"dealclient/internal/card"
	"dealclient/internal/ui"
	"dealclient/internal/veto"
)

var (
	// ErrIllegal matches every *ValidationError.
	ErrIllegal = errors.New("illegal action")
	// ErrActionPending is returned by Begin while another action is open.
	ErrActionPending = errors.New("another action is already in progress")
	// ErrNoPending is returned when there is no open action.
	ErrNoPending = errors.New("no action in progress")
	// ErrMissingInput is returned by Finalize when a required choice is unset.
	ErrMissingInput = errors.New("required choice missing")
	// ErrCancelled is returned when the player abandons the action.
	ErrCancelled = errors.New("action cancelled")
	// ErrAlreadySent is returned when cancelling an action already on the wire.
	ErrAlreadySent = errors.New("action already sent")
)

// ValidationError is a local legality failure. It is reported to the player
// and never sent to the server.
type ValidationError struct {
	Kind   card.ActionKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrIllegal }

func illegal(kind card.ActionKind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Status is the lifecycle stage of a pending action.
type Status string

const (
	StatusCollecting   Status = "collecting-input"
	StatusAwaitingVeto Status = "awaiting-veto-window"
	StatusSent         Status = "sent"
	StatusResolved     Status = "resolved"
	StatusAborted      Status = "aborted"
)

// Field names one choice the local player may have to make.
type Field string

const (
	FieldColor      Field = "color"
	FieldOpponent   Field = "opponent"
	FieldTargetCard Field = "target_card"
	FieldTargetSet  Field = "target_set"
	FieldOwnCard    Field = "own_card"
	FieldDoubleRent Field = "double_rent"
)

const (
	yes = "yes"
	no  = "no"
)

// Prompt describes the next choice a pending action needs.
type Prompt struct {
	Field   Field
	Title   string
	Options []ui.Option
	// Auto lets the engine pick the only option without asking.
	Auto bool
}

// Dialog converts p for the presentation layer.
func (p *Prompt) Dialog() ui.Dialog {
	return ui.Dialog{Title: p.Title, Options: p.Options}
}

// Pending is one locally initiated action on its way to the server.
type Pending struct {
	ID        string
	Kind      card.ActionKind
	Card      card.Card
	Initiator string
	Status    Status
	// Veto is set when a counter-card negotiation took place.
	Veto veto.Outcome
	// Payload is the exact frame assembled for the server.
	Payload []byte

	choices map[Field]string
	cancel  context.CancelFunc
}

// Choice returns the value collected for f.
func (p *Pending) Choice(f Field) (string, bool) {
	v, ok := p.choices[f]
	return v, ok
}

func (p *Pending) set(f Field, v string) {
	if p.choices == nil {
		p.choices = make(map[Field]string)
	}
	p.choices[f] = v
}

// Copy returns a detached copy safe to hand to callers.
func (p *Pending) Copy() Pending {
	cp := *p
	cp.choices = make(map[Field]string, len(p.choices))
	for k, v := range p.choices {
		cp.choices[k] = v
	}
	cp.cancel = nil
	return cp
}
