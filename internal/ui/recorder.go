package ui

import (
	"context"
	"sync"
)

// Recorder is a Reporter that records every call and answers dialogs from a
// script. It backs the core's tests and headless runs.
type Recorder struct {
	mu      sync.Mutex
	Errors  []string
	Events  []Event
	Dialogs []Dialog
	Waiting [][]string

	// Answer picks an option for a dialog. When nil the first option is
	// chosen; an empty answer dismisses the dialog.
	Answer func(d Dialog) string
	// Block makes dialogs wait for ctx instead of answering.
	Block bool
}

func (r *Recorder) ReportError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}

func (r *Recorder) ReportEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

func (r *Recorder) ShowChoiceDialog(ctx context.Context, d Dialog) (string, error) {
	r.mu.Lock()
	r.Dialogs = append(r.Dialogs, d)
	answer, block := r.Answer, r.Block
	r.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if answer == nil {
		if len(d.Options) == 0 {
			return "", ErrDismissed
		}
		return d.Options[0].ID, nil
	}
	if id := answer(d); id != "" {
		return id, nil
	}
	return "", ErrDismissed
}

func (r *Recorder) ShowWaitingIndicator(recipients []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]string, len(recipients))
	copy(cp, recipients)
	r.Waiting = append(r.Waiting, cp)
}

// Snapshot returns copies of everything recorded so far.
func (r *Recorder) Snapshot() (errs []string, events []Event, dialogs []Dialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs = append(errs, r.Errors...)
	events = append(events, r.Events...)
	dialogs = append(dialogs, r.Dialogs...)
	return errs, events, dialogs
}

// LastWaiting returns the most recent waiting indicator contents.
func (r *Recorder) LastWaiting() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Waiting) == 0 {
		return nil
	}
	return r.Waiting[len(r.Waiting)-1]
}
