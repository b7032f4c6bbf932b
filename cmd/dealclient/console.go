package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"dealclient/internal/ui"
)

// console is a line-oriented Reporter. While a dialog is open the next input
// line answers it; otherwise lines are commands.
type console struct {
	out io.Writer

	// turn serializes dialogs so only one waits for input at a time.
	turn chan struct{}

	mu     sync.Mutex
	answer chan string
}

func newConsole(out io.Writer) *console {
	return &console{out: out, turn: make(chan struct{}, 1)}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) ReportError(message string) {
	c.printf("! %s\n", message)
}

func (c *console) ReportEvent(e ui.Event) {
	c.printf("* %s\n", e.Message)
}

func (c *console) ShowWaitingIndicator(recipients []string) {
	if len(recipients) == 0 {
		c.printf("~ all payments received\n")
		return
	}
	c.printf("~ waiting on %s\n", strings.Join(recipients, ", "))
}

func (c *console) ShowChoiceDialog(ctx context.Context, d ui.Dialog) (string, error) {
	select {
	case c.turn <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.turn }()

	answer := make(chan string, 1)
	c.mu.Lock()
	fmt.Fprintf(c.out, "? %s\n", d.Title)
	for i, o := range d.Options {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, o.Label)
	}
	fmt.Fprintln(c.out, "  (empty line to dismiss)")
	c.answer = answer
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.answer = nil
		c.mu.Unlock()
	}()

	select {
	case line := <-answer:
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(d.Options) {
			return d.Options[n-1].ID, nil
		}
		if d.Has(line) {
			return line, nil
		}
		return "", ui.ErrDismissed
	case <-ctx.Done():
		c.printf("  (no answer)\n")
		return "", ctx.Err()
	}
}

// offer hands line to the open dialog. It reports false when no dialog is
// waiting.
func (c *console) offer(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.answer == nil {
		return false
	}
	c.answer <- line
	c.answer = nil
	return true
}
