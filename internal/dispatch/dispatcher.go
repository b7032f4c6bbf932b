// Package dispatch serializes handling of inbound messages: handlers run one
// at a time, to completion, in arrival order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("dispatcher closed")

// Handler processes one message. It may block; the next message waits.
type Handler[M any] func(ctx context.Context, msg M) error

type item[M any] struct {
	msg     M
	handler Handler[M]
}

// Dispatcher is a single-consumer FIFO of (message, handler) pairs.
type Dispatcher[M any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger

	mu       sync.Mutex
	idle     *sync.Cond
	queue    []item[M]
	inFlight bool
	closed   bool
}

// New creates a dispatcher whose handlers receive a context derived from ctx.
func New[M any](ctx context.Context, log logrus.FieldLogger) *Dispatcher[M] {
	ctx, cancel := context.WithCancel(ctx)
	d := &Dispatcher[M]{ctx: ctx, cancel: cancel, log: log}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Enqueue appends msg and returns without waiting for the handler.
func (d *Dispatcher[M]) Enqueue(msg M, h Handler[M]) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.queue = append(d.queue, item[M]{msg: msg, handler: h})
	if !d.inFlight {
		d.inFlight = true
		go d.drain()
	}
	return nil
}

// Len returns the number of messages waiting behind the one in flight.
func (d *Dispatcher[M]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *Dispatcher[M]) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 || d.closed {
			d.queue = nil
			d.inFlight = false
			d.idle.Broadcast()
			d.mu.Unlock()
			return
		}
		next := d.queue[0]
		d.queue[0] = item[M]{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if err := d.run(next); err != nil {
			d.log.WithError(err).Warn("message handler failed")
		}
	}
}

// run isolates a handler so one bad message cannot stall the queue.
func (d *Dispatcher[M]) run(it item[M]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return it.handler(d.ctx, it.msg)
}

// Wait blocks until the queue is empty and nothing is in flight.
func (d *Dispatcher[M]) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.inFlight {
		d.idle.Wait()
	}
}

// Close drops queued messages, cancels the handler context and waits for the
// in-flight handler to return.
func (d *Dispatcher[M]) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.Wait()
}
