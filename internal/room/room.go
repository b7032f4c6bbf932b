// Package room wires the client components for one game room: it owns the
// dispatcher that orders inbound frames, the reducer holding the working
// snapshot, and the engines built on top of it. A Room lives from room entry
// to room exit.
package room

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealclient/internal/action"
	"dealclient/internal/dispatch"
	"dealclient/internal/protocol"
	"dealclient/internal/settlement"
	"dealclient/internal/state"
	"dealclient/internal/storage"
	"dealclient/internal/ui"
	"dealclient/internal/veto"
)

// Conn is the server connection a room runs over.
type Conn interface {
	protocol.Sender
	OnMessage(fn func(frame []byte))
}

// Options configures Open.
type Options struct {
	Room string
	Self string

	// VetoGrace shortens the local player's counter prompt below
	// VetoTimeout; see veto.PromptTimeout.
	VetoTimeout       time.Duration
	VetoGrace         time.Duration
	SettlementTimeout time.Duration
	DialogTimeout     time.Duration
	// SweepInterval is how often expired demands are discarded.
	SweepInterval time.Duration

	// Store is optional. When set, snapshots are cached and every sent frame
	// and veto outcome is journaled.
	Store *storage.Store
	UI    ui.Reporter
	Log   logrus.FieldLogger
}

// Room is the client side of one game room.
type Room struct {
	opts Options
	log  logrus.FieldLogger

	reducer    *state.Reducer
	dispatcher *dispatch.Dispatcher[[]byte]
	outbox     *protocol.Outbox
	negotiator *veto.Negotiator
	responder  *veto.Responder
	book       *settlement.Book
	engine     *action.Engine

	stop      chan struct{}
	closeOnce sync.Once
}

// Open builds a room on conn and starts routing its frames. The last cached
// snapshot for the room, if any, is applied until the server sends a fresh one.
func Open(ctx context.Context, conn Conn, opts Options) (*Room, error) {
	if opts.Self == "" {
		return nil, errors.New("open room: player id required")
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Second
	}
	log := opts.Log.WithFields(logrus.Fields{"room": opts.Room, "player": opts.Self})

	validator, err := protocol.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("open room: %w", err)
	}
	var (
		journal  protocol.Journal
		recorder veto.Recorder
	)
	if opts.Store != nil {
		rl := storage.NewRoomLog(opts.Store, opts.Room, log)
		journal, recorder = rl, rl
	}

	r := &Room{
		opts: opts,
		log:  log,
		stop: make(chan struct{}),
	}
	r.reducer = state.NewReducer(opts.Self, r.gameOver)
	r.outbox = protocol.NewOutbox(conn, validator, journal)
	r.dispatcher = dispatch.New[[]byte](ctx, log)
	r.negotiator = veto.NewNegotiator(r.outbox, opts.VetoTimeout, recorder, log)
	r.responder = veto.NewResponder(opts.Self, r.outbox, r.reducer, opts.UI,
		veto.PromptTimeout(opts.VetoTimeout, opts.VetoGrace), log)
	r.book = settlement.NewBook(opts.Self, opts.UI, opts.SettlementTimeout, log)
	r.engine = action.NewEngine(action.Config{
		Self:          opts.Self,
		Views:         r.reducer,
		Outbox:        r.outbox,
		Negotiator:    r.negotiator,
		Book:          r.book,
		UI:            opts.UI,
		DialogTimeout: opts.DialogTimeout,
		Log:           log,
	})

	r.restore()
	conn.OnMessage(r.HandleFrame)
	go r.book.SweepLoop(opts.SweepInterval, r.stop)
	return r, nil
}

func (r *Room) restore() {
	if r.opts.Store == nil {
		return
	}
	row, err := r.opts.Store.LoadSnapshot(r.opts.Room)
	if errors.Is(err, sql.ErrNoRows) {
		return
	}
	if err != nil {
		r.log.WithError(err).Warn("load cached snapshot")
		return
	}
	if row.Player != r.opts.Self {
		r.log.WithField("cached_player", row.Player).Info("cached snapshot belongs to another player")
		return
	}
	var snap state.Snapshot
	if err := json.Unmarshal([]byte(row.StateJSON), &snap); err != nil {
		r.log.WithError(err).Warn("decode cached snapshot")
		return
	}
	if _, err := r.reducer.Apply(snap); err != nil {
		r.log.WithError(err).Warn("apply cached snapshot")
		return
	}
	r.log.WithField("updated_at", row.UpdatedAt).Info("restored cached snapshot")
}

// HandleFrame queues an inbound frame. Frames are handled one at a time in
// arrival order.
func (r *Room) HandleFrame(frame []byte) {
	if err := r.dispatcher.Enqueue(frame, r.handle); err != nil {
		r.log.WithError(err).Debug("dropping frame")
	}
}

// Play runs one interactive card play.
func (r *Room) Play(ctx context.Context, cardID string) (action.Pending, error) {
	return r.engine.Play(ctx, cardID)
}

// Cancel abandons the local pending action.
func (r *Room) Cancel() error {
	return r.engine.Cancel()
}

// View returns the latest derived state, or nil before the first snapshot.
func (r *Room) View() *state.View {
	return r.reducer.Current()
}

// Obligation returns the demand the local player still has to answer.
func (r *Room) Obligation() (settlement.Obligation, bool) {
	return r.book.Obligation()
}

// Wait blocks until every queued frame has been handled.
func (r *Room) Wait() {
	r.dispatcher.Wait()
}

// Close tears the room down: queued frames are dropped, open prompts are
// closed and the local pending action is abandoned.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		r.engine.Cancel()
		r.dispatcher.Close()
		r.responder.Wait()
		r.log.Info("left room")
	})
}

func (r *Room) gameOver(o state.Outcome) {
	msg := "The game ended in a tie."
	if !o.Tie {
		msg = fmt.Sprintf("%s wins the game.", o.Winner)
		if o.Winner == r.opts.Self {
			msg = "You win the game!"
		}
	}
	r.log.WithFields(logrus.Fields{"winner": o.Winner, "tie": o.Tie}).Info("game over")
	r.opts.UI.ReportEvent(ui.Event{Kind: ui.EventGameOver, Message: msg})
}
