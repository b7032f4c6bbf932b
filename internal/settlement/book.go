package settlement

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealclient/internal/ui"
)

// Obligation is a demand the local player still has to answer.
type Obligation struct {
	DemandID  string `json:"demand_id"`
	Recipient string `json:"recipient"`
	Amount    int    `json:"amount"`
}

// Book holds every open tracker plus the local player's own obligation.
type Book struct {
	self    string
	ui      ui.Reporter
	timeout time.Duration
	log     logrus.FieldLogger
	now     func() time.Time

	mu         sync.Mutex
	trackers   map[string]*Tracker
	resolved   map[string]time.Time
	obligation *Obligation
}

// NewBook creates a book for the local player. Trackers still open after
// timeout are discarded by Sweep.
func NewBook(self string, reporter ui.Reporter, timeout time.Duration, log logrus.FieldLogger) *Book {
	return &Book{
		self:     self,
		ui:       reporter,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
		trackers: make(map[string]*Tracker),
		resolved: make(map[string]time.Time),
	}
}

// Track opens a tracker when obligated names more than one payer. It returns
// nil for single-payer demands and for demands already tracked or resolved.
func (b *Book) Track(demandID, recipient string, obligated []string, amount int) *Tracker {
	b.mu.Lock()
	if _, ok := b.trackers[demandID]; ok {
		b.mu.Unlock()
		return nil
	}
	if _, ok := b.resolved[demandID]; ok {
		b.mu.Unlock()
		return nil
	}
	t := NewTracker(demandID, recipient, obligated, amount, b.now())
	if t.Total() < 2 {
		b.mu.Unlock()
		return nil
	}
	b.trackers[demandID] = t
	waiting := t.Waiting()
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{"demand": demandID, "payers": t.Total()}).Debug("tracking demand")
	b.ui.ShowWaitingIndicator(waiting)
	return t
}

// Settle records a payment or counter from payer. It is a no-op for
// duplicate payers and for demands that already resolved.
func (b *Book) Settle(demandID, payer string) {
	b.mu.Lock()
	ownCleared := false
	if b.obligation != nil && b.obligation.DemandID == demandID && payer == b.self {
		b.obligation = nil
		ownCleared = true
	}
	t, ok := b.trackers[demandID]
	if !ok {
		b.mu.Unlock()
		if ownCleared {
			b.log.WithField("demand", demandID).Debug("own obligation cleared")
		}
		return
	}
	changed, err := t.Settle(payer)
	if err != nil {
		b.mu.Unlock()
		b.log.WithError(err).Warn("ignoring payment")
		return
	}
	if !changed {
		b.mu.Unlock()
		return
	}
	resolved := t.Resolved()
	if resolved {
		delete(b.trackers, demandID)
		b.resolved[demandID] = b.now()
	}
	waiting := t.Waiting()
	b.mu.Unlock()

	log := b.log.WithFields(logrus.Fields{"demand": demandID, "payer": payer})
	if resolved {
		log.Info("demand settled")
		b.ui.ShowWaitingIndicator(nil)
		return
	}
	log.WithField("waiting", waiting).Debug("payment recorded")
	b.ui.ShowWaitingIndicator(waiting)
}

// Get returns the open tracker for demandID.
func (b *Book) Get(demandID string) (*Tracker, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.trackers[demandID]
	return t, ok
}

// Open returns the number of unresolved trackers.
func (b *Book) Open() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.trackers)
}

// SetObligation records a demand the local player must answer.
func (b *Book) SetObligation(o Obligation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.obligation = &o
}

// ClearObligation drops the local obligation for demandID.
func (b *Book) ClearObligation(demandID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.obligation != nil && b.obligation.DemandID == demandID {
		b.obligation = nil
	}
}

// Obligation returns the local player's outstanding obligation.
func (b *Book) Obligation() (Obligation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.obligation == nil {
		return Obligation{}, false
	}
	return *b.obligation, true
}

// Prune drops trackers that name a player absent from players. Such trackers
// refer to a stale state and the next snapshot is authoritative.
func (b *Book) Prune(players []string) {
	present := make(map[string]struct{}, len(players))
	for _, p := range players {
		present[p] = struct{}{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.trackers {
		stale := false
		if _, ok := present[t.Recipient]; !ok {
			stale = true
		}
		for _, o := range t.obligated {
			if _, ok := present[o]; !ok {
				stale = true
			}
		}
		if stale {
			b.log.WithField("demand", id).Info("dropping stale demand")
			delete(b.trackers, id)
		}
	}
}

// Sweep discards trackers older than the timeout and returns them. Resolved
// demand ids are forgotten after the same timeout; a late echo is not
// expected that long after settlement.
func (b *Book) Sweep() []*Tracker {
	b.mu.Lock()
	now := b.now()
	var expired []*Tracker
	for id, t := range b.trackers {
		if now.Sub(t.Created) > b.timeout {
			expired = append(expired, t)
			delete(b.trackers, id)
		}
	}
	for id, at := range b.resolved {
		if now.Sub(at) > b.timeout {
			delete(b.resolved, id)
		}
	}
	open := len(b.trackers)
	b.mu.Unlock()

	for _, t := range expired {
		b.log.WithFields(logrus.Fields{"demand": t.DemandID, "waiting": t.Waiting()}).Warn("demand wait expired")
	}
	if len(expired) > 0 && open == 0 {
		b.ui.ShowWaitingIndicator(nil)
	}
	return expired
}

// SweepLoop calls Sweep every interval until stop is closed.
func (b *Book) SweepLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.Sweep()
		}
	}
}
