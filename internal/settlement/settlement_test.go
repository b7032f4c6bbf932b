package settlement

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"dealclient/internal/ui"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestBook(t *testing.T, self string) (*Book, *ui.Recorder) {
	t.Helper()
	rec := &ui.Recorder{}
	return NewBook(self, rec, time.Minute, quietLogger()), rec
}

func TestTrackerBasics(t *testing.T) {
	tr := NewTracker("d1", "A", []string{"B", "C", "A", "C", "D"}, 2, time.Now())
	if tr.Total() != 3 {
		t.Fatalf("expected 3 distinct payers excluding recipient, got %d", tr.Total())
	}
	if _, err := tr.Settle("Z"); !errors.Is(err, ErrNotObligated) {
		t.Fatalf("expected ErrNotObligated, got %v", err)
	}
	if changed, _ := tr.Settle("B"); !changed {
		t.Fatal("first payment should change the tracker")
	}
	if changed, _ := tr.Settle("B"); changed {
		t.Fatal("duplicate payment should be absorbed")
	}
	if fmt.Sprint(tr.Waiting()) != "[C D]" {
		t.Fatalf("waiting = %v", tr.Waiting())
	}
	tr.Settle("C")
	if tr.Resolved() {
		t.Fatal("not resolved until every payer settles")
	}
	tr.Settle("D")
	if !tr.Resolved() || len(tr.Waiting()) != 0 {
		t.Fatal("expected resolved tracker")
	}
}

func TestResolutionIffAllPaid(t *testing.T) {
	payers := []string{"B", "C", "D", "E"}
	for n := 0; n <= len(payers); n++ {
		tr := NewTracker("d", "A", payers, 2, time.Now())
		for _, p := range payers[:n] {
			tr.Settle(p)
			tr.Settle(p)
		}
		if got, want := tr.Resolved(), n == len(payers); got != want {
			t.Fatalf("%d of %d paid: resolved = %v", n, len(payers), got)
		}
		if tr.PaidCount() != n {
			t.Fatalf("paid count = %d, want %d", tr.PaidCount(), n)
		}
	}
}

func TestBookBirthdayScenario(t *testing.T) {
	b, rec := newTestBook(t, "A")
	if tr := b.Track("bday", "A", []string{"B", "C", "D"}, 2); tr == nil {
		t.Fatal("expected tracker for three payers")
	}
	if fmt.Sprint(rec.LastWaiting()) != "[B C D]" {
		t.Fatalf("waiting = %v", rec.LastWaiting())
	}

	b.Settle("bday", "B")
	b.Settle("bday", "C")
	tr, ok := b.Get("bday")
	if !ok || tr.PaidCount() != 2 || tr.Total() != 3 {
		t.Fatalf("tracker = %+v, %v", tr, ok)
	}
	if fmt.Sprint(rec.LastWaiting()) != "[D]" {
		t.Fatalf("waiting = %v", rec.LastWaiting())
	}

	b.Settle("bday", "D")
	if _, ok := b.Get("bday"); ok {
		t.Fatal("resolved tracker should be discarded")
	}
	if len(rec.LastWaiting()) != 0 {
		t.Fatalf("indicator should be hidden, got %v", rec.LastWaiting())
	}

	b.Settle("bday", "D")
	if b.Track("bday", "A", []string{"B", "C", "D"}, 2) != nil {
		t.Fatal("resolved demand must not re-open")
	}
	if b.Open() != 0 {
		t.Fatalf("open = %d", b.Open())
	}
}

func TestBookSinglePayerIsNotTracked(t *testing.T) {
	b, _ := newTestBook(t, "A")
	if b.Track("debt", "A", []string{"B"}, 5) != nil {
		t.Fatal("single payer demand should not be tracked")
	}
	if b.Open() != 0 {
		t.Fatal("nothing should be open")
	}
}

func TestOwnObligationClearsOnOwnPayment(t *testing.T) {
	b, _ := newTestBook(t, "B")
	b.Track("bday", "A", []string{"B", "C"}, 2)
	b.SetObligation(Obligation{DemandID: "bday", Recipient: "A", Amount: 2})

	b.Settle("bday", "C")
	if _, ok := b.Obligation(); !ok {
		t.Fatal("another player's payment must not clear ours")
	}
	b.Settle("bday", "B")
	if _, ok := b.Obligation(); ok {
		t.Fatal("own payment should clear own obligation")
	}
}

func TestPruneDropsStaleTrackers(t *testing.T) {
	b, _ := newTestBook(t, "A")
	b.Track("d1", "A", []string{"B", "C"}, 2)
	b.Track("d2", "A", []string{"B", "D"}, 2)
	b.Prune([]string{"A", "B", "C"})
	if _, ok := b.Get("d1"); !ok {
		t.Fatal("d1 names only present players")
	}
	if _, ok := b.Get("d2"); ok {
		t.Fatal("d2 names a departed player and should be dropped")
	}
}

func TestSweepExpiresOldTrackers(t *testing.T) {
	b, rec := newTestBook(t, "A")
	now := time.Now()
	b.now = func() time.Time { return now }
	b.Track("old", "A", []string{"B", "C"}, 2)

	now = now.Add(2 * time.Minute)
	expired := b.Sweep()
	if len(expired) != 1 || expired[0].DemandID != "old" {
		t.Fatalf("expired = %v", expired)
	}
	if b.Open() != 0 || len(rec.LastWaiting()) != 0 {
		t.Fatal("expired tracker should be gone and indicator hidden")
	}
}

func TestSweepForgetsResolvedDemands(t *testing.T) {
	b, _ := newTestBook(t, "A")
	now := time.Now()
	b.now = func() time.Time { return now }
	b.Track("bday", "A", []string{"B", "C"}, 2)
	b.Settle("bday", "B")
	b.Settle("bday", "C")

	if b.Track("bday", "A", []string{"B", "C"}, 2) != nil {
		t.Fatal("a resolved demand must not be tracked again")
	}
	now = now.Add(30 * time.Second)
	b.Sweep()
	if _, ok := b.resolved["bday"]; !ok {
		t.Fatal("resolved id dropped before the timeout")
	}

	now = now.Add(time.Minute)
	b.Sweep()
	if len(b.resolved) != 0 {
		t.Fatalf("resolved ids should age out, have %d", len(b.resolved))
	}
}
