package dispatch

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCompletionOrderMatchesEnqueueOrder(t *testing.T) {
	d := New[int](context.Background(), quietLogger())
	defer d.Close()

	r := rand.New(rand.NewSource(42))
	var mu sync.Mutex
	var done []int
	var running atomic.Int32

	const n = 50
	for i := 0; i < n; i++ {
		delay := time.Duration(r.Intn(3000)) * time.Microsecond
		err := d.Enqueue(i, func(ctx context.Context, msg int) error {
			if running.Add(1) != 1 {
				t.Errorf("handlers ran concurrently at message %d", msg)
			}
			defer running.Add(-1)
			time.Sleep(delay)
			mu.Lock()
			done = append(done, msg)
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Wait()

	if len(done) != n {
		t.Fatalf("expected %d completions, got %d", n, len(done))
	}
	for i, v := range done {
		if v != i {
			t.Fatalf("completion %d was message %d", i, v)
		}
	}
}

func TestEnqueueDoesNotBlock(t *testing.T) {
	d := New[string](context.Background(), quietLogger())
	defer d.Close()

	release := make(chan struct{})
	d.Enqueue("slow", func(ctx context.Context, msg string) error {
		<-release
		return nil
	})

	start := time.Now()
	if err := d.Enqueue("next", func(ctx context.Context, msg string) error { return nil }); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("enqueue blocked behind in-flight handler")
	}
	if d.Len() != 1 {
		t.Fatalf("expected 1 queued message, got %d", d.Len())
	}
	close(release)
	d.Wait()
}

func TestFailuresDoNotStallQueue(t *testing.T) {
	d := New[int](context.Background(), quietLogger())
	defer d.Close()

	var got []int
	d.Enqueue(1, func(ctx context.Context, msg int) error { return errors.New("bad message") })
	d.Enqueue(2, func(ctx context.Context, msg int) error { panic("boom") })
	d.Enqueue(3, func(ctx context.Context, msg int) error {
		got = append(got, msg)
		return nil
	})
	d.Wait()

	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected message 3 handled after failures, got %v", got)
	}
}

func TestCloseRejectsAndCancels(t *testing.T) {
	d := New[int](context.Background(), quietLogger())

	started := make(chan struct{})
	var cancelled atomic.Bool
	d.Enqueue(1, func(ctx context.Context, msg int) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	var ranSecond atomic.Bool
	d.Enqueue(2, func(ctx context.Context, msg int) error {
		ranSecond.Store(true)
		return nil
	})
	<-started
	d.Close()

	if !cancelled.Load() {
		t.Fatal("expected in-flight handler context to be cancelled")
	}
	if ranSecond.Load() {
		t.Fatal("queued message should be dropped on close")
	}
	if err := d.Enqueue(3, func(ctx context.Context, msg int) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
