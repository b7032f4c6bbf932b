package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

// --- Test environment ---

// testServer accepts one connection and hands it to serve.
func testServer(t *testing.T, serve func(ctx context.Context, conn *websocket.Conn)) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		serve(r.Context(), conn)
	}))
	t.Cleanup(ts.Close)
	return strings.Replace(ts.URL, "http://", "ws://", 1)
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func dial(t *testing.T, ctx context.Context, url string) *Conn {
	t.Helper()
	c, err := Dial(ctx, url, Options{Log: quietLogger()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

// echo writes every text frame back.
func echo(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if err := conn.Write(ctx, typ, data); err != nil {
			return
		}
	}
}

// --- Tests ---

func TestSendAndReceive(t *testing.T) {
	url := testServer(t, echo)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dial(t, ctx, url)
	got := make(chan string, 1)
	c.OnMessage(func(frame []byte) { got <- string(frame) })

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	if err := c.Send(ctx, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case msg := <-got:
		if msg != `{"type":"ping"}` {
			t.Fatalf("echo = %s", msg)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for echo")
	}

	c.Close()
	if err := <-runErr; err != nil {
		t.Fatalf("run after close: %v", err)
	}
	if err := c.Send(ctx, []byte(`{}`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestFramesWrittenInOrder(t *testing.T) {
	const n = 50
	var mu sync.Mutex
	var received []string
	all := make(chan struct{})
	url := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		for i := 0; i < n; i++ {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			mu.Lock()
			received = append(received, string(data))
			mu.Unlock()
		}
		close(all)
		conn.Read(ctx)
	})
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dial(t, ctx, url)
	defer c.Close()
	go c.Run(ctx)

	for i := 0; i < n; i++ {
		if err := c.Send(ctx, []byte(fmt.Sprintf(`{"seq":%d}`, i))); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	select {
	case <-all:
	case <-ctx.Done():
		t.Fatal("timed out waiting for frames")
	}
	mu.Lock()
	defer mu.Unlock()
	for i, frame := range received {
		if want := fmt.Sprintf(`{"seq":%d}`, i); frame != want {
			t.Fatalf("frame %d = %s, want %s", i, frame, want)
		}
	}
}

func TestServerCloseEndsRun(t *testing.T) {
	url := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Write(ctx, websocket.MessageBinary, []byte{0x1})
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"game_update"}`))
		conn.Close(websocket.StatusNormalClosure, "bye")
	})
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dial(t, ctx, url)
	var frames []string
	c.OnMessage(func(frame []byte) { frames = append(frames, string(frame)) })

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(frames) != 1 || frames[0] != `{"type":"game_update"}` {
		t.Fatalf("binary frames must be dropped, got %v", frames)
	}
	if err := c.Send(ctx, []byte(`{}`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSendRespectsContextWhenQueueFull(t *testing.T) {
	url := testServer(t, func(ctx context.Context, conn *websocket.Conn) { conn.Read(ctx) })
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c, err := Dial(ctx, url, Options{SendQueue: 1, Log: quietLogger()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	// Without Run nothing drains the queue.
	if err := c.Send(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("first send: %v", err)
	}
	sctx, scancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer scancel()
	if err := c.Send(sctx, []byte(`{}`)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	if _, err := Dial(ctx, strings.Replace(ts.URL, "http://", "ws://", 1), Options{}); err == nil {
		t.Fatal("expected dial error for a non-websocket endpoint")
	}
}
