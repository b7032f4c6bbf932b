// Package transport owns the persistent duplex connection to the game
// server: text frames out through a buffered writer, text frames in through
// one message callback.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

// ErrClosed is returned by Send after the connection has been closed.
var ErrClosed = errors.New("connection closed")

// Options configures Dial.
type Options struct {
	// SendQueue is the number of outbound frames buffered ahead of the writer.
	SendQueue int
	Header    http.Header
	Log       logrus.FieldLogger
}

// Conn is a client connection. Frames passed to Send are written in order by
// a single writer goroutine started by Run.
type Conn struct {
	ws   *websocket.Conn
	log  logrus.FieldLogger
	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	mu        sync.Mutex
	onMessage func([]byte)
}

// Dial opens a connection to url.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: opts.Header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	// Full snapshots can exceed the default 32KiB read limit.
	ws.SetReadLimit(1 << 20)
	return newConn(ws, opts), nil
}

func newConn(ws *websocket.Conn, opts Options) *Conn {
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.Log == nil {
		l := logrus.New()
		opts.Log = l
	}
	return &Conn{
		ws:   ws,
		log:  opts.Log,
		send: make(chan []byte, opts.SendQueue),
		done: make(chan struct{}),
	}
}

// OnMessage installs the inbound callback, replacing any previous one.
// It is called from the reader goroutine, one frame at a time.
func (c *Conn) OnMessage(fn func(frame []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// Send queues one text frame for writing. It blocks only while the queue is
// full.
func (c *Conn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run pumps frames in both directions until ctx is cancelled, the server
// closes the connection or Close is called. A normal closure returns nil.
func (c *Conn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writeErr := make(chan error, 1)
	go func() { writeErr <- c.writeLoop(ctx) }()

	err := c.readLoop(ctx)
	cancel()
	c.Close()
	if werr := <-writeErr; err == nil {
		err = werr
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case frame := <-c.send:
			if err := c.ws.Write(ctx, websocket.MessageText, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-c.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Conn) readLoop(ctx context.Context) error {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			return err
		}
		if typ != websocket.MessageText {
			c.log.WithField("bytes", len(data)).Warn("dropping binary frame")
			continue
		}
		c.mu.Lock()
		fn := c.onMessage
		c.mu.Unlock()
		if fn != nil {
			fn(data)
		}
	}
}

// Close stops the writer and closes the connection. It is safe to call more
// than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close(websocket.StatusNormalClosure, "")
	})
	return err
}
