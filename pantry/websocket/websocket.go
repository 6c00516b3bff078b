// websocket/websocket.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Conn wraps a WebSocket connection. Writes are serialized; reads must come
// from a single goroutine.
type Conn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// AcceptOptions configures the upgrade.
type AcceptOptions struct {
	// OriginPatterns lists host patterns allowed in the Origin header in
	// addition to the request's own host, e.g. "app.example.com" or
	// "*.example.com".
	OriginPatterns []string

	// InsecureSkipVerify disables origin checks. Development only.
	InsecureSkipVerify bool
}

// Accept upgrades the request. On failure Accept has already written an
// HTTP error response.
func Accept(w http.ResponseWriter, r *http.Request, opts *AcceptOptions) (*Conn, error) {
	var wsOpts *websocket.AcceptOptions
	if opts != nil {
		wsOpts = &websocket.AcceptOptions{
			OriginPatterns:     opts.OriginPatterns,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}
	}
	conn, err := websocket.Accept(w, r, wsOpts)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

// Close closes the connection with a normal closure.
func (c *Conn) Close() error {
	return c.CloseWithReason(StatusNormalClosure, "")
}

// CloseWithReason closes the connection with the given code. Repeat calls
// are no-ops.
func (c *Conn) CloseWithReason(code StatusCode, reason string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close(websocket.StatusCode(code), reason)
}

// ReadText blocks for the next text message.
func (c *Conn) ReadText(ctx context.Context) ([]byte, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, ErrExpectedTextMessage
	}
	return data, nil
}

// WriteJSON sends v as a single text message.
func (c *Conn) WriteJSON(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("websocket: encode: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	return c.conn.Write(ctx, websocket.MessageText, b)
}

// Ping sends a ping and waits for the pong.
func (c *Conn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// SetReadLimit caps the size of a single incoming message.
func (c *Conn) SetReadLimit(limit int64) {
	c.conn.SetReadLimit(limit)
}

// StatusCode is a WebSocket close code.
type StatusCode int

const (
	StatusNormalClosure = StatusCode(websocket.StatusNormalClosure)
	StatusGoingAway     = StatusCode(websocket.StatusGoingAway)
	StatusInternalError = StatusCode(websocket.StatusInternalError)
)

// Config holds per-connection limits.
type Config struct {
	// WriteTimeout bounds a single reply. Zero means no timeout.
	WriteTimeout time.Duration

	// PingInterval is how often to ping the peer. Zero disables pings.
	PingInterval time.Duration

	// PongTimeout defaults to PingInterval.
	PongTimeout time.Duration

	// MaxMessageSize defaults to 32KB in the underlying library.
	MaxMessageSize int64
}

// DefaultConfig returns the limits used for live form validation.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 16 * 1024,
	}
}

// HandleFunc handles one text message and returns the reply to send, or nil
// for no reply. A returned error ends the connection.
type HandleFunc func(ctx context.Context, msg []byte) (any, error)

// Serve runs a request/reply loop until ctx ends, the peer closes, or handle
// fails. Messages are handled strictly in arrival order.
func Serve(ctx context.Context, conn *Conn, cfg Config, handle HandleFunc) error {
	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.PingInterval > 0 {
		go keepalive(ctx, conn, cfg)
	}

	for {
		msg, err := conn.ReadText(ctx)
		if err != nil {
			return err
		}
		reply, err := handle(ctx, msg)
		if err != nil {
			return err
		}
		if reply == nil {
			continue
		}
		if err := writeWithTimeout(ctx, conn, cfg.WriteTimeout, reply); err != nil {
			return err
		}
	}
}

func writeWithTimeout(ctx context.Context, conn *Conn, timeout time.Duration, v any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return conn.WriteJSON(ctx, v)
}

func keepalive(ctx context.Context, conn *Conn, cfg Config) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	pongTimeout := cfg.PongTimeout
	if pongTimeout == 0 {
		pongTimeout = cfg.PingInterval
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pongTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				_ = conn.CloseWithReason(StatusGoingAway, "ping timeout")
				return
			}
		}
	}
}
