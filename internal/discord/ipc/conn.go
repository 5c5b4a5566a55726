package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

var (
	// ErrClosed is returned after the peer sent a close frame or Close was called.
	ErrClosed = errors.New("ipc connection closed")
	// ErrNoSocket is returned when no Discord IPC endpoint accepts a connection.
	ErrNoSocket = errors.New("no discord ipc socket found")
)

// Timestamps are epoch seconds; zero is omitted.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
}

// Activity is the SET_ACTIVITY payload.
type Activity struct {
	Type       int         `json:"type"`
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
}

// ActivityListening is the "Listening to" activity type.
const ActivityListening = 2

// RPCError is an ERROR event returned by the Discord client.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("discord rpc error %d: %s", e.Code, e.Message)
}

type handshake struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args"`
	Nonce string `json:"nonce"`
}

type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// closeTimeout bounds the farewell frame written by Close.
const closeTimeout = time.Second

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Conn is a handshaken IPC connection bound to one application id.
type Conn struct {
	mu       sync.Mutex
	rw       io.ReadWriteCloser
	clientID string
	pid      int
	closed   bool
}

// Dial connects to the first reachable Discord IPC endpoint and performs
// the handshake for clientID.
func Dial(ctx context.Context, clientID string) (*Conn, error) {
	var lastErr error
	for _, path := range SocketPaths() {
		rw, err := dialPath(ctx, path)
		if err != nil {
			lastErr = err
			continue
		}

		c := NewConn(rw, clientID)
		if err := c.Handshake(ctx); err != nil {
			_ = rw.Close()
			return nil, fmt.Errorf("handshake on %s: %w", path, err)
		}
		return c, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSocket, lastErr)
	}
	return nil, ErrNoSocket
}

// NewConn wraps an open stream. Handshake must be called before use.
func NewConn(rw io.ReadWriteCloser, clientID string) *Conn {
	return &Conn{rw: rw, clientID: clientID, pid: os.Getpid()}
}

// ClientID returns the application id the connection was opened for.
func (c *Conn) ClientID() string {
	return c.clientID
}

// Handshake sends the version handshake and waits for the READY dispatch.
func (c *Conn) Handshake(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.applyDeadline(ctx)()

	payload, err := sonic.Marshal(handshake{V: 1, ClientID: c.clientID})
	if err != nil {
		return err
	}
	if err := WriteFrame(c.rw, OpHandshake, payload); err != nil {
		return fmt.Errorf("write handshake: %w", err)
	}

	resp, err := c.readResponse()
	if err != nil {
		return err
	}
	if resp.Evt != "READY" {
		return fmt.Errorf("unexpected handshake reply %q", resp.Evt)
	}
	return nil
}

// SetActivity replaces the presence shown for this process. A nil activity
// clears it.
func (c *Conn) SetActivity(ctx context.Context, a *Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	defer c.applyDeadline(ctx)()

	nonce := uuid.NewString()
	payload, err := sonic.Marshal(command{
		Cmd:   "SET_ACTIVITY",
		Args:  activityArgs{PID: c.pid, Activity: a},
		Nonce: nonce,
	})
	if err != nil {
		return err
	}
	if err := WriteFrame(c.rw, OpFrame, payload); err != nil {
		return fmt.Errorf("write SET_ACTIVITY: %w", err)
	}

	for {
		resp, err := c.readResponse()
		if err != nil {
			return err
		}
		if resp.Nonce != nonce {
			continue
		}
		if resp.Evt == "ERROR" {
			rpcErr := &RPCError{}
			if err := sonic.Unmarshal(resp.Data, rpcErr); err != nil {
				return fmt.Errorf("decode error reply: %w", err)
			}
			return rpcErr
		}
		return nil
	}
}

// Close sends a close frame and closes the stream.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if d, ok := c.rw.(deadliner); ok {
		_ = d.SetDeadline(time.Now().Add(closeTimeout))
	}
	writeErr := WriteFrame(c.rw, OpClose, []byte("{}"))
	closeErr := c.rw.Close()
	if closeErr != nil {
		return closeErr
	}
	if writeErr != nil && !errors.Is(writeErr, io.ErrClosedPipe) && !errors.Is(writeErr, os.ErrDeadlineExceeded) {
		return fmt.Errorf("write close: %w", writeErr)
	}
	return nil
}

// readResponse reads frames until a dispatch frame arrives, answering pings.
func (c *Conn) readResponse() (response, error) {
	for {
		op, payload, err := ReadFrame(c.rw)
		if err != nil {
			return response{}, fmt.Errorf("read frame: %w", err)
		}

		switch op {
		case OpFrame:
			var resp response
			if err := sonic.Unmarshal(payload, &resp); err != nil {
				return response{}, fmt.Errorf("decode frame: %w", err)
			}
			return resp, nil
		case OpPing:
			if err := WriteFrame(c.rw, OpPong, payload); err != nil {
				return response{}, fmt.Errorf("write pong: %w", err)
			}
		case OpClose:
			c.closed = true
			_ = c.rw.Close()
			var rpcErr RPCError
			_ = sonic.Unmarshal(payload, &rpcErr)
			if rpcErr.Message != "" {
				return response{}, fmt.Errorf("%w: %w", ErrClosed, &rpcErr)
			}
			return response{}, ErrClosed
		default:
			// pong and unknown frames carry nothing we wait for
		}
	}
}

// applyDeadline mirrors the context deadline onto the stream when it
// supports deadlines. The returned func clears it.
func (c *Conn) applyDeadline(ctx context.Context) func() {
	d, ok := c.rw.(deadliner)
	if !ok {
		return func() {}
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() {}
	}
	_ = d.SetDeadline(deadline)
	return func() { _ = d.SetDeadline(time.Time{}) }
}
