// Package discord owns the single presence connection and its lifecycle.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrNoConnection is returned when publishing without an open connection.
	ErrNoConnection = errors.New("no presence connection")
	// ErrDiscordFailed wraps transport failures.
	ErrDiscordFailed = errors.New("discord ipc failed")
)

// Client holds at most one open Transport. Every method holds the lock for
// its whole duration, so transport calls never interleave.
type Client struct {
	mu       sync.Mutex
	dial     Dialer
	conn     Transport
	clientID string
	log      zerolog.Logger
}

// NewClient creates a disconnected client. A nil dialer uses IPCDialer.
func NewClient(dial Dialer, logger zerolog.Logger) *Client {
	if dial == nil {
		dial = IPCDialer
	}
	return &Client{
		dial: dial,
		log:  logger.With().Str("component", "discord").Logger(),
	}
}

// Reconcile makes the connection state match the settings: closed when
// disabled, bound to clientID when enabled. It never publishes.
func (c *Client) Reconcile(ctx context.Context, clientID string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && (!enabled || c.clientID != clientID) {
		c.log.Debug().Str("client_id", c.clientID).Bool("enabled", enabled).Msg("closing presence connection")
		c.dropLocked()
	}

	if c.conn != nil || !enabled {
		return nil
	}

	t := c.dial(clientID)
	if err := t.Connect(ctx); err != nil {
		return fmt.Errorf("%w: connect: %w", ErrDiscordFailed, err)
	}

	c.conn = t
	c.clientID = clientID
	c.log.Info().Str("client_id", clientID).Msg("presence connected")
	return nil
}

// Publish sends the activity. A transport failure drops the connection so
// the next Reconcile opens a fresh one.
func (c *Client) Publish(ctx context.Context, a Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNoConnection
	}

	if err := c.conn.SetActivity(ctx, a); err != nil {
		c.log.Warn().Err(err).Msg("set activity failed, dropping connection")
		c.dropLocked()
		return fmt.Errorf("%w: set activity: %w", ErrDiscordFailed, err)
	}
	return nil
}

// Clear removes the shown activity. It is a no-op without a connection.
func (c *Client) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.log.Trace().Msg("clearing activity")
	if err := c.conn.ClearActivity(ctx); err != nil {
		c.log.Warn().Err(err).Msg("clear activity failed, dropping connection")
		c.dropLocked()
		return fmt.Errorf("%w: clear activity: %w", ErrDiscordFailed, err)
	}
	return nil
}

// Shutdown closes the connection if one is open.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.clientID = ""
	if err != nil {
		return fmt.Errorf("%w: close: %w", ErrDiscordFailed, err)
	}
	return nil
}

// ClientID returns the id of the open connection, or "" when disconnected.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) dropLocked() {
	if err := c.conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close presence connection")
	}
	c.conn = nil
	c.clientID = ""
}
