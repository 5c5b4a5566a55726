// Package plugin is the entry point the host talks to. It maps host
// messages onto presence work and runs that work off the host's thread.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/presence"
	"github.com/hay-kot/nowplaying/internal/timestamp"
	"github.com/hay-kot/nowplaying/pkg/randid"
	"github.com/rs/zerolog"
)

// Result is the status code returned to the host.
type Result int

const (
	ResultOK        Result = 0
	ResultUnhandled Result = 1
	ResultFailed    Result = -1
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultUnhandled:
		return "unhandled"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// ErrNoHostAPI is returned by Load when the host passes no API table.
var ErrNoHostAPI = errors.New("host api is nil")

// workerTimeout bounds a single background update.
const workerTimeout = time.Minute

// Updater performs presence work for one event.
type Updater interface {
	Update(ctx context.Context, ev presence.Event) error
	Clear(ctx context.Context) error
}

// Connection is the lifecycle side of the presence client.
type Connection interface {
	Reconcile(ctx context.Context, clientID string, enabled bool) error
	Shutdown() error
}

// Plugin dispatches host messages.
type Plugin struct {
	api     host.API
	updater Updater
	conn    Connection
	log     zerolog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// Load binds the plugin to the host. It fails only when api is nil.
func Load(api host.API, updater Updater, conn Connection, logger zerolog.Logger) (*Plugin, error) {
	if api == nil {
		return nil, ErrNoHostAPI
	}
	return &Plugin{
		api:     api,
		updater: updater,
		conn:    conn,
		log:     logger.With().Str("component", "plugin").Logger(),
	}, nil
}

// Start opens the presence connection if the settings enable it.
func (p *Plugin) Start() Result {
	if _, err := p.reconcile(context.Background()); err != nil {
		p.log.Warn().Err(err).Msg("start")
		return ResultFailed
	}
	return ResultOK
}

// Stop waits for in-flight workers, then closes the presence connection.
func (p *Plugin) Stop() Result {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.wg.Wait()

	if err := p.conn.Shutdown(); err != nil {
		p.log.Warn().Err(err).Msg("shutdown presence connection")
		return ResultFailed
	}
	return ResultOK
}

// Wait blocks until all scheduled workers have finished.
func (p *Plugin) Wait() {
	p.wg.Wait()
}

// Message handles one host event. It never blocks on network work except
// for the connect performed on a config change.
func (p *Plugin) Message(id host.EventID, ctx any, p1, p2 uint32) Result {
	p.log.Trace().
		Uint32("id", uint32(id)).
		Str("event", id.String()).
		Str("ctx", describe(ctx)).
		Uint32("p1", p1).
		Msg("message received")

	switch id {
	case host.EventConfigChanged:
		return p.configChanged()
	case host.EventSongChanged:
		return p.songChanged(ctx)
	case host.EventSeeked:
		return p.update(id, presence.Event{Status: timestamp.StatusSeeked})
	case host.EventPaused:
		status := timestamp.StatusStart
		if p1 == 1 {
			status = timestamp.StatusPaused
		}
		return p.update(id, presence.Event{Status: status})
	case host.EventStop:
		return p.spawn(id, p.updater.Clear)
	default:
		return ResultUnhandled
	}
}

// reconcile syncs the connection with the stored settings and reports
// whether presence is enabled.
func (p *Plugin) reconcile(ctx context.Context) (bool, error) {
	enabled, clientID, err := settings.ReadEnabled(p.api)
	if err != nil {
		return false, err
	}
	return enabled, p.conn.Reconcile(ctx, clientID, enabled)
}

func (p *Plugin) configChanged() Result {
	enabled, err := p.reconcile(context.Background())
	if err != nil {
		p.log.Warn().Err(err).Msg("reconcile after config change")
		return ResultFailed
	}
	if !enabled {
		return ResultOK
	}

	state, err := p.api.OutputState()
	if err != nil {
		p.log.Debug().Err(err).Msg("get output state")
		return ResultOK
	}

	// refresh so edited scripts show without waiting for the next event
	switch state {
	case host.StatePlaying:
		return p.update(host.EventConfigChanged, presence.Event{Status: timestamp.StatusStart})
	case host.StatePaused:
		return p.update(host.EventConfigChanged, presence.Event{Status: timestamp.StatusPaused})
	default:
		return ResultOK
	}
}

func (p *Plugin) songChanged(ctx any) Result {
	change, ok := ctx.(*host.TrackChange)
	if !ok || change == nil || change.To == nil {
		return p.spawn(host.EventSongChanged, p.updater.Clear)
	}

	ref, err := host.AcquireItem(p.api, change.To)
	if err != nil {
		p.log.Warn().Err(err).Msg("acquire next track")
		return ResultFailed
	}
	defer func() { _ = ref.Release() }()

	owned := ref.Transfer()
	res := p.spawn(host.EventSongChanged, func(ctx context.Context) error {
		defer func() {
			if err := owned.Release(); err != nil {
				p.log.Warn().Err(err).Msg("release next track")
			}
		}()

		ev := presence.Event{Status: timestamp.StatusSongChanged}
		if length, err := p.api.ItemDuration(owned.Get()); err == nil {
			ev.NextLength = &length
		} else {
			p.log.Debug().Err(err).Msg("next track duration unavailable")
		}
		return p.updater.Update(ctx, ev)
	})
	if res != ResultOK {
		_ = owned.Release()
	}
	return res
}

func (p *Plugin) update(id host.EventID, ev presence.Event) Result {
	return p.spawn(id, func(ctx context.Context) error {
		return p.updater.Update(ctx, ev)
	})
}

// spawn runs fn on a new goroutine tracked by the plugin's wait group.
func (p *Plugin) spawn(id host.EventID, fn func(ctx context.Context) error) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ResultFailed
	}

	worker := randid.Generate(6)
	log := p.log.With().Str("worker", worker).Str("event", id.String()).Logger()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()

		log.Trace().Msg("worker started")
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Msg("presence update failed")
			return
		}
		log.Trace().Msg("worker done")
	}()

	return ResultOK
}

func describe(ctx any) string {
	switch v := ctx.(type) {
	case nil:
		return "<nil>"
	case interface{ Identity() string }:
		return v.Identity()
	default:
		return fmt.Sprintf("%T", ctx)
	}
}
