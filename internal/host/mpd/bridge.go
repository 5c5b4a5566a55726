package mpd

import (
	"context"
	"errors"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/rs/zerolog"
)

// Dispatch delivers one host message to the plugin.
type Dispatch func(id host.EventID, ctx any, p1, p2 uint32)

var errWatcherClosed = errors.New("mpd watcher closed")

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	Network  string
	Addr     string
	Password string

	// SettingsPath is watched for changes, each reported as EventConfigChanged.
	// Empty disables the watch.
	SettingsPath string

	ReconnectDelay time.Duration
}

// playerState is what the bridge remembers between idle events.
type playerState struct {
	State  host.PlaybackState
	SongID string
	Song   *Song
}

// Bridge turns MPD "player" idle events into host messages.
type Bridge struct {
	host *Host
	opts BridgeOptions
	log  zerolog.Logger

	prev   playerState
	synced bool
}

// NewBridge creates a Bridge that reads state through h.
func NewBridge(h *Host, opts BridgeOptions, logger zerolog.Logger) *Bridge {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	return &Bridge{
		host: h,
		opts: opts,
		log:  logger.With().Str("component", "mpd-bridge").Logger(),
	}
}

// Run watches MPD until ctx is canceled, reconnecting when the idle
// connection drops.
func (b *Bridge) Run(ctx context.Context, dispatch Dispatch) error {
	var changes <-chan struct{}
	if b.opts.SettingsPath != "" {
		ch, stop, err := watchFile(b.opts.SettingsPath, b.log)
		if err != nil {
			b.log.Warn().Err(err).Str("path", b.opts.SettingsPath).Msg("settings changes will not be picked up")
		} else {
			defer stop()
			changes = ch
		}
	}

	for {
		err := b.session(ctx, dispatch, changes)
		if ctx.Err() != nil {
			return nil
		}

		b.log.Warn().Err(err).Dur("retry_in", b.opts.ReconnectDelay).Msg("mpd watch interrupted")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.opts.ReconnectDelay):
		}
	}
}

func (b *Bridge) session(ctx context.Context, dispatch Dispatch, changes <-chan struct{}) error {
	w, err := mpd.NewWatcher(b.opts.Network, b.opts.Addr, b.opts.Password, "player")
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	b.log.Info().Str("addr", b.opts.Addr).Msg("watching mpd")
	if err := b.sync(dispatch); err != nil {
		return err
	}

	errs := w.Error
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case subsystem, ok := <-w.Event:
			if !ok {
				return errWatcherClosed
			}
			b.log.Trace().Str("subsystem", subsystem).Msg("mpd idle event")
			if err := b.sync(dispatch); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.log.Debug().Err(err).Msg("mpd watcher error")
		case <-changes:
			b.log.Debug().Msg("settings file changed")
			dispatch(host.EventConfigChanged, nil, 0, 0)
		}
	}
}

func (b *Bridge) sync(dispatch Dispatch) error {
	status, song, err := b.host.Snapshot()
	if err != nil {
		return err
	}
	b.apply(playerState{
		State:  playbackState(status["state"]),
		SongID: status["songid"],
		Song:   songFromAttrs(song),
	}, dispatch)
	return nil
}

// apply compares cur with the previous state and dispatches the messages
// the change implies.
func (b *Bridge) apply(cur playerState, dispatch Dispatch) {
	prev := b.prev
	b.prev = cur

	if !b.synced {
		b.synced = true
		// a track already in progress resumes rather than starts, so the
		// elapsed time is kept
		switch cur.State {
		case host.StatePlaying:
			dispatch(host.EventPaused, nil, 0, 0)
		case host.StatePaused:
			dispatch(host.EventPaused, nil, 1, 0)
		}
		return
	}

	for _, t := range derive(prev, cur) {
		if t.id == host.EventSongChanged {
			b.songChanged(prev.Song, cur.Song, dispatch)
			continue
		}
		dispatch(t.id, nil, t.p1, 0)
	}
}

// songChanged holds a reference on both handles for the duration of the
// dispatch, as a host does for message context.
func (b *Bridge) songChanged(from, to *Song, dispatch Dispatch) {
	change := &host.TrackChange{}
	if from != nil {
		b.host.Acquire(from.Identity())
		defer b.release(from)
		change.From = from
	}
	if to != nil {
		b.host.Acquire(to.Identity())
		defer b.release(to)
		change.To = to
	}
	dispatch(host.EventSongChanged, change, 0, 0)
}

func (b *Bridge) release(s *Song) {
	if err := b.host.ItemUnref(s); err != nil {
		b.log.Warn().Err(err).Msg("release song")
	}
}

type transition struct {
	id host.EventID
	p1 uint32
}

// derive maps a player state change onto host events.
func derive(prev, cur playerState) []transition {
	if cur.State == host.StateStopped {
		if prev.State != host.StateStopped {
			return []transition{{id: host.EventStop}}
		}
		return nil
	}

	if prev.State == host.StateStopped || cur.SongID != prev.SongID {
		out := []transition{{id: host.EventSongChanged}}
		if cur.State == host.StatePaused {
			out = append(out, transition{id: host.EventPaused, p1: 1})
		}
		return out
	}

	switch {
	case prev.State == host.StatePlaying && cur.State == host.StatePaused:
		return []transition{{id: host.EventPaused, p1: 1}}
	case prev.State == host.StatePaused && cur.State == host.StatePlaying:
		return []transition{{id: host.EventPaused, p1: 0}}
	default:
		// MPD reports seeks and stream tag updates as bare player events
		return []transition{{id: host.EventSeeked}}
	}
}
