// Package presence turns playback events into rich presence updates.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/cover"
	"github.com/hay-kot/nowplaying/internal/discord"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/timestamp"
	"github.com/rs/zerolog"
)

// uriMetaKey is the metadata key holding a track's location.
const uriMetaKey = ":URI"

// Event is one unit of work for the engine.
type Event struct {
	Status timestamp.Status
	// NextLength is the length in seconds of the track being switched to,
	// when known. Only meaningful for StatusSongChanged.
	NextLength *float64
}

// Presence is the connection the engine publishes through.
type Presence interface {
	Reconcile(ctx context.Context, clientID string, enabled bool) error
	Publish(ctx context.Context, a discord.Activity) error
	Clear(ctx context.Context) error
}

// CoverResolver finds the large image for an album query.
type CoverResolver interface {
	Resolve(ctx context.Context, query string, source settings.CoverSource) (string, error)
}

// Engine builds an activity from the host's current state for each event.
type Engine struct {
	api      host.API
	presence Presence
	covers   CoverResolver
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(api host.API, p Presence, covers CoverResolver, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		api:      api,
		presence: p,
		covers:   covers,
		now:      time.Now,
		log:      logger.With().Str("component", "presence").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clear removes any shown activity.
func (e *Engine) Clear(ctx context.Context) error {
	return e.presence.Clear(ctx)
}

// Update reads the current settings and host state and publishes the
// resulting activity, or clears it when presence is disabled or hidden.
func (e *Engine) Update(ctx context.Context, ev Event) error {
	snap, err := settings.Read(e.api)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	if !snap.Enabled {
		return e.Clear(ctx)
	}

	status := ev.Status
	if status == timestamp.StatusSeeked {
		state, err := e.api.OutputState()
		if err != nil {
			return fmt.Errorf("get output state: %w", err)
		}
		if state != host.StatePlaying {
			status = timestamp.StatusPaused
		}
	}

	if status == timestamp.StatusPaused && snap.HideOnPause {
		return e.Clear(ctx)
	}

	track, err := host.PlayingTrack(e.api)
	if err != nil {
		return err
	}
	defer e.release(track.Release)

	plt, err := host.CurrentPlaylist(e.api)
	if err != nil {
		return err
	}
	defer e.release(plt.Release)

	it := track.Get()
	activity := discord.Activity{
		Details:   e.format(snap.TitleScript, it, plt.Get()),
		State:     e.format(snap.StateScript, it, plt.Get()),
		LargeText: e.format(snap.IconScript, it, plt.Get()),
		Type:      discord.ActivityListening,
	}

	ts, err := e.timestamps(status, ev.NextLength, snap.TimestampMode, it)
	if err != nil {
		return fmt.Errorf("compute timestamps: %w", err)
	}
	activity.Timestamps = discord.Timestamps{Start: ts.Start, End: ts.End}

	activity.LargeImage = cover.DefaultImage
	if snap.CoverSource == settings.CoverMusicBrainz {
		query := e.format(snap.AlbumQueryScript, it, plt.Get())
		image, err := e.covers.Resolve(ctx, query, snap.CoverSource)
		if err != nil {
			e.log.Debug().Err(err).Str("query", query).Msg("cover lookup failed, using default image")
		} else {
			activity.LargeImage = image
		}
	}

	e.log.Trace().
		Str("status", status.String()).
		Str("details", activity.Details).
		Str("state", activity.State).
		Str("large_image", activity.LargeImage).
		Str("large_text", activity.LargeText).
		Msg("updating activity")

	if err := e.presence.Reconcile(ctx, snap.ClientID, true); err != nil {
		return err
	}
	if err := e.presence.Publish(ctx, activity); err != nil {
		return err
	}

	e.log.Debug().Str("status", status.String()).Str("details", activity.Details).Msg("activity updated")
	return nil
}

// format evaluates a script against the playing track. Failures yield an
// empty string so one bad script does not suppress the update.
func (e *Engine) format(script string, it host.Item, plt host.Playlist) string {
	out, err := e.api.Format(script, it, plt)
	if err != nil {
		e.log.Warn().Err(err).Str("script", script).Msg("title format failed")
		return ""
	}
	return out
}

func (e *Engine) timestamps(status timestamp.Status, next *float64, mode settings.TimestampMode, it host.Item) (timestamp.Timestamps, error) {
	in := timestamp.Input{
		Status:     status,
		NextLength: next,
		Mode:       mode,
	}

	if mode == settings.TimestampNone {
		return timestamp.Compute(e.now(), in), nil
	}

	if it != nil {
		length, err := e.api.ItemDuration(it)
		if err != nil {
			return timestamp.Timestamps{}, err
		}
		in.Length = length

		if in.Streaming, err = e.streaming(it); err != nil {
			return timestamp.Timestamps{}, err
		}
	}

	pos, err := e.api.PlaybackPos()
	if err != nil {
		return timestamp.Timestamps{}, err
	}
	in.ElapsedPercent = pos

	return timestamp.Compute(e.now(), in), nil
}

// streaming reports whether the track's location is not a local file.
func (e *Engine) streaming(it host.Item) (bool, error) {
	uri, ok, err := e.api.FindMeta(it, uriMetaKey)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	local, err := e.api.IsLocalFile(uri)
	if err != nil {
		return false, err
	}
	return !local, nil
}

func (e *Engine) release(fn func() error) {
	if err := fn(); err != nil {
		e.log.Warn().Err(err).Msg("release host handle")
	}
}
