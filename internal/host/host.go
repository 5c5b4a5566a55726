// Package host defines the contract between the presence plugin and the media
// player that loads it: the API table the plugin calls into, the event ids the
// player sends, and reference-counted handles to player-owned objects.
package host

import (
	"errors"

	"github.com/hay-kot/nowplaying/internal/core/settings"
)

// ErrCapabilityMissing is returned when the host does not provide a function
// the plugin needs. It is fatal for that call only.
var ErrCapabilityMissing = errors.New("host capability missing")

// EventID identifies a message sent by the host. Values follow DeadBeef's
// DB_EV_* numbering.
type EventID uint32

const (
	EventStop          EventID = 5
	EventConfigChanged EventID = 11
	EventPaused        EventID = 14
	EventSongChanged   EventID = 1000
	EventSeeked        EventID = 1005
)

func (id EventID) String() string {
	switch id {
	case EventStop:
		return "stop"
	case EventConfigChanged:
		return "configchanged"
	case EventPaused:
		return "paused"
	case EventSongChanged:
		return "songchanged"
	case EventSeeked:
		return "seeked"
	default:
		return "unknown"
	}
}

// PlaybackState is the state of the host's output.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Item is an opaque, reference-counted track handle owned by the host.
type Item interface {
	Identity() string
}

// Playlist is an opaque, reference-counted playlist handle owned by the host.
type Playlist interface {
	Identity() string
}

// TrackChange is the context of an EventSongChanged message. The handles are
// borrowed from the host for the duration of the message call.
type TrackChange struct {
	From Item
	To   Item
}

// Identity describes the change for traces.
func (c *TrackChange) Identity() string {
	if c == nil {
		return "<nil>"
	}
	return identity(c.From) + "->" + identity(c.To)
}

func identity(it Item) string {
	if it == nil {
		return "<none>"
	}
	return it.Identity()
}

// API is the function table a host hands to the plugin at load time.
//
// PlayingTrack and CurrentPlaylist return handles with a reference already
// held; the caller must release it. Either may be nil with a nil error when
// nothing is playing.
type API interface {
	settings.Source

	PlayingTrack() (Item, error)
	CurrentPlaylist() (Playlist, error)
	ItemRef(it Item) error
	ItemUnref(it Item) error
	PlaylistUnref(plt Playlist) error

	// ItemDuration returns the track length in seconds.
	ItemDuration(it Item) (float64, error)
	// FindMeta returns a metadata value; ok is false when the key is absent.
	FindMeta(it Item, key string) (value string, ok bool, err error)
	// IsLocalFile reports whether uri refers to a local file rather than a stream.
	IsLocalFile(uri string) (bool, error)

	OutputState() (PlaybackState, error)
	// PlaybackPos returns the position in the current track as a percentage.
	PlaybackPos() (float64, error)

	// Format compiles and evaluates a title-format script against a track.
	Format(script string, it Item, plt Playlist) (string, error)
}
