// Package timestamp computes the start and end instants shown next to a
// presence, reconstructed from the player's position at the time of an event.
package timestamp

import (
	"time"

	"github.com/hay-kot/nowplaying/internal/core/settings"
)

// Status is the playback status an update is computed for.
type Status int

const (
	StatusStart Status = iota
	StatusSongChanged
	StatusSeeked
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusSongChanged:
		return "songchanged"
	case StatusSeeked:
		return "seeked"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Input holds everything the policy needs about the current playback.
type Input struct {
	Status Status
	// ElapsedPercent is the playback position as a percentage of Length.
	ElapsedPercent float64
	// Length of the current track in seconds.
	Length float64
	// NextLength is the length of the track being switched to; only
	// meaningful for StatusSongChanged.
	NextLength *float64
	Mode       settings.TimestampMode
	Streaming  bool
}

// Timestamps are epoch seconds. Zero means unset.
type Timestamps struct {
	Start int64
	End   int64
}

// HasStart reports whether a start instant is set.
func (t Timestamps) HasStart() bool { return t.Start != 0 }

// HasEnd reports whether an end instant is set.
func (t Timestamps) HasEnd() bool { return t.End != 0 }

// Compute returns the timestamps for in, taking now as the current instant.
func Compute(now time.Time, in Input) Timestamps {
	if in.Mode == settings.TimestampNone {
		return Timestamps{}
	}

	nowSec := now.Unix()

	if in.Status == StatusPaused {
		ts := Timestamps{Start: nowSec, End: nowSec}
		if in.Streaming {
			ts.End = 0
		}
		return ts
	}

	start := nowSec
	if in.Status == StatusSeeked || in.Status == StatusStart {
		start -= int64(in.Length * in.ElapsedPercent / 100)
	}

	ts := Timestamps{Start: start}

	if in.Mode == settings.TimestampFullTrack && !in.Streaming {
		length := in.Length
		if in.Status == StatusSongChanged && in.NextLength != nil {
			length = *in.NextLength
		}
		ts.End = start + int64(length)
	}

	return ts
}
