package discord

import (
	"unicode/utf8"

	"github.com/hay-kot/nowplaying/internal/discord/ipc"
)

// ActivityType mirrors Discord's activity type ids.
type ActivityType int

const (
	ActivityPlaying   ActivityType = 0
	ActivityListening ActivityType = 2
)

// Timestamps are epoch seconds; zero means unset.
type Timestamps struct {
	Start int64
	End   int64
}

// Activity is the rich presence shown for the current track.
type Activity struct {
	Details    string
	State      string
	LargeImage string
	LargeText  string
	Timestamps Timestamps
	Type       ActivityType
}

// maxFieldLen is the longest text Discord accepts in a presence field.
const maxFieldLen = 128

func (a Activity) wire() *ipc.Activity {
	out := &ipc.Activity{
		Type:    int(a.Type),
		Details: truncate(a.Details),
		State:   truncate(a.State),
	}
	if a.Timestamps.Start != 0 || a.Timestamps.End != 0 {
		out.Timestamps = &ipc.Timestamps{Start: a.Timestamps.Start, End: a.Timestamps.End}
	}
	if a.LargeImage != "" || a.LargeText != "" {
		out.Assets = &ipc.Assets{LargeImage: a.LargeImage, LargeText: truncate(a.LargeText)}
	}
	return out
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxFieldLen {
		return s
	}
	return string([]rune(s)[:maxFieldLen-1]) + "…"
}
