package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hay-kot/nowplaying/internal/core/settings"
)

var now = time.Unix(1_700_000_000, 0)

func ptr(f float64) *float64 { return &f }

func TestCompute_SeekedReconstructsStart(t *testing.T) {
	ts := Compute(now, Input{
		Status:         StatusSeeked,
		ElapsedPercent: 50,
		Length:         200,
		Mode:           settings.TimestampFullTrack,
	})

	assert.Equal(t, now.Unix()-100, ts.Start)
	assert.Equal(t, now.Unix()+100, ts.End)
}

func TestCompute_SongChangedUsesNextLength(t *testing.T) {
	ts := Compute(now, Input{
		Status:         StatusSongChanged,
		ElapsedPercent: 90,
		Length:         300,
		NextLength:     ptr(180),
		Mode:           settings.TimestampFullTrack,
	})

	assert.Equal(t, now.Unix(), ts.Start, "song change starts now, position of the old track is ignored")
	assert.Equal(t, ts.Start+180, ts.End)
}

func TestCompute_SongChangedWithoutNextLength(t *testing.T) {
	ts := Compute(now, Input{
		Status: StatusSongChanged,
		Length: 240,
		Mode:   settings.TimestampFullTrack,
	})

	assert.Equal(t, ts.Start+240, ts.End)
}

func TestCompute_ResumeSubtractsElapsed(t *testing.T) {
	ts := Compute(now, Input{
		Status:         StatusStart,
		ElapsedPercent: 25,
		Length:         100,
		Mode:           settings.TimestampElapsedOnly,
	})

	assert.Equal(t, now.Unix()-25, ts.Start)
	assert.False(t, ts.HasEnd())
}

func TestCompute_PausedIsFlat(t *testing.T) {
	ts := Compute(now, Input{
		Status:         StatusPaused,
		ElapsedPercent: 40,
		Length:         100,
		Mode:           settings.TimestampFullTrack,
	})

	assert.Equal(t, now.Unix(), ts.Start)
	assert.Equal(t, now.Unix(), ts.End)
}

func TestCompute_ZeroLengthDegradesToFlatEnd(t *testing.T) {
	ts := Compute(now, Input{
		Status: StatusSeeked,
		Mode:   settings.TimestampFullTrack,
	})

	assert.Equal(t, ts.Start, ts.End)
	assert.True(t, ts.HasEnd())
}

func TestCompute_ModeAndStreamingMatrix(t *testing.T) {
	statuses := []Status{StatusStart, StatusSongChanged, StatusSeeked, StatusPaused}
	modes := []settings.TimestampMode{settings.TimestampElapsedOnly, settings.TimestampFullTrack, settings.TimestampNone}

	for _, status := range statuses {
		for _, mode := range modes {
			for _, streaming := range []bool{false, true} {
				name := status.String() + "/" + mode.String()
				if streaming {
					name += "/streaming"
				}
				t.Run(name, func(t *testing.T) {
					ts := Compute(now, Input{
						Status:         status,
						ElapsedPercent: 10,
						Length:         200,
						NextLength:     ptr(150),
						Mode:           mode,
						Streaming:      streaming,
					})

					if mode == settings.TimestampNone {
						assert.False(t, ts.HasStart(), "none mode must not set start")
						assert.False(t, ts.HasEnd(), "none mode must not set end")
						return
					}

					assert.True(t, ts.HasStart())
					if streaming {
						assert.False(t, ts.HasEnd(), "streams never get an end")
					}
					if mode == settings.TimestampElapsedOnly && status != StatusPaused {
						assert.False(t, ts.HasEnd(), "elapsed-only mode has no end")
					}
				})
			}
		}
	}
}
