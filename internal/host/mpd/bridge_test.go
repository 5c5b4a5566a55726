package mpd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/store/jsonfile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatched struct {
	id     host.EventID
	p1     uint32
	from   string
	to     string
	toRefs int
}

func song(id string) *Song {
	return &Song{ID: id, Attrs: mpd.Attrs{"Id": id, "file": id + ".flac"}}
}

func TestDerive(t *testing.T) {
	a, b := song("1"), song("2")
	stopped := playerState{State: host.StateStopped}
	playingA := playerState{State: host.StatePlaying, SongID: "1", Song: a}
	pausedA := playerState{State: host.StatePaused, SongID: "1", Song: a}
	playingB := playerState{State: host.StatePlaying, SongID: "2", Song: b}
	pausedB := playerState{State: host.StatePaused, SongID: "2", Song: b}

	tests := []struct {
		name string
		prev playerState
		cur  playerState
		want []transition
	}{
		{"start from stop", stopped, playingA, []transition{{id: host.EventSongChanged}}},
		{"next track", playingA, playingB, []transition{{id: host.EventSongChanged}}},
		{"next track while paused", pausedA, pausedB, []transition{{id: host.EventSongChanged}, {id: host.EventPaused, p1: 1}}},
		{"pause", playingA, pausedA, []transition{{id: host.EventPaused, p1: 1}}},
		{"resume", pausedA, playingA, []transition{{id: host.EventPaused, p1: 0}}},
		{"seek while playing", playingA, playingA, []transition{{id: host.EventSeeked}}},
		{"seek while paused", pausedA, pausedA, []transition{{id: host.EventSeeked}}},
		{"stop", playingA, stopped, []transition{{id: host.EventStop}}},
		{"stop again", stopped, stopped, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, derive(tt.prev, tt.cur))
		})
	}
}

func TestBridge_Apply(t *testing.T) {
	h, _ := newTestHost(t)
	b := NewBridge(h, BridgeOptions{}, zerolog.New(io.Discard))

	var got []dispatched
	dispatch := func(id host.EventID, ctx any, p1, _ uint32) {
		d := dispatched{id: id, p1: p1}
		if change, ok := ctx.(*host.TrackChange); ok {
			if change.From != nil {
				d.from = change.From.Identity()
			}
			if change.To != nil {
				d.to = change.To.Identity()
				d.toRefs = h.Refs(change.To.Identity())
			}
		}
		got = append(got, d)
	}

	a, c := song("1"), song("2")

	// already playing when the bridge starts: resume keeps elapsed time
	b.apply(playerState{State: host.StatePlaying, SongID: "1", Song: a}, dispatch)
	b.apply(playerState{State: host.StatePlaying, SongID: "2", Song: c}, dispatch)
	b.apply(playerState{State: host.StatePaused, SongID: "2", Song: c}, dispatch)
	b.apply(playerState{State: host.StatePlaying, SongID: "2", Song: c}, dispatch)
	b.apply(playerState{State: host.StateStopped}, dispatch)

	want := []dispatched{
		{id: host.EventPaused, p1: 0},
		{id: host.EventSongChanged, from: "song:1", to: "song:2", toRefs: 1},
		{id: host.EventPaused, p1: 1},
		{id: host.EventPaused, p1: 0},
		{id: host.EventStop},
	}
	assert.Equal(t, want, got)
	assert.Zero(t, h.Refs("song:1"))
	assert.Zero(t, h.Refs("song:2"))
}

func TestBridge_ApplyInitialPaused(t *testing.T) {
	h, _ := newTestHost(t)
	b := NewBridge(h, BridgeOptions{}, zerolog.New(io.Discard))

	var ids []host.EventID
	var p1s []uint32
	b.apply(playerState{State: host.StatePaused, SongID: "1", Song: song("1")}, func(id host.EventID, _ any, p1, _ uint32) {
		ids = append(ids, id)
		p1s = append(p1s, p1)
	})

	assert.Equal(t, []host.EventID{host.EventPaused}, ids)
	assert.Equal(t, []uint32{1}, p1s)
}

func TestBridge_ApplyInitialStopped(t *testing.T) {
	h, _ := newTestHost(t)
	b := NewBridge(h, BridgeOptions{}, zerolog.New(io.Discard))

	calls := 0
	b.apply(playerState{State: host.StateStopped}, func(host.EventID, any, uint32, uint32) { calls++ })

	assert.Zero(t, calls)
}

func TestBridge_SyncReadsSnapshot(t *testing.T) {
	conn := &fakeConn{
		status: mpd.Attrs{"state": "play", "songid": "7"},
		song:   kindOfBlue(),
	}
	h, _ := newTestHost(t, conn)
	b := NewBridge(h, BridgeOptions{}, zerolog.New(io.Discard))

	var ids []host.EventID
	dispatch := func(id host.EventID, _ any, _, _ uint32) { ids = append(ids, id) }

	require.NoError(t, b.sync(dispatch))
	require.NoError(t, b.sync(dispatch))

	assert.Equal(t, []host.EventID{host.EventPaused, host.EventSeeked}, ids)
	assert.Equal(t, "7", b.prev.SongID)
}

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	changes, stop, err := watchFile(path, zerolog.New(io.Discard))
	require.NoError(t, err)
	defer stop()

	store := jsonfile.NewSettingsStore(path)
	require.NoError(t, store.Set(context.Background(), "discordrpc.enable", "0"))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after settings write")
	}
}

func TestWatchFile_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	changes, stop, err := watchFile(path, zerolog.New(io.Discard))
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))

	select {
	case <-changes:
		t.Fatal("unexpected change signal")
	case <-time.After(4 * settleDelay):
	}
}
