package mpd

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	status  mpd.Attrs
	song    mpd.Attrs
	failErr error
	closed  bool
}

func (c *fakeConn) Status() (mpd.Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return nil, c.failErr
	}
	return c.status, nil
}

func (c *fakeConn) CurrentSong() (mpd.Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.song, nil
}

func (c *fakeConn) Ping() error  { return nil }
func (c *fakeConn) Close() error { c.closed = true; return nil }

type staticSource map[string]string

func (s staticSource) ConfGetStr(key, def string) (string, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s staticSource) ConfGetInt(_ string, def int) (int, error) { return def, nil }

func kindOfBlue() mpd.Attrs {
	return mpd.Attrs{
		"file":     "Miles Davis/Kind of Blue/01 So What.flac",
		"Title":    "So What",
		"Artist":   "Miles Davis",
		"Album":    "Kind of Blue",
		"Track":    "1",
		"Date":     "1959",
		"duration": "200.000",
		"Id":       "7",
	}
}

func newTestHost(t *testing.T, conns ...*fakeConn) (*Host, *int) {
	t.Helper()
	dials := 0
	dial := func() (Conn, error) {
		if dials >= len(conns) {
			return nil, errors.New("connection refused")
		}
		c := conns[dials]
		dials++
		return c, nil
	}
	return New(dial, staticSource{}, zerolog.New(io.Discard)), &dials
}

func TestHost_PlayingTrack(t *testing.T) {
	conn := &fakeConn{
		status: mpd.Attrs{"state": "play", "songid": "7", "elapsed": "50.0", "duration": "200.0", "playlist": "3"},
		song:   kindOfBlue(),
	}
	h, _ := newTestHost(t, conn)

	it, err := h.PlayingTrack()
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "song:7", it.Identity())
	assert.Equal(t, 1, h.Refs("song:7"))

	d, err := h.ItemDuration(it)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, d, 0.001)

	uri, ok, err := h.FindMeta(it, ":URI")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Miles Davis/Kind of Blue/01 So What.flac", uri)

	local, err := h.IsLocalFile(uri)
	require.NoError(t, err)
	assert.True(t, local)

	require.NoError(t, h.ItemUnref(it))
	assert.Zero(t, h.Refs("song:7"))
	assert.Error(t, h.ItemUnref(it), "double release is detected")
}

func TestHost_NothingPlaying(t *testing.T) {
	h, _ := newTestHost(t, &fakeConn{status: mpd.Attrs{"state": "stop"}, song: mpd.Attrs{}})

	it, err := h.PlayingTrack()
	require.NoError(t, err)
	assert.Nil(t, it)
}

func TestHost_StateAndPosition(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "pause", "elapsed": "50.0", "duration": "200.0"}}
	h, _ := newTestHost(t, conn)

	state, err := h.OutputState()
	require.NoError(t, err)
	assert.Equal(t, host.StatePaused, state)

	pos, err := h.PlaybackPos()
	require.NoError(t, err)
	assert.InDelta(t, 25.0, pos, 0.001)
}

func TestHost_PositionWithoutDuration(t *testing.T) {
	h, _ := newTestHost(t, &fakeConn{status: mpd.Attrs{"state": "play", "elapsed": "12.0"}})

	pos, err := h.PlaybackPos()
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestHost_Format(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "pause"}, song: kindOfBlue()}
	h, _ := newTestHost(t, conn)

	it, err := h.PlayingTrack()
	require.NoError(t, err)
	defer func() { _ = h.ItemUnref(it) }()

	got, err := h.Format(settings.DefaultTitleScript, it, nil)
	require.NoError(t, err)
	assert.Equal(t, "So What (paused)", got)

	got, err = h.Format(settings.DefaultAlbumQueryScript, it, nil)
	require.NoError(t, err)
	assert.Equal(t, `release:"Kind of Blue" AND artist:"Miles Davis"`, got)

	got, err = h.Format("$num(%tracknumber%,2). %title% [%length%]", it, nil)
	require.NoError(t, err)
	assert.Equal(t, "01. So What 3:20", got)
}

func TestHost_FormatNilItem(t *testing.T) {
	h, dials := newTestHost(t)

	got, err := h.Format("%title%[ - %artist%]", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, *dials)
}

func TestHost_FormatSyntaxError(t *testing.T) {
	h, _ := newTestHost(t)

	_, err := h.Format("$if(", nil, nil)
	assert.Error(t, err)
}

func TestHost_Redial(t *testing.T) {
	broken := &fakeConn{failErr: io.EOF}
	healthy := &fakeConn{status: mpd.Attrs{"state": "play"}}
	h, dials := newTestHost(t, broken, healthy)

	state, err := h.OutputState()
	require.NoError(t, err)
	assert.Equal(t, host.StatePlaying, state)
	assert.Equal(t, 2, *dials)
	assert.True(t, broken.closed)
}

func TestHost_DialFailure(t *testing.T) {
	h, _ := newTestHost(t)

	_, err := h.OutputState()
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	attrs := mpd.Attrs{
		"file":        "http://radio.example/stream.mp3",
		"Name":        "Jazz Radio",
		"Time":        "3725",
		"AlbumArtist": "Various",
	}

	f := Fields(attrs, host.StatePlaying)

	assert.Equal(t, "stream", f["title"], "title falls back to file name")
	assert.Equal(t, "stream.mp3", f["filename_ext"])
	assert.Equal(t, "Jazz Radio", f["name"])
	assert.Equal(t, "Various", f["album artist"])
	assert.Equal(t, "1:02:05", f["length"])
	assert.Equal(t, "1", f["isplaying"])
	assert.NotContains(t, f, "ispaused")
}
