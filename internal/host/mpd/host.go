// Package mpd implements the host contract on top of a Music Player Daemon.
package mpd

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/titleformat"
	"github.com/rs/zerolog"
)

// Conn is the subset of the gompd client the host needs.
type Conn interface {
	Status() (mpd.Attrs, error)
	CurrentSong() (mpd.Attrs, error)
	Ping() error
	Close() error
}

// DialFunc opens a command connection.
type DialFunc func() (Conn, error)

// Dialer returns a DialFunc for a real MPD server.
func Dialer(network, addr, password string) DialFunc {
	return func() (Conn, error) {
		c, err := mpd.DialAuthenticated(network, addr, password)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Song is a queue entry. Its attributes are captured when the handle is
// created and never change.
type Song struct {
	ID    string
	Attrs mpd.Attrs
}

// Identity implements host.Item.
func (s *Song) Identity() string { return "song:" + s.ID }

// Queue is the MPD play queue, the only playlist MPD has.
type Queue struct {
	Version string
}

// Identity implements host.Playlist.
func (q *Queue) Identity() string { return "queue:" + q.Version }

// Host answers host.API calls from MPD. Settings come from the configured
// Source, usually the JSON settings file.
type Host struct {
	settings.Source

	dial DialFunc
	log  zerolog.Logger

	mu   sync.Mutex
	conn Conn

	refMu sync.Mutex
	refs  map[string]int
}

var _ host.API = (*Host)(nil)

// New creates a Host. The command connection is opened on first use.
func New(dial DialFunc, src settings.Source, logger zerolog.Logger) *Host {
	return &Host{
		Source: src,
		dial:   dial,
		log:    logger.With().Str("component", "mpd").Logger(),
		refs:   make(map[string]int),
	}
}

// Close closes the command connection.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

// do runs fn on the command connection, redialing once when the
// connection has gone away.
func (h *Host) do(fn func(Conn) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if h.conn == nil {
			c, err := h.dial()
			if err != nil {
				return fmt.Errorf("dial mpd: %w", err)
			}
			h.conn = c
		}

		err := fn(h.conn)
		if err == nil {
			return nil
		}

		if attempt > 0 {
			return err
		}

		h.log.Debug().Err(err).Msg("mpd connection lost, redialing")
		_ = h.conn.Close()
		h.conn = nil
	}
}

// Snapshot returns the player status and current song in one round trip
// pair.
func (h *Host) Snapshot() (status, song mpd.Attrs, err error) {
	err = h.do(func(c Conn) error {
		var err error
		if status, err = c.Status(); err != nil {
			return err
		}
		song, err = c.CurrentSong()
		return err
	})
	return status, song, err
}

// Ping checks the command connection.
func (h *Host) Ping() error {
	return h.do(func(c Conn) error { return c.Ping() })
}

// Acquire records a reference on a handle the host hands out.
func (h *Host) Acquire(identity string) {
	h.refMu.Lock()
	defer h.refMu.Unlock()
	h.refs[identity]++
}

// Refs returns the outstanding reference count for identity.
func (h *Host) Refs(identity string) int {
	h.refMu.Lock()
	defer h.refMu.Unlock()
	return h.refs[identity]
}

func (h *Host) unref(identity string) error {
	h.refMu.Lock()
	defer h.refMu.Unlock()
	if h.refs[identity] <= 0 {
		return fmt.Errorf("release of %s without reference", identity)
	}
	h.refs[identity]--
	if h.refs[identity] == 0 {
		delete(h.refs, identity)
	}
	return nil
}

func (h *Host) PlayingTrack() (host.Item, error) {
	_, song, err := h.Snapshot()
	if err != nil {
		return nil, err
	}
	s := songFromAttrs(song)
	if s == nil {
		return nil, nil
	}
	h.Acquire(s.Identity())
	return s, nil
}

func (h *Host) CurrentPlaylist() (host.Playlist, error) {
	var status mpd.Attrs
	err := h.do(func(c Conn) error {
		var err error
		status, err = c.Status()
		return err
	})
	if err != nil {
		return nil, err
	}
	q := &Queue{Version: status["playlist"]}
	h.Acquire(q.Identity())
	return q, nil
}

func (h *Host) ItemRef(it host.Item) error {
	if it == nil {
		return fmt.Errorf("ref of nil item")
	}
	h.Acquire(it.Identity())
	return nil
}

func (h *Host) ItemUnref(it host.Item) error {
	return h.unref(it.Identity())
}

func (h *Host) PlaylistUnref(plt host.Playlist) error {
	return h.unref(plt.Identity())
}

func (h *Host) ItemDuration(it host.Item) (float64, error) {
	s, err := asSong(it)
	if err != nil {
		return 0, err
	}
	return songDuration(s.Attrs)
}

func (h *Host) FindMeta(it host.Item, key string) (string, bool, error) {
	s, err := asSong(it)
	if err != nil {
		return "", false, err
	}
	v, ok := lookup(s.Attrs, metaKey(key))
	return v, ok, nil
}

// IsLocalFile reports whether uri is a path in the music directory rather
// than a stream URL.
func (h *Host) IsLocalFile(uri string) (bool, error) {
	return !strings.Contains(uri, "://"), nil
}

func (h *Host) OutputState() (host.PlaybackState, error) {
	status, _, err := h.Snapshot()
	if err != nil {
		return host.StateStopped, err
	}
	return playbackState(status["state"]), nil
}

// PlaybackPos returns elapsed time as a percentage of the song duration.
func (h *Host) PlaybackPos() (float64, error) {
	status, _, err := h.Snapshot()
	if err != nil {
		return 0, err
	}
	return position(status), nil
}

// Format evaluates a title-format script against it. A nil item evaluates
// with no fields.
func (h *Host) Format(script string, it host.Item, _ host.Playlist) (string, error) {
	compiled, err := titleformat.Compile(script)
	if err != nil {
		return "", err
	}

	s, ok := it.(*Song)
	if !ok || s == nil {
		return compiled.Eval(nil), nil
	}

	status, _, err := h.Snapshot()
	if err != nil {
		return "", err
	}
	return compiled.Eval(Fields(s.Attrs, playbackState(status["state"]))), nil
}

func asSong(it host.Item) (*Song, error) {
	s, ok := it.(*Song)
	if !ok || s == nil {
		return nil, fmt.Errorf("unexpected item %T", it)
	}
	return s, nil
}

func songFromAttrs(attrs mpd.Attrs) *Song {
	if len(attrs) == 0 || attrs["file"] == "" {
		return nil
	}
	return &Song{ID: attrs["Id"], Attrs: attrs}
}

func playbackState(s string) host.PlaybackState {
	switch s {
	case "play":
		return host.StatePlaying
	case "pause":
		return host.StatePaused
	default:
		return host.StateStopped
	}
}

func position(status mpd.Attrs) float64 {
	elapsed, err := strconv.ParseFloat(status["elapsed"], 64)
	if err != nil {
		return 0
	}
	duration, err := songDuration(status)
	if err != nil || duration <= 0 {
		return 0
	}
	return elapsed / duration * 100
}

// songDuration reads "duration", falling back to the integral "time" field
// which in status output is "elapsed:total".
func songDuration(attrs mpd.Attrs) (float64, error) {
	if v, ok := attrs["duration"]; ok {
		return strconv.ParseFloat(v, 64)
	}
	if v, ok := attrs["Time"]; ok {
		return strconv.ParseFloat(v, 64)
	}
	if v, ok := attrs["time"]; ok {
		if _, total, found := strings.Cut(v, ":"); found {
			v = total
		}
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("no duration")
}

// metaKey maps player metadata keys onto MPD tag names.
func metaKey(key string) string {
	switch key {
	case ":URI":
		return "file"
	case ":DURATION":
		return "duration"
	default:
		return key
	}
}

// lookup finds an attribute case-insensitively.
func lookup(attrs mpd.Attrs, key string) (string, bool) {
	if v, ok := attrs[key]; ok {
		return v, true
	}
	for k, v := range attrs {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Fields exposes song attributes under the player's title-format field
// names.
func Fields(attrs mpd.Attrs, state host.PlaybackState) titleformat.MapFields {
	f := make(titleformat.MapFields, len(attrs)+8)
	for k, v := range attrs {
		f[strings.ToLower(k)] = v
	}

	file := attrs["file"]
	base := path.Base(file)
	f["path"] = file
	f["filename"] = strings.TrimSuffix(base, path.Ext(base))
	f["filename_ext"] = base

	if _, ok := f["title"]; !ok && file != "" {
		f["title"] = f["filename"]
	}
	if v, ok := lookup(attrs, "AlbumArtist"); ok {
		f["album artist"] = v
	} else if v, ok := lookup(attrs, "Artist"); ok {
		f["album artist"] = v
	}
	if v, ok := lookup(attrs, "Track"); ok {
		f["tracknumber"] = v
	}
	if v, ok := lookup(attrs, "Disc"); ok {
		f["discnumber"] = v
	}
	if d, err := songDuration(attrs); err == nil {
		f["length_seconds"] = strconv.Itoa(int(d))
		f["length"] = formatLength(d)
	}

	switch state {
	case host.StatePaused:
		f["ispaused"] = "1"
	case host.StatePlaying:
		f["isplaying"] = "1"
	}

	return f
}

func formatLength(seconds float64) string {
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
