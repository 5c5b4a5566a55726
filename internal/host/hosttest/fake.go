// Package hosttest provides an in-memory host.API for tests.
package hosttest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hay-kot/nowplaying/internal/host"
)

// Track is a fake item handle.
type Track struct {
	ID       string
	Duration float64
	Meta     map[string]string
}

var _ host.API = (*Fake)(nil)

// Identity implements host.Item.
func (t *Track) Identity() string { return "track:" + t.ID }

// Playlist is a fake playlist handle.
type Playlist struct {
	Name string
}

// Identity implements host.Playlist.
func (p *Playlist) Identity() string { return "playlist:" + p.Name }

// Fake implements host.API with settable state and reference accounting.
// Format substitutes %field% from the track's Meta map; set FormatFunc to
// override.
type Fake struct {
	mu sync.Mutex

	Settings map[string]string
	Playing  *Track
	List     *Playlist
	State    host.PlaybackState
	Position float64

	// DurationErr is returned by ItemDuration when set.
	DurationErr error
	// FormatErr is returned by Format when set.
	FormatErr  error
	FormatFunc func(script string, it host.Item) (string, error)

	refs map[string]int
}

// New returns a Fake with no settings and nothing playing.
func New() *Fake {
	return &Fake{
		Settings: make(map[string]string),
		refs:     make(map[string]int),
	}
}

// Set stores a setting value.
func (f *Fake) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Settings[key] = value
}

// Refs returns the outstanding reference count for a handle identity.
func (f *Fake) Refs(identity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[identity]
}

// Outstanding returns the sum of all outstanding references.
func (f *Fake) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.refs {
		n += c
	}
	return n
}

func (f *Fake) ConfGetStr(key, def string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.Settings[key]; ok {
		return v, nil
	}
	return def, nil
}

func (f *Fake) ConfGetInt(key string, def int) (int, error) {
	raw, _ := f.ConfGetStr(key, strconv.Itoa(def))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func (f *Fake) PlayingTrack() (host.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Playing == nil {
		return nil, nil
	}
	f.refs[f.Playing.Identity()]++
	return f.Playing, nil
}

func (f *Fake) CurrentPlaylist() (host.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.List == nil {
		return nil, nil
	}
	f.refs[f.List.Identity()]++
	return f.List, nil
}

func (f *Fake) ItemRef(it host.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[it.Identity()]++
	return nil
}

func (f *Fake) ItemUnref(it host.Item) error {
	return f.unref(it.Identity())
}

func (f *Fake) PlaylistUnref(plt host.Playlist) error {
	return f.unref(plt.Identity())
}

func (f *Fake) unref(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refs[id] <= 0 {
		return fmt.Errorf("unref of %s without reference", id)
	}
	f.refs[id]--
	return nil
}

func (f *Fake) ItemDuration(it host.Item) (float64, error) {
	if f.DurationErr != nil {
		return 0, f.DurationErr
	}
	t, ok := it.(*Track)
	if !ok {
		return 0, fmt.Errorf("unexpected item %T", it)
	}
	return t.Duration, nil
}

func (f *Fake) FindMeta(it host.Item, key string) (string, bool, error) {
	t, ok := it.(*Track)
	if !ok {
		return "", false, fmt.Errorf("unexpected item %T", it)
	}
	v, found := t.Meta[key]
	return v, found, nil
}

func (f *Fake) IsLocalFile(uri string) (bool, error) {
	return !strings.Contains(uri, "://"), nil
}

func (f *Fake) OutputState() (host.PlaybackState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.State, nil
}

func (f *Fake) PlaybackPos() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Position, nil
}

func (f *Fake) Format(script string, it host.Item, _ host.Playlist) (string, error) {
	if f.FormatErr != nil {
		return "", f.FormatErr
	}
	if f.FormatFunc != nil {
		return f.FormatFunc(script, it)
	}
	t, ok := it.(*Track)
	if !ok || t == nil {
		return "", nil
	}
	out := script
	for k, v := range t.Meta {
		out = strings.ReplaceAll(out, "%"+k+"%", v)
	}
	return out, nil
}
