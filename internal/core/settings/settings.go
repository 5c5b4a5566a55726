package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"
)

// ErrInvalid is returned when a stored setting holds an out-of-range value.
var ErrInvalid = errors.New("invalid setting")

// Prefix namespaces every presence setting in the host config store.
const Prefix = "discordrpc."

// Setting keys.
const (
	KeyEnable           = Prefix + "enable"
	KeyClientID         = Prefix + "client_id"
	KeyTitleScript      = Prefix + "title_script"
	KeyStateScript      = Prefix + "state_script"
	KeyTimestampMode    = Prefix + "end_timestamp2"
	KeyIconScript       = Prefix + "icon_script"
	KeyCoverSource      = Prefix + "cover_source"
	KeyAlbumQueryScript = Prefix + "query_album_script"
	KeyHideOnPause      = Prefix + "hide_on_pause"
)

// Default values, matching the plugin's settings dialog.
const (
	DefaultEnable           = 1
	DefaultClientID         = "1440255782418387026"
	DefaultTitleScript      = "%title%$if(%ispaused%,' ('paused')')"
	DefaultStateScript      = "%artist%"
	DefaultTimestampMode    = int(TimestampFullTrack)
	DefaultIconScript       = "%album%"
	DefaultCoverSource      = int(CoverMusicBrainz)
	DefaultAlbumQueryScript = `release:"%album%" AND artist:"%artist%"`
	DefaultHideOnPause      = 0
)

// TimestampMode controls whether and how an end timestamp is shown.
//
// Stored as the index of the "Display time" select: 0 elapsed only,
// 1 full track, 2 none.
type TimestampMode int

const (
	TimestampElapsedOnly TimestampMode = iota
	TimestampFullTrack
	TimestampNone
)

func (m TimestampMode) String() string {
	switch m {
	case TimestampElapsedOnly:
		return "elapsed"
	case TimestampFullTrack:
		return "full"
	case TimestampNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseTimestampMode converts a stored integer into a TimestampMode.
func ParseTimestampMode(v int) (TimestampMode, error) {
	m := TimestampMode(v)
	switch m {
	case TimestampElapsedOnly, TimestampFullTrack, TimestampNone:
		return m, nil
	default:
		return 0, fmt.Errorf("timestamp mode %d out of range [0,2]", v)
	}
}

// CoverSource selects the strategy used to pick cover artwork.
type CoverSource int

const (
	CoverNone CoverSource = iota
	CoverMusicBrainz
)

func (c CoverSource) String() string {
	switch c {
	case CoverNone:
		return "none"
	case CoverMusicBrainz:
		return "musicbrainz"
	default:
		return "unknown"
	}
}

// ParseCoverSource converts a stored integer into a CoverSource.
func ParseCoverSource(v int) (CoverSource, error) {
	c := CoverSource(v)
	switch c {
	case CoverNone, CoverMusicBrainz:
		return c, nil
	default:
		return 0, fmt.Errorf("cover source %d out of range [0,1]", v)
	}
}

// Snapshot is the presence configuration as read for a single event.
type Snapshot struct {
	Enabled          bool
	ClientID         string
	TitleScript      string
	StateScript      string
	IconScript       string
	TimestampMode    TimestampMode
	CoverSource      CoverSource
	AlbumQueryScript string
	HideOnPause      bool
}

// Source is the read side of the host config store: typed lookups that fall
// back to a default when the key is unset.
type Source interface {
	ConfGetInt(key string, def int) (int, error)
	ConfGetStr(key, def string) (string, error)
}

// ReadEnabled reads only the enable flag and client id, the two values
// needed to reconcile the presence connection.
func ReadEnabled(src Source) (enabled bool, clientID string, err error) {
	enable, err := src.ConfGetInt(KeyEnable, DefaultEnable)
	if err != nil {
		return false, "", fmt.Errorf("read %s: %w", KeyEnable, err)
	}

	clientID, err = src.ConfGetStr(KeyClientID, DefaultClientID)
	if err != nil {
		return false, "", fmt.Errorf("read %s: %w", KeyClientID, err)
	}

	return enable == 1, clientID, nil
}

// Read loads a full Snapshot. Out-of-range enum values are reported as
// criterio field errors wrapped with ErrInvalid.
func Read(src Source) (Snapshot, error) {
	var snap Snapshot

	enabled, clientID, err := ReadEnabled(src)
	if err != nil {
		return snap, err
	}
	snap.Enabled = enabled
	snap.ClientID = clientID

	strs := []struct {
		key, def string
		dst      *string
	}{
		{KeyTitleScript, DefaultTitleScript, &snap.TitleScript},
		{KeyStateScript, DefaultStateScript, &snap.StateScript},
		{KeyIconScript, DefaultIconScript, &snap.IconScript},
		{KeyAlbumQueryScript, DefaultAlbumQueryScript, &snap.AlbumQueryScript},
	}
	for _, s := range strs {
		v, err := src.ConfGetStr(s.key, s.def)
		if err != nil {
			return snap, fmt.Errorf("read %s: %w", s.key, err)
		}
		*s.dst = v
	}

	mode, err := src.ConfGetInt(KeyTimestampMode, DefaultTimestampMode)
	if err != nil {
		return snap, fmt.Errorf("read %s: %w", KeyTimestampMode, err)
	}
	cover, err := src.ConfGetInt(KeyCoverSource, DefaultCoverSource)
	if err != nil {
		return snap, fmt.Errorf("read %s: %w", KeyCoverSource, err)
	}
	hide, err := src.ConfGetInt(KeyHideOnPause, DefaultHideOnPause)
	if err != nil {
		return snap, fmt.Errorf("read %s: %w", KeyHideOnPause, err)
	}
	snap.HideOnPause = hide == 1

	var errs criterio.FieldErrorsBuilder
	if snap.TimestampMode, err = ParseTimestampMode(mode); err != nil {
		errs = errs.Append(KeyTimestampMode, err)
	}
	if snap.CoverSource, err = ParseCoverSource(cover); err != nil {
		errs = errs.Append(KeyCoverSource, err)
	}
	if err := errs.ToError(); err != nil {
		return snap, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return snap, nil
}

// StoreSource adapts a Store into a Source.
type StoreSource struct {
	store Store
}

// NewStoreSource wraps store so it can be read with typed defaults.
func NewStoreSource(store Store) *StoreSource {
	return &StoreSource{store: store}
}

// ConfGetStr returns the stored string or def when the key is unset.
func (s *StoreSource) ConfGetStr(key, def string) (string, error) {
	entry, err := s.store.Get(context.Background(), key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

// ConfGetInt returns the stored integer or def when the key is unset.
func (s *StoreSource) ConfGetInt(key string, def int) (int, error) {
	raw, err := s.ConfGetStr(key, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %q", ErrInvalid, key, raw)
	}
	return v, nil
}
