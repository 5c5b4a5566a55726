package settings

import (
	"fmt"
	"strconv"
)

// Kind is the value type of a setting.
type Kind int

const (
	KindString Kind = iota
	KindInt
)

// Definition describes one known setting.
type Definition struct {
	Key     string
	Default string
	Kind    Kind
	Help    string

	// validate checks an integer value; nil accepts any integer.
	validate func(int) error
}

// Definitions lists every setting in the order the settings dialog shows them.
var Definitions = []Definition{
	{Key: KeyEnable, Default: strconv.Itoa(DefaultEnable), Kind: KindInt, Help: "enable rich presence (0 or 1)", validate: boolean},
	{Key: KeyClientID, Default: DefaultClientID, Kind: KindString, Help: "Discord application id"},
	{Key: KeyTitleScript, Default: DefaultTitleScript, Kind: KindString, Help: "title format for the details line"},
	{Key: KeyStateScript, Default: DefaultStateScript, Kind: KindString, Help: "title format for the state line"},
	{
		Key: KeyTimestampMode, Default: strconv.Itoa(DefaultTimestampMode), Kind: KindInt,
		Help: "display time: 0 elapsed only, 1 full track, 2 none",
		validate: func(v int) error {
			_, err := ParseTimestampMode(v)
			return err
		},
	},
	{Key: KeyIconScript, Default: DefaultIconScript, Kind: KindString, Help: "title format for the cover hover text"},
	{
		Key: KeyCoverSource, Default: strconv.Itoa(DefaultCoverSource), Kind: KindInt,
		Help: "cover source: 0 none, 1 MusicBrainz",
		validate: func(v int) error {
			_, err := ParseCoverSource(v)
			return err
		},
	},
	{Key: KeyAlbumQueryScript, Default: DefaultAlbumQueryScript, Kind: KindString, Help: "title format for the MusicBrainz release query"},
	{Key: KeyHideOnPause, Default: strconv.Itoa(DefaultHideOnPause), Kind: KindInt, Help: "clear presence while paused (0 or 1)", validate: boolean},
}

// Lookup returns the definition for key.
func Lookup(key string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Check validates value against the definition's kind and range.
func (d Definition) Check(value string) error {
	if d.Kind != KindInt {
		return nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s expects an integer, got %q", d.Key, value)
	}
	if d.validate != nil {
		return d.validate(v)
	}
	return nil
}

func boolean(v int) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("value %d must be 0 or 1", v)
	}
	return nil
}
