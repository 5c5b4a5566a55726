package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/printer"
	"github.com/hay-kot/nowplaying/internal/store/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runSettings(t *testing.T, store *jsonfile.SettingsStore, args ...string) (string, error) {
	t.Helper()

	var out, msgs bytes.Buffer
	app := &cli.Command{Name: "nowplaying", Writer: &out}
	app = NewSettingsCmd(&Flags{Settings: store}).Register(app)

	ctx := printer.NewContext(context.Background(), printer.New(&msgs))
	err := app.Run(ctx, append([]string{"nowplaying", "settings"}, args...))
	return out.String(), err
}

func TestSettingsCmd_SetGetUnset(t *testing.T) {
	store := jsonfile.NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))

	out, err := runSettings(t, store, "get", "end_timestamp2")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = runSettings(t, store, "set", "end_timestamp2", "0")
	require.NoError(t, err)

	out, err = runSettings(t, store, "get", settings.KeyTimestampMode)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, err = runSettings(t, store, "unset", "end_timestamp2")
	require.NoError(t, err)

	_, err = store.Get(context.Background(), settings.KeyTimestampMode)
	assert.ErrorIs(t, err, settings.ErrKeyNotFound)
}

func TestSettingsCmd_SetRejectsInvalid(t *testing.T) {
	store := jsonfile.NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))

	_, err := runSettings(t, store, "set", "cover_source", "4")
	require.Error(t, err)

	_, err = runSettings(t, store, "set", "nope", "1")
	require.Error(t, err)

	_, err = store.Get(context.Background(), settings.KeyCoverSource)
	assert.ErrorIs(t, err, settings.ErrKeyNotFound)
}

func TestSettingsCmd_ListJSON(t *testing.T) {
	store := jsonfile.NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, store.Set(context.Background(), settings.KeyClientID, "123"))

	out, err := runSettings(t, store, "list", "--format", "json")
	require.NoError(t, err)

	var views []settingView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, len(settings.Definitions))

	for _, v := range views {
		if v.Key == settings.KeyClientID {
			assert.True(t, v.Stored)
			assert.Equal(t, "123", v.Value)
			assert.Equal(t, settings.DefaultClientID, v.Default)
		} else {
			assert.False(t, v.Stored, v.Key)
			assert.Equal(t, v.Default, v.Value, v.Key)
		}
	}
}

func TestFormatFields(t *testing.T) {
	out, err := formatFields("[%artist% - ]%title%", []string{"Title=Blue", "artist=Joni Mitchell"})
	require.NoError(t, err)
	assert.Equal(t, "Joni Mitchell - Blue", out)

	out, err = formatFields("[%artist% - ]%title%", []string{"title=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", out)

	_, err = formatFields("%title%", []string{"novalue"})
	assert.Error(t, err)
}
