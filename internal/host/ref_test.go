package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/host/hosttest"
)

func TestRef_ReleaseOnce(t *testing.T) {
	calls := 0
	ref := host.NewRef[host.Item](&hosttest.Track{ID: "a"}, func(host.Item) error {
		calls++
		return nil
	})

	require.NoError(t, ref.Release())
	require.NoError(t, ref.Release())
	assert.Equal(t, 1, calls)
	assert.False(t, ref.Valid())
}

func TestRef_TransferSuppressesOriginRelease(t *testing.T) {
	api := hosttest.New()
	track := &hosttest.Track{ID: "next"}

	origin, err := host.AcquireItem(api, track)
	require.NoError(t, err)
	assert.Equal(t, 1, api.Refs(track.Identity()))

	moved := origin.Transfer()

	require.NoError(t, origin.Release())
	assert.Equal(t, 1, api.Refs(track.Identity()), "origin release after transfer must not unref")

	require.NoError(t, moved.Release())
	assert.Equal(t, 0, api.Refs(track.Identity()))

	require.NoError(t, moved.Release())
	assert.Equal(t, 0, api.Refs(track.Identity()))
}

func TestRef_TransferAfterReleasePanics(t *testing.T) {
	ref := host.NewRef[host.Item](&hosttest.Track{ID: "x"}, func(host.Item) error { return nil })
	require.NoError(t, ref.Release())

	assert.Panics(t, func() { ref.Transfer() })
}

func TestRef_NilHandle(t *testing.T) {
	api := hosttest.New()

	ref, err := host.PlayingTrack(api)
	require.NoError(t, err)
	assert.False(t, ref.Valid())
	assert.NoError(t, ref.Release())
}

func TestPlayingTrack_Balanced(t *testing.T) {
	api := hosttest.New()
	api.Playing = &hosttest.Track{ID: "now"}
	api.List = &hosttest.Playlist{Name: "main"}

	it, err := host.PlayingTrack(api)
	require.NoError(t, err)
	plt, err := host.CurrentPlaylist(api)
	require.NoError(t, err)

	assert.Equal(t, 2, api.Outstanding())

	require.NoError(t, it.Release())
	require.NoError(t, plt.Release())
	assert.Equal(t, 0, api.Outstanding())
}
