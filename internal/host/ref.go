package host

import (
	"fmt"
	"sync/atomic"
)

const (
	refOwned int32 = iota
	refReleased
	refTransferred
)

// Ref owns one reference to a host handle and gives it back exactly once.
//
// Moving a handle to another goroutine goes through Transfer, which hands the
// reference to a new Ref and turns the original into an empty shell whose
// Release does nothing.
type Ref[T any] struct {
	handle  T
	release func(T) error
	state   atomic.Int32
}

// NewRef takes ownership of a reference already held on h.
func NewRef[T any](h T, release func(T) error) *Ref[T] {
	return &Ref[T]{handle: h, release: release}
}

// Get returns the handle. It must not be used after Release or Transfer.
func (r *Ref[T]) Get() T {
	return r.handle
}

// Valid reports whether the ref still owns a non-nil handle.
func (r *Ref[T]) Valid() bool {
	return r.state.Load() == refOwned && any(r.handle) != nil
}

// Release gives the reference back to the host. Calls after the first, or
// after a Transfer, are no-ops.
func (r *Ref[T]) Release() error {
	if !r.state.CompareAndSwap(refOwned, refReleased) {
		return nil
	}
	if any(r.handle) == nil {
		return nil
	}
	return r.release(r.handle)
}

// Transfer moves ownership into a new Ref. Transferring a ref that was
// already released or moved is a programming error and panics.
func (r *Ref[T]) Transfer() *Ref[T] {
	if !r.state.CompareAndSwap(refOwned, refTransferred) {
		panic(fmt.Sprintf("host: transfer of ref in state %d", r.state.Load()))
	}
	return NewRef(r.handle, r.release)
}

// AcquireItem takes a new reference on a borrowed item.
func AcquireItem(api API, it Item) (*Ref[Item], error) {
	if it != nil {
		if err := api.ItemRef(it); err != nil {
			return nil, fmt.Errorf("ref item: %w", err)
		}
	}
	return NewRef(it, api.ItemUnref), nil
}

// PlayingTrack returns a ref to the currently playing track. The ref's
// handle is nil when nothing is playing.
func PlayingTrack(api API) (*Ref[Item], error) {
	it, err := api.PlayingTrack()
	if err != nil {
		return nil, fmt.Errorf("get playing track: %w", err)
	}
	return NewRef(it, api.ItemUnref), nil
}

// CurrentPlaylist returns a ref to the current playlist.
func CurrentPlaylist(api API) (*Ref[Playlist], error) {
	plt, err := api.CurrentPlaylist()
	if err != nil {
		return nil, fmt.Errorf("get current playlist: %w", err)
	}
	return NewRef(plt, api.PlaylistUnref), nil
}
