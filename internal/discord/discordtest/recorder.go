// Package discordtest provides a recording presence transport for tests.
package discordtest

import (
	"context"
	"sync"

	"github.com/hay-kot/nowplaying/internal/discord"
)

// Op names recorded by the Recorder.
const (
	OpConnect = "connect"
	OpSet     = "set"
	OpClear   = "clear"
	OpClose   = "close"
)

// Call is one transport invocation.
type Call struct {
	Op       string
	ClientID string
	Activity discord.Activity
}

// Recorder is a discord.Dialer whose transports record every call instead
// of talking to Discord.
type Recorder struct {
	mu    sync.Mutex
	Calls []Call

	// ConnectErr fails Connect for the given client id.
	ConnectErr map[string]error

	setErrs []error
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{ConnectErr: make(map[string]error)}
}

// Dial implements discord.Dialer.
func (r *Recorder) Dial(clientID string) discord.Transport {
	return &transport{rec: r, clientID: clientID}
}

// FailNextSet makes the next SetActivity call return err.
func (r *Recorder) FailNextSet(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setErrs = append(r.setErrs, err)
}

// Ops returns the recorded calls as "op:client_id" strings.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Op + ":" + c.ClientID
	}
	return out
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Published returns every activity passed to SetActivity, in order.
func (r *Recorder) Published() []discord.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []discord.Activity
	for _, c := range r.Calls {
		if c.Op == OpSet {
			out = append(out, c.Activity)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)
}

type transport struct {
	rec      *Recorder
	clientID string
}

func (t *transport) Connect(context.Context) error {
	t.rec.record(Call{Op: OpConnect, ClientID: t.clientID})

	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return t.rec.ConnectErr[t.clientID]
}

func (t *transport) SetActivity(_ context.Context, a discord.Activity) error {
	t.rec.record(Call{Op: OpSet, ClientID: t.clientID, Activity: a})

	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	if len(t.rec.setErrs) == 0 {
		return nil
	}
	err := t.rec.setErrs[0]
	t.rec.setErrs = t.rec.setErrs[1:]
	return err
}

func (t *transport) ClearActivity(context.Context) error {
	t.rec.record(Call{Op: OpClear, ClientID: t.clientID})
	return nil
}

func (t *transport) Close() error {
	t.rec.record(Call{Op: OpClose, ClientID: t.clientID})
	return nil
}
