package doctor

import (
	"context"
	"os"

	"github.com/hay-kot/nowplaying/internal/discord/ipc"
)

// DiscordCheck looks for a local Discord IPC endpoint.
type DiscordCheck struct {
	paths func() []string
}

// NewDiscordCheck creates a check over the standard socket locations.
func NewDiscordCheck() *DiscordCheck {
	return &DiscordCheck{paths: ipc.SocketPaths}
}

func (c *DiscordCheck) Name() string {
	return "Discord"
}

func (c *DiscordCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	for _, p := range c.paths() {
		if _, err := os.Stat(p); err == nil {
			result.add(StatusPass, "IPC socket", p)
			return result
		}
	}

	result.add(StatusWarn, "IPC socket", "not found; is the Discord desktop client running?")
	return result
}
