//go:build !windows

package ipc

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
)

// sandboxDirs are the subdirectories Flatpak and Snap builds of Discord
// place their socket under.
var sandboxDirs = []string{"", "app/com.discordapp.Discord", "snap.discord"}

// SocketPaths lists candidate IPC socket paths in probe order.
func SocketPaths() []string {
	base := "/tmp"
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(env); v != "" {
			base = v
			break
		}
	}

	paths := make([]string, 0, maxSocketIndex*len(sandboxDirs))
	for _, dir := range sandboxDirs {
		for i := range maxSocketIndex {
			paths = append(paths, filepath.Join(base, dir, socketName(i)))
		}
	}
	return paths
}

func dialPath(ctx context.Context, path string) (io.ReadWriteCloser, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
