//go:build windows

package ipc

import (
	"context"
	"io"
	"os"
)

// SocketPaths lists candidate named pipes in probe order.
func SocketPaths() []string {
	paths := make([]string, 0, maxSocketIndex)
	for i := range maxSocketIndex {
		paths = append(paths, `\\.\pipe\`+socketName(i))
	}
	return paths
}

func dialPath(_ context.Context, path string) (io.ReadWriteCloser, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}
