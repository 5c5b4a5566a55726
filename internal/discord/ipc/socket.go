package ipc

import "fmt"

// maxSocketIndex is the number of discord-ipc-N endpoints probed.
const maxSocketIndex = 10

func socketName(i int) string {
	return fmt.Sprintf("discord-ipc-%d", i)
}
