package doctor

import (
	"context"
	"fmt"
)

// MPDCheck verifies the music player daemon answers.
type MPDCheck struct {
	addr string
	ping func() error
}

// NewMPDCheck creates a check that calls ping against addr.
func NewMPDCheck(addr string, ping func() error) *MPDCheck {
	return &MPDCheck{addr: addr, ping: ping}
}

func (c *MPDCheck) Name() string {
	return "MPD"
}

func (c *MPDCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.ping(); err != nil {
		result.add(StatusFail, "Reachable", fmt.Sprintf("%s: %v", c.addr, err))
		return result
	}

	result.add(StatusPass, "Reachable", c.addr)
	return result
}
