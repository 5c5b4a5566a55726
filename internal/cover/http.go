package cover

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single MusicBrainz request.
var DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the client used for metadata lookups.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   DefaultTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}
}
