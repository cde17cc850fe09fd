package server

import (
	"net/http"
	"net/url"
	"time"
)

// ServerConfig holds configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout bounds each websocket write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is how often watchers are pinged. A watcher that does
	// not answer within two intervals is dropped.
	// Default: 30 seconds.
	PingInterval time.Duration

	// WatcherBuffer is how many events may queue per watcher before it is
	// dropped as too slow.
	// Default: 64.
	WatcherBuffer int

	// MaxBodyBytes limits request bodies.
	// Default: 1 MiB.
	MaxBodyBytes int64

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:         ":8080",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     SameOriginCheck,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		WatcherBuffer:   64,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 30 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	clone := c.Clone()
	if clone.Address == "" {
		clone.Address = defaults.Address
	}
	if clone.ReadBufferSize == 0 {
		clone.ReadBufferSize = defaults.ReadBufferSize
	}
	if clone.WriteBufferSize == 0 {
		clone.WriteBufferSize = defaults.WriteBufferSize
	}
	if clone.CheckOrigin == nil {
		clone.CheckOrigin = defaults.CheckOrigin
	}
	if clone.WriteTimeout == 0 {
		clone.WriteTimeout = defaults.WriteTimeout
	}
	if clone.PingInterval == 0 {
		clone.PingInterval = defaults.PingInterval
	}
	if clone.WatcherBuffer == 0 {
		clone.WatcherBuffer = defaults.WatcherBuffer
	}
	if clone.MaxBodyBytes == 0 {
		clone.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if clone.ShutdownTimeout == 0 {
		clone.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return clone
}

// SameOriginCheck validates that the WebSocket request origin matches the
// host. Requests without an Origin header (CLI watchers) are allowed.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
