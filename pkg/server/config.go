package server

import (
	"errors"
	"net/http"
	"time"
)

// Config holds configuration for the HTTP/WebSocket server.
type Config struct {
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
	// Default: allows all origins (not recommended for production).
	CheckOrigin func(r *http.Request) bool

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// ReadTimeout is the maximum time to wait for a message from the client.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit.
	MaxSessions int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:         ":8080",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
		MaxMessageSize:  64 * 1024,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = defaults.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &out
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxMessageSize < 0 {
		errs = append(errs, errors.New("MaxMessageSize must not be negative"))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, errors.New("MaxSessions must not be negative"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}
