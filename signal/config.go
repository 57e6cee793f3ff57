// Package signal serves the signaling websocket endpoint.
package signal

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

const (
	// DefaultPort is the default port number for the server.
	DefaultPort = 7070

	// DefaultPath is the default path of the websocket endpoint.
	DefaultPath = "/ws"

	// HealthPath answers liveness probes on the signaling port.
	HealthPath = "/health"
)

// Below is the Error message for the server.
var (
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidCertFile = errors.New("invalid cert file")
	ErrInvalidKeyFile  = errors.New("invalid key file")
	ErrInvalidPath     = errors.New("invalid path")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	Port           int
	Debug          bool
	CertFile       string
	KeyFile        string
	Path           string
	AllowedOrigins []string
}

// IsSame checks if the given config is the same as the current one.
func (c Config) IsSame(config Config) bool {
	return c.Port == config.Port &&
		c.Debug == config.Debug &&
		c.CertFile == config.CertFile &&
		c.KeyFile == config.KeyFile &&
		c.Path == config.Path &&
		slices.Equal(c.AllowedOrigins, config.AllowedOrigins)
}

// Validate validates the port number and the files for certification.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidPort)
	}

	if !strings.HasPrefix(c.Path, "/") || c.Path == HealthPath {
		return fmt.Errorf("must start with '/' and differ from %s, given %q: %w", HealthPath, c.Path, ErrInvalidPath)
	}

	if c.CertFile == "" && c.KeyFile == "" {
		return nil
	}

	if _, err := os.Stat(c.CertFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %w", c.CertFile, ErrInvalidCertFile)
		}
		return fmt.Errorf("unable to access %s: %w", c.CertFile, ErrInvalidCertFile)
	}

	if _, err := os.Stat(c.KeyFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %w", c.KeyFile, ErrInvalidKeyFile)
		}
		return fmt.Errorf("unable to access %s: %w", c.KeyFile, ErrInvalidKeyFile)
	}

	return nil
}
