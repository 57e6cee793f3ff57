package metric

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default values for metrics configuration.
const (
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
	DefaultSystemInterval  = 5 * time.Second
	DefaultHealthCheckPath = "/healthz"
)

// ErrInvalidMetricsConfig is returned when the metrics configuration is invalid.
var ErrInvalidMetricsConfig = errors.New("invalid metrics config")

// Config defines the configuration for the metrics server.
type Config struct {
	Port           int           // Port for metrics server, 0 disables it
	Path           string        // Path for metrics endpoint
	SystemInterval time.Duration // Interval between system metric samples
}

// Validate validates the port and the path.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, given %d: %w", c.Port, ErrInvalidMetricsConfig)
	}
	if c.Port != 0 && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with '/', given %q: %w", c.Path, ErrInvalidMetricsConfig)
	}
	return nil
}
