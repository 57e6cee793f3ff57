// Package server wires the signaling service together.
package server

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"screenshare/broker"
	"screenshare/coordinator"
	"screenshare/metric"
	"screenshare/room"
	"screenshare/signal"
)

// DefaultLogLevel is the log level used when none is configured.
const DefaultLogLevel = "info"

// ErrInvalidLogLevel is returned for an unknown log level.
var ErrInvalidLogLevel = errors.New("invalid log level")

var logLevels = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
	"fatal": logrus.FatalLevel,
	"panic": logrus.PanicLevel,
}

// Config contains the configuration for the server.
type Config struct {
	Signal      signal.Config
	Metrics     metric.Config
	Coordinator coordinator.Config
	Room        room.Config
	Broker      broker.Config
	LogLevel    string

	// LogOutput receives log lines, os.Stderr if nil.
	LogOutput io.Writer

	logger *logrus.Logger
}

// Validate validates every part of the configuration.
func (c *Config) Validate() error {
	if err := c.Signal.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Broker.Validate(); err != nil {
		return err
	}
	if err := c.Room.Validate(); err != nil {
		return err
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("%q: %w", c.LogLevel, ErrInvalidLogLevel)
	}
	return nil
}

// Logger returns a formatted logrus Entry, with prefix set to "server".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
		c.logger.Out = os.Stderr
		if c.LogOutput != nil {
			c.logger.Out = c.LogOutput
		}
	}
	return c.logger.WithField("prefix", "server")
}

// LogLevel parses a string into a Logrus log level. Unknown levels fall back
// to info.
func LogLevel(l string) logrus.Level {
	if level, ok := logLevels[l]; ok {
		return level
	}
	return logrus.InfoLevel
}
