// Package cmd parse args to configure application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"screenshare/broker"
	"screenshare/broker/subscription"
	"screenshare/coordinator"
	"screenshare/metric"
	"screenshare/room"
	"screenshare/server"
	sig "screenshare/signal"
)

// EnvPrefix prefixes the environment variables read by the application.
const EnvPrefix = "SCREENSHARE"

// ErrNotParsed is returned when the command line was consumed without
// producing a configuration, e.g. for --help.
var ErrNotParsed = errors.New("configuration not parsed")

const shutdownTimeout = 5 * time.Second

// Run starts the application.
func Run() {
	config, err := SetupConfig(os.Stdout, os.Args[1:])
	if err != nil {
		if !errors.Is(err, ErrNotParsed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := config.Logger()
	srv := server.New(&config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("Server stopped")
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down")
		}
	}
}

// SetupConfig sets up and returns the configuration.
func SetupConfig(w io.Writer, args []string) (server.Config, error) {
	config, err := Parse(w, args)
	if err != nil {
		return config, err
	}
	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Parse parses the command line arguments, the environment and the optional
// config file, in decreasing order of precedence.
func Parse(w io.Writer, args []string) (server.Config, error) {
	var (
		config server.Config
		parsed bool
	)

	v := viper.New()
	cmd := &cobra.Command{
		Use:           "screenshare",
		Short:         "Signaling server for browser screen sharing",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlagsLoadViper(cmd, v); err != nil {
				return err
			}
			config = configFromViper(v)
			parsed = true
			return nil
		},
	}
	cmd.SetOut(w)
	cmd.SetErr(w)
	cmd.SetArgs(args)
	addFlags(cmd)

	if err := cmd.Execute(); err != nil {
		return server.Config{}, fmt.Errorf("failed to parse args: %w", err)
	}
	if !parsed {
		return server.Config{}, ErrNotParsed
	}
	return config, nil
}

// addFlags adds flags to the root command.
func addFlags(cmd *cobra.Command) {
	// Signal
	cmd.Flags().Int("port", sig.DefaultPort, "listening port")
	cmd.Flags().Bool("debug", false, "debug mode")
	cmd.Flags().String("key", "", "key file path")
	cmd.Flags().String("cert", "", "cert file path")
	cmd.Flags().String("path", sig.DefaultPath, "websocket endpoint path")
	cmd.Flags().StringSlice("origin", nil, "allowed origins, any origin if empty")

	// Delivery
	cmd.Flags().Int("queue-size", broker.DefaultQueueSize, "outbound queue size per connection")
	cmd.Flags().String("drop-policy", string(broker.DefaultDropPolicy), "drop-new or drop-oldest when a queue is full")

	// Rooms
	cmd.Flags().Bool("multi-room", coordinator.DefaultMultiRoom, "allow a connection to be in several rooms")
	cmd.Flags().Int("max-members", 0, "members per room, unlimited if 0")

	// Observability
	cmd.Flags().String("log-level", server.DefaultLogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().Int("metrics-port", metric.DefaultMetricsPort, "metrics port, disabled if 0")
	cmd.Flags().String("metrics-path", metric.DefaultMetricsPath, "metrics endpoint path")

	cmd.Flags().String("config", "", "config file path")
}

// bindFlagsLoadViper registers the flags with viper and reads the environment
// and the config file.
func bindFlagsLoadViper(cmd *cobra.Command, v *viper.Viper) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func configFromViper(v *viper.Viper) server.Config {
	return server.Config{
		Signal: sig.Config{
			Port:           v.GetInt("port"),
			Debug:          v.GetBool("debug"),
			CertFile:       v.GetString("cert"),
			KeyFile:        v.GetString("key"),
			Path:           v.GetString("path"),
			AllowedOrigins: v.GetStringSlice("origin"),
		},
		Metrics: metric.Config{
			Port:           v.GetInt("metrics-port"),
			Path:           v.GetString("metrics-path"),
			SystemInterval: metric.DefaultSystemInterval,
		},
		Broker: broker.Config{
			QueueSize:  v.GetInt("queue-size"),
			DropPolicy: subscription.Policy(v.GetString("drop-policy")),
		},
		Coordinator: coordinator.Config{
			MultiRoom: v.GetBool("multi-room"),
		},
		Room: room.Config{
			MaxMembers: v.GetInt("max-members"),
		},
		LogLevel: v.GetString("log-level"),
	}
}
