package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"screenshare/broker"
	"screenshare/coordinator"
	"screenshare/database"
	"screenshare/database/memory"
	"screenshare/metric"
	"screenshare/presence"
	"screenshare/room"
	"screenshare/signal"
	"screenshare/signal/controller"
	"screenshare/signal/signaling"
)

// Server contains servers and configuration.
type Server struct {
	broker    *broker.Broker
	database  database.Database
	directory *room.Directory
	signal    *signal.Signal
	metric    *metric.Metrics
	logger    *logrus.Entry

	// ctx is canceled by Shutdown and stops the metric sampler.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new instance of Server.
func New(config *Config) *Server {
	logger := config.Logger()
	prefix := func(name string) *logrus.Entry {
		return logger.WithField("prefix", name)
	}

	met := metric.New(config.Metrics, prefix("metric"))
	brk := broker.New(config.Broker)
	db := memory.New()
	dir := room.NewDirectory(config.Room, presence.New(brk, met, prefix("presence")))
	cod := coordinator.New(config.Coordinator, brk, db, dir, met, prefix("coordinator"))
	sig := signaling.New(db, brk, met, prefix("relay"))
	con := controller.New(cod, sig, prefix("controller"), config.Signal.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		broker:    brk,
		database:  db,
		directory: dir,
		signal:    signal.New(config.Signal, con, prefix("signal")),
		metric:    met,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handler returns the HTTP handler of the signaling endpoint.
func (s *Server) Handler() http.Handler {
	return s.signal.Handler()
}

// MetricsHandler returns the HTTP handler of the metrics endpoint.
func (s *Server) MetricsHandler() http.Handler {
	return s.metric.Handler()
}

// Start runs the metrics server and blocks serving the signal server. It
// returns nil once Shutdown was called, even if Shutdown came first.
func (s *Server) Start() error {
	s.metric.Start(s.ctx)
	if err := s.signal.Start(); err != nil {
		s.cancel()
		return fmt.Errorf("failed to start signal server: %w", err)
	}
	return nil
}

// Shutdown stops the signal and metrics servers. It is safe to call from
// another goroutine than Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	count, err := s.database.CountConnectionInfos()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count connections")
	}
	s.logger.WithFields(logrus.Fields{
		"connections": count,
		"queues":      s.broker.Len(),
		"rooms":       s.directory.Len(),
	}).Info("Shutting down")

	return errors.Join(
		s.signal.Shutdown(ctx),
		s.metric.Stop(ctx),
	)
}
