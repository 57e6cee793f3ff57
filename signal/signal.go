package signal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"screenshare/signal/controller"
	"screenshare/signal/handler"
	"screenshare/signal/middleware"
)

// Signal contains the server and configuration.
type Signal struct {
	server *http.Server
	conf   Config
	logger *logrus.Entry
}

// New creates a new instance of Signal serving sockets with the processor.
func New(config Config, processor controller.Processor, logger *logrus.Entry) *Signal {
	cors := middleware.NewCORS(config.AllowedOrigins)
	mds := []middleware.Interceptor{
		cors,
		middleware.NewLogger(logger),
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, middleware.Set(handler.New(processor, cors.CheckOrigin, logger), mds...))
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		ReadHeaderTimeout: 2 * time.Second,
		Handler:           mux,
	}
	return &Signal{
		server: srv,
		conf:   config,
		logger: logger,
	}
}

// Handler returns the HTTP handler of the signal server.
func (s *Signal) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the signal server. It returns nil once Shutdown was called.
func (s *Signal) Start() error {
	var err error
	if s.conf.CertFile == "" || s.conf.KeyFile == "" {
		s.logger.Infof("Starting server port on %d, without TLS", s.conf.Port)
		err = s.server.ListenAndServe()
	} else {
		s.logger.Infof("Starting server port on %d, with TLS", s.conf.Port)
		err = s.server.ListenAndServeTLS(s.conf.CertFile, s.conf.KeyFile)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers until ctx is
// done. Hijacked websocket connections are not tracked by the server.
func (s *Signal) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}
