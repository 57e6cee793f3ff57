// Package handler upgrades HTTP requests to signaling sockets.
package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"screenshare/pkg/socket"
	"screenshare/signal/controller"
)

// Handler upgrades the request and hands the socket to the controller.
type Handler struct {
	controller  controller.Processor
	checkOrigin func(*http.Request) bool
	logger      *logrus.Entry
}

// New creates a Handler. checkOrigin decides which origins may upgrade.
func New(c controller.Processor, checkOrigin func(*http.Request) bool, logger *logrus.Entry) *Handler {
	return &Handler{
		controller:  c,
		checkOrigin: checkOrigin,
		logger:      logger,
	}
}

// ServeHTTP handles the HTTP request and upgrades it to websocket connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, err := socket.New(w, r, h.checkOrigin)
	if err != nil {
		// The upgrader already replied with an HTTP error.
		h.logger.WithError(err).Debug("Failed to upgrade connection")
		return
	}
	defer func() {
		if err := s.Close(); err != nil {
			h.logger.WithError(err).Debug("Failed to close socket")
		}
	}()

	if err := h.controller.Process(s); err != nil {
		h.logger.WithError(err).Info("Connection ended")
	}
}
