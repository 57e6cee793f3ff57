// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger logs requests and responses.
type Logger struct {
	logger *logrus.Entry
}

// statusRecorder remembers the status code. It must keep Hijack working or
// websocket upgrades behind it fail.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (l *statusRecorder) WriteHeader(code int) {
	l.statusCode = code
	l.ResponseWriter.WriteHeader(code)
}

// Hijack hijacks the connection. This is necessary for using websockets.
func (l *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	// Upgraded connections report 101 once hijacked.
	l.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// NewLogger creates a new Logger middleware.
func NewLogger(logger *logrus.Entry) *Logger {
	return &Logger{
		logger: logger,
	}
}

// Intercept logs the request and response.
func (l Logger) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		entry := l.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start).String(),
		})
		if rw.statusCode >= 400 {
			entry.Warn("request failed")
		} else {
			entry.Debug("request succeeded")
		}
	})
}
