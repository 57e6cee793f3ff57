// Package metric provides Prometheus metrics collection and monitoring.
package metric

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/sirupsen/logrus"
)

// Reasons a message was not delivered.
const (
	ReasonTargetGone = "target_gone"
	ReasonQueueFull  = "queue_full"
)

// Metrics contains the Prometheus metrics server and registered custom metrics.
type Metrics struct {
	httpServer           *http.Server
	config               Config
	registry             *prometheus.Registry
	logger               *logrus.Entry
	webSocketConnections prometheus.Gauge
	rooms                prometheus.Gauge
	sharers              prometheus.Gauge
	relayed              *prometheus.CounterVec
	presenceEvents       *prometheus.CounterVec
	dropped              *prometheus.CounterVec
	cpuUsage             prometheus.Gauge
	memoryUsage          prometheus.Gauge
	systemMemoryUsage    prometheus.Gauge
}

// New creates a new Metrics instance with the specified configuration. Every
// instance owns its registry, so several can live in one process.
func New(config Config, logger *logrus.Entry) *Metrics {
	m := &Metrics{
		config:   config,
		registry: prometheus.NewRegistry(),
		logger:   logger,
		webSocketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_websocket_connections",
			Help: "Current number of WebSocket connections.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_rooms",
			Help: "Current number of rooms with at least one member.",
		}),
		sharers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_sharing_connections",
			Help: "Current number of connections sharing their screen.",
		}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenshare_relayed_messages_total",
			Help: "Negotiation messages delivered to their target.",
		}, []string{"kind"}),
		presenceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenshare_presence_events_total",
			Help: "Presence events enqueued for room members.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenshare_dropped_messages_total",
			Help: "Messages that were not delivered.",
		}, []string{"reason"}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_cpu_usage_percentage",
			Help: "CPU usage percentage.",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_memory_usage_bytes",
			Help: "Heap memory allocated by the process in bytes.",
		}),
		systemMemoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_system_memory_usage_percentage",
			Help: "System memory usage percentage.",
		}),
	}
	m.registry.MustRegister(
		m.webSocketConnections,
		m.rooms,
		m.sharers,
		m.relayed,
		m.presenceEvents,
		m.dropped,
		m.cpuUsage,
		m.memoryUsage,
		m.systemMemoryUsage,
		prometheus.NewGoCollector(),
	)

	if config.Port != 0 {
		m.httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           m.Handler(),
			ReadHeaderTimeout: 2 * time.Second,
		}
	}
	return m
}

// Handler returns the HTTP handler serving the metrics and the health check.
func (m *Metrics) Handler() http.Handler {
	path := m.config.Path
	if path == "" {
		path = DefaultMetricsPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(DefaultHealthCheckPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start runs the metrics HTTP server and the system sampler until ctx is done.
// A zero port disables the HTTP server. Once Stop was called the HTTP server
// does not start again.
func (m *Metrics) Start(ctx context.Context) {
	go m.UpdateSystemMetrics(ctx)

	if m.httpServer == nil {
		return
	}

	go func() {
		m.logger.Infof("Starting metrics server on port %d at path %s", m.config.Port, m.config.Path)
		if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.WithError(err).Error("Metrics server stopped")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (m *Metrics) Stop(ctx context.Context) error {
	if m.httpServer != nil {
		m.logger.Infof("Stopping metrics server on port %d", m.config.Port)
		return m.httpServer.Shutdown(ctx)
	}
	return nil
}

// UpdateSystemMetrics samples process and system usage until ctx is done.
func (m *Metrics) UpdateSystemMetrics(ctx context.Context) {
	interval := m.config.SystemInterval
	if interval <= 0 {
		interval = DefaultSystemInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.sampleSystem()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Metrics) sampleSystem() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.memoryUsage.Set(float64(memStats.Alloc))

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		m.cpuUsage.Set(percents[0])
	} else if err != nil {
		m.logger.WithError(err).Debug("Failed to sample cpu usage")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		m.systemMemoryUsage.Set(vm.UsedPercent)
	} else {
		m.logger.WithError(err).Debug("Failed to sample memory usage")
	}
}

// IncrementWebSocketConnections increments the WebSocket connection count.
func (m *Metrics) IncrementWebSocketConnections() {
	m.webSocketConnections.Inc()
}

// DecrementWebSocketConnections decrements the WebSocket connection count.
func (m *Metrics) DecrementWebSocketConnections() {
	m.webSocketConnections.Dec()
}

// SetRooms sets the number of live rooms.
func (m *Metrics) SetRooms(count int) {
	m.rooms.Set(float64(count))
}

// SetSharers sets the number of sharing connections.
func (m *Metrics) SetSharers(count int) {
	m.sharers.Set(float64(count))
}

// IncrementRelayed counts a delivered negotiation message of kind.
func (m *Metrics) IncrementRelayed(kind string) {
	m.relayed.WithLabelValues(kind).Inc()
}

// AddPresenceEvents counts count enqueued presence events of type eventType.
func (m *Metrics) AddPresenceEvents(eventType string, count int) {
	m.presenceEvents.WithLabelValues(eventType).Add(float64(count))
}

// IncrementDropped counts an undelivered message.
func (m *Metrics) IncrementDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}
