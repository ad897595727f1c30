package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/rza-core/internal/report"
)

// bytesPerMB converts byte counts to megabytes.
const bytesPerMB = 1024 * 1024

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          BrokerMetrics   `json:"mqtt"`
	InfluxDB      BrokerMetrics   `json:"influxdb"`
	Database      DatabaseMetrics `json:"database"`
	Entities      *report.Summary `json:"entities,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	DroppedMessages  uint64 `json:"dropped_messages"`
}

// BrokerMetrics reports an optional outbound connection. Sent counts
// messages published (MQTT) or points queued (InfluxDB).
type BrokerMetrics struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Sent      uint64 `json:"sent"`
	Failed    uint64 `json:"failed"`
}

// DatabaseMetrics contains connection pool statistics and the schema
// version, which is the newest applied migration.
type DatabaseMetrics struct {
	Path              string `json:"path"`
	SchemaVersion     string `json:"schema_version,omitempty"`
	PendingMigrations int    `json:"pending_migrations"`
	OpenConnections   int    `json:"open_connections"`
	InUse             int    `json:"in_use"`
	Idle              int    `json:"idle"`
	WaitCount         int64  `json:"wait_count"`
}

// handleMetrics returns runtime, connection and entity-count metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.projectVersion(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
		metrics.WebSocket.DroppedMessages = s.hub.Dropped()
	}
	if s.mqtt != nil {
		stats := s.mqtt.Stats()
		metrics.MQTT = BrokerMetrics{
			Enabled:   true,
			Connected: s.mqtt.IsConnected(),
			Sent:      stats.Published,
			Failed:    stats.Failed,
		}
	}
	if s.influx != nil {
		stats := s.influx.Stats()
		metrics.InfluxDB = BrokerMetrics{
			Enabled:   true,
			Connected: s.influx.IsConnected(),
			Sent:      stats.Queued,
			Failed:    stats.Failed,
		}
	}

	dbStats := s.db.Stats()
	metrics.Database = DatabaseMetrics{
		Path:            s.db.Path(),
		OpenConnections: dbStats.OpenConnections,
		InUse:           dbStats.InUse,
		Idle:            dbStats.Idle,
		WaitCount:       dbStats.WaitCount,
	}
	if applied, pending, err := s.db.GetMigrationStatus(r.Context()); err == nil {
		if len(applied) > 0 {
			metrics.Database.SchemaVersion = applied[len(applied)-1].Version
		}
		metrics.Database.PendingMigrations = len(pending)
	} else {
		s.logger.Warn("metrics: migration status failed", "error", err)
	}

	// Entity counts are best effort; the rest of the metrics stay useful
	// when the database is unavailable.
	if summary, err := s.reports.Summary(r.Context()); err == nil {
		metrics.Entities = summary
	} else {
		s.logger.Warn("metrics: entity summary failed", "error", err)
	}

	writeJSON(w, http.StatusOK, metrics)
}
