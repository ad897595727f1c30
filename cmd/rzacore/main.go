// RZA Core - substation protection asset registry.
//
// This is the main entry point for the RZA Core service. It serves the
// substation hierarchy, device configurations, setting revisions, documents
// and the audit trail over HTTP, and mirrors every committed change to the
// WebSocket hub and, when enabled, to MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/rza-core/migrations"

	"github.com/nerrad567/rza-core/internal/api"
	"github.com/nerrad567/rza-core/internal/asset"
	"github.com/nerrad567/rza-core/internal/audit"
	"github.com/nerrad567/rza-core/internal/events"
	"github.com/nerrad567/rza-core/internal/infrastructure/config"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
	"github.com/nerrad567/rza-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/rza-core/internal/infrastructure/logging"
	"github.com/nerrad567/rza-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/rza-core/internal/report"
	"github.com/nerrad567/rza-core/internal/settings"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RZA Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := resolveConfigPath(getConfigPath())
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath == "" {
		log.Info("no config file found, using defaults and environment")
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	dbCfg := database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	}
	if cfg.Database.DebugSQL {
		dbCfg.Echo = log.With("component", "database").SQL
	}
	db, err := database.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	docs, err := settings.NewDocumentValidator(cfg.Documents)
	if err != nil {
		return fmt.Errorf("compiling document schema: %w", err)
	}

	auditRepo := audit.NewSQLiteRepository(db)
	recorder := audit.NewRecorder(auditRepo, cfg.Audit)

	hub := api.NewHub(cfg.WebSocket, log)
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	bus := events.NewBus(log, hub)

	mqttClient := connectMQTT(cfg.MQTT, log)
	if mqttClient != nil {
		defer func() {
			log.Info("closing MQTT connection")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		bus.Add(events.NewMQTTSink(mqttClient, mqttClient.Topics(), mqttClient.QoS()))
	}

	influxClient := connectInfluxDB(cfg.InfluxDB, log)
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		bus.Add(events.NewInfluxSink(influxClient))
	}
	log.Info("event sinks registered", "sinks", bus.Sinks())

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Project:  cfg.Project,
		Logger:   log,
		DB:       db,
		Assets:   asset.NewService(db, recorder, bus),
		Settings: settings.NewService(db, recorder, docs, bus),
		Reports:  report.NewService(db),
		Audit:    auditRepo,
		Hub:      hub,
		MQTT:     mqttClient,
		InfluxDB: influxClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, hub, database.

	log.Info("RZA Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RZA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RZA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// resolveConfigPath drops the default path when no such file exists, so the
// service can run from defaults and RZA_* variables alone. An explicit path
// that is missing is still an error.
func resolveConfigPath(path string) string {
	if path != defaultConfigPath {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

// connectMQTT connects to the broker when MQTT is enabled. A failed
// connection is logged and the service runs without the MQTT sink.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) *mqtt.Client {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		log.Warn("MQTT unavailable, continuing without change notifications",
			"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
			"error", err,
		)
		return nil
	}

	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"topic_prefix", cfg.TopicPrefix,
	)
	return client
}

// connectInfluxDB connects to InfluxDB when it is enabled. A failed
// connection is logged and the service runs without the InfluxDB sink.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) *influxdb.Client {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		log.Warn("InfluxDB unavailable, continuing without change history export",
			"url", cfg.URL,
			"error", err,
		)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client
}
