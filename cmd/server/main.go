// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/eventfeed/internal/api"
	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/config"
	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
	"github.com/tomtom215/eventfeed/internal/mirror"
	"github.com/tomtom215/eventfeed/internal/seed"
	"github.com/tomtom215/eventfeed/internal/storage"
	"github.com/tomtom215/eventfeed/internal/supervisor"
	"github.com/tomtom215/eventfeed/internal/supervisor/services"
	"github.com/tomtom215/eventfeed/internal/tenant"
	ws "github.com/tomtom215/eventfeed/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	metrics.SetAppInfo(version, runtime.Version())
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Int("buffer_size", cfg.Events.BufferSize).
		Bool("storage_in_memory", cfg.Storage.InMemory).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting event feed server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // Sequential setup steps
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === STORAGE ===

	db, err := storage.Open(storage.Options{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
	})
	if err != nil {
		return err
	}
	defer closeDB(db)

	directory := tenant.NewDirectory(db)
	users := auth.NewBadgerUserStore(db)

	if err := seedData(ctx, cfg, directory, users); err != nil {
		return err
	}

	// === EVENT PIPELINE ===

	hub := ws.NewHub()
	sinks := events.Sinks{hub}

	eventMirror := newMirror(cfg)
	if eventMirror != nil {
		sinks = append(sinks, eventMirror)
	}

	store := events.NewStore(cfg.Events.BufferSize, events.WithSink(sinks))
	ingestor := events.NewIngestor(store, events.NewValidator(cfg.Events.MessageMaxLength))

	authn := auth.NewAuthenticator(directory, users, auth.BreakerConfig{
		FailureThreshold: cfg.Security.BreakerFailureThreshold,
		Timeout:          cfg.Security.BreakerTimeout,
	})
	gateway := ws.NewGateway(hub, ingestor, authn, ws.SettingsFromConfig(cfg))

	// === HTTP ===

	checks := []api.ReadinessCheck{
		api.StorageCheck(db),
		api.BreakerCheck("auth-lookup", authn.BreakerState),
	}
	if eventMirror != nil {
		checks = append(checks, api.BreakerCheck("nats-mirror", eventMirror.BreakerState))
	}
	handler := api.NewHandler(ingestor, hub, api.SettingsFromConfig(cfg), checks...)
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(authn, api.WriteError),
		gateway,
		api.ChiMiddlewareConfigFromConfig(cfg),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddDataService(storage.NewGCService(db, 0))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	if eventMirror != nil {
		tree.AddMessagingService(services.NewMirrorService(eventMirror, 0))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(newUptimeService(time.Now()))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Returns on SIGINT/SIGTERM once every service has stopped, or earlier
	// if the tree itself fails.
	if err := tree.AwaitShutdown(errCh); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}
	logging.Info().Msg("Supervisor tree stopped")

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	return nil
}

// seedData applies the configured seed file and tenant list.
func seedData(ctx context.Context, cfg *config.Config, directory *tenant.Directory, users *auth.BadgerUserStore) error {
	if cfg.Seed.File == "" && len(cfg.Seed.Tenants) == 0 {
		return nil
	}
	file, err := seed.LoadFile(cfg.Seed.File)
	if err != nil {
		return err
	}
	result, err := seed.NewSeeder(directory, users).Apply(ctx, file, cfg.Seed.Tenants)
	if err != nil {
		return err
	}
	if len(result.Generated) > 0 {
		logging.Warn().Int("count", len(result.Generated)).
			Msg("Seed users without a token received generated tokens that are not shown; set tokens in the seed file")
	}
	return nil
}

// newMirror returns nil when the NATS mirror is disabled or not compiled in.
func newMirror(cfg *config.Config) *mirror.Mirror {
	if !cfg.NATS.Enabled {
		return nil
	}
	pub, err := mirror.NewNATSPublisher(cfg.NATS)
	if errors.Is(err, mirror.ErrNATSNotEnabled) {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
		return nil
	}
	if err != nil {
		logging.Error().Err(err).Msg("Failed to start NATS mirror, continuing without it")
		return nil
	}
	return mirror.New(pub, mirror.Options{
		SubjectPrefix:           cfg.NATS.SubjectPrefix,
		QueueSize:               cfg.NATS.QueueSize,
		BreakerFailureThreshold: cfg.Security.BreakerFailureThreshold,
		BreakerTimeout:          cfg.Security.BreakerTimeout,
	})
}

func closeDB(db *badger.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing storage")
	}
}

// uptimeService refreshes the uptime gauge.
type uptimeService struct {
	start time.Time
}

func newUptimeService(start time.Time) *uptimeService {
	return &uptimeService{start: start}
}

func (s *uptimeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.AppUptime.Set(time.Since(s.start).Seconds())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *uptimeService) String() string {
	return "uptime"
}
