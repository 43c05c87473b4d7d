// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetpulse/hub/api"
	"github.com/fleetpulse/hub/internal/alerts"
	"github.com/fleetpulse/hub/internal/auth"
	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/events"
	"github.com/fleetpulse/hub/internal/hubservice"
	"github.com/fleetpulse/hub/internal/monitoring"
	"github.com/fleetpulse/hub/internal/notify"
	"github.com/fleetpulse/hub/internal/repository/postgres"
	"github.com/fleetpulse/hub/internal/repository/timescale"
	"github.com/fleetpulse/hub/internal/rules"
	"github.com/fleetpulse/hub/internal/state"
	"github.com/fleetpulse/hub/internal/ws"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Server wires the telemetry pipeline: repositories, rule engine, state
// store, event bus, websocket hub and the REST surface, all behind one
// HTTP listener.
type Server struct {
	router     *mux.Router
	config     *config.Config
	srv        *http.Server
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	bus        *events.Bus
	hub        *ws.Hub
	redis      *redis.Client
	cancelJobs context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	router := mux.NewRouter()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		router: router,
		config: cfg,
		srv:    srv,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
	})

	access, err := s.initializePipeline()
	if err != nil {
		return err
	}

	s.setupCleanupHandlers()
	s.setupRoutes(access)

	// Request logging and panic recovery around the full router
	s.srv.Handler = handlers.CombinedLoggingHandler(os.Stdout,
		handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.router))

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	// Stop background jobs, drain the bus, then drop the live connections.
	if s.cancelJobs != nil {
		s.cancelJobs()
	}
	s.bus.Close()
	s.hubservice.State.Close()
	s.hub.CloseAll()
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			nuts.L.Warnf("[Server] Failed to close redis client: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// initializePipeline builds every pipeline component and returns the auth
// collaborator shared by the gateway and the REST surface.
func (s *Server) initializePipeline() (*auth.Access, error) {
	tsdb := initTimescaleDB(s.config.Database.TimescaleDB)
	appDB := initAppDB(s.config.Database.AppDB)

	vehicles := postgres.NewVehicleRepository(appDB)
	sensors := postgres.NewSensorRepository(appDB)
	ruleRepo := postgres.NewRuleRepository(appDB)
	healthState := postgres.NewHealthStateRepository(appDB)
	history, err := timescale.NewReadingHistoryRepository(tsdb)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reading history: %w", err)
	}

	// Redis is optional: without it the health mirror falls back to the
	// relational snapshot alone, notifications go to the log and alert
	// dedup is process-local.
	mirrors := []state.Mirror{state.NewRepoMirror(healthState)}
	var sender notify.Sender = notify.LogSender{}
	var dedup alerts.Deduper = alerts.NewMemoryDeduper(5 * time.Minute)
	if s.config.Redis.Host != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", s.config.Redis.Host, s.config.Redis.Port),
			Password: s.config.Redis.Password,
			DB:       s.config.Redis.DB,
		})
		mirrors = append(mirrors, state.NewRedisMirror(s.redis, 24*time.Hour))
		sender = notify.NewRedisSender(s.redis, "fleetpulse:notifications")
		dedup = alerts.NewRedisDeduper(s.redis, 5*time.Minute)
	} else {
		nuts.L.Warnf("[Server] No redis endpoint configured, using log notifications and in-process alert dedup")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelJobs = cancel

	ruleSet := rules.NewRuleSet()
	if err := ruleSet.Load(ctx, ruleRepo); err != nil {
		return nil, fmt.Errorf("failed to load threshold rules: %w", err)
	}

	store := state.NewStore(mirrors...)
	if persisted, err := healthState.ListAll(ctx); err != nil {
		nuts.L.Warnf("[Server] Failed to warm health state from snapshot: %v", err)
	} else {
		store.Restore(persisted)
		nuts.L.Infof("[Server] Restored %d health states from snapshot", len(persisted))
	}

	s.bus = events.NewBus()
	s.hub = ws.NewHub()

	s.hubservice = hubservice.New(vehicles, sensors, ruleRepo, healthState, history, ruleSet, store, s.bus)
	if err := s.hubservice.Validate(); err != nil {
		return nil, err
	}

	access := auth.NewAccess(s.config.Auth, vehicles)

	dispatcher := alerts.NewDispatcher(s.hub, sender, access, dedup)
	dispatcher.Register(s.bus)

	go s.hubservice.Cleanup.Run(ctx, s.config.Retention)

	return access, nil
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes(access *auth.Access) {
	gateway := ws.NewGateway(s.hub, s.hubservice, access, s.config.WebSocket)
	s.router.HandleFunc("/ws/telemetry/{vehicle_id}", gateway.HandleTelemetry)

	apiRouter := api.NewRouter(s.hubservice, access, s.config.Simulator, s.handleHealth(), monitoring.HandleMetrics)
	s.router.PathPrefix("/api/v1").Handler(apiRouter)
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) setupCleanupHandlers() {
	s.hubservice.Cleanup.OnCleanup("readings.purged", func(cutoff string) {
		nuts.L.Infof("[Cleanup] Reading history purged up to %s", cutoff)
		s.monitoring.RecordEvent("readings_purged", map[string]string{
			"cutoff": cutoff,
		})
	})

	s.hubservice.Cleanup.OnCleanup("sensors.purged", func(count string) {
		nuts.L.Infof("[Cleanup] Purged %s soft-deleted sensors", count)
		s.monitoring.RecordEvent("sensors_purged", map[string]string{
			"count": count,
		})
	})
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	db := wrappedDB.GetDB()
	if err := db.Ping(); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	// Verify TimescaleDB extension
	var hasTimescaleDB bool
	err = db.Get(&hasTimescaleDB, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')")
	if err != nil || !hasTimescaleDB {
		nuts.L.Fatalf("[Server] TimescaleDB extension not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return wrappedDB
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	db := wrappedDB.GetDB()
	if err := db.Ping(); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return wrappedDB
}
