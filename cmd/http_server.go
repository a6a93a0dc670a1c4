package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/application"
	applicationPostgres "github.com/frahmantamala/access-approval/internal/application/postgres"
	"github.com/frahmantamala/access-approval/internal/auth"
	authPostgres "github.com/frahmantamala/access-approval/internal/auth/postgres"
	"github.com/frahmantamala/access-approval/internal/core/events"
	"github.com/frahmantamala/access-approval/internal/directory"
	directoryPostgres "github.com/frahmantamala/access-approval/internal/directory/postgres"
	"github.com/frahmantamala/access-approval/internal/grant"
	grantPostgres "github.com/frahmantamala/access-approval/internal/grant/postgres"
	"github.com/frahmantamala/access-approval/internal/metrics"
	"github.com/frahmantamala/access-approval/internal/transport"
	"github.com/frahmantamala/access-approval/internal/transport/rest"
	"github.com/frahmantamala/access-approval/internal/transport/swagger"
	"github.com/frahmantamala/access-approval/internal/user"
	"github.com/frahmantamala/access-approval/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	Reader   *sqlx.DB
	Router   *chi.Mux
	Registry *prometheus.Registry
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(cfg)
	lg := logger.LoggerWrapper()

	db, reader, err := initDB(cfg.Database, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			lg.Error("database close error", "error", err)
		}
	}()
	if cfg.Database.Driver == internal.DriverSQLite {
		if err := autoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	deps, err := NewDependencies(ctx, cfg, db, reader, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := deps.EventBus.Wait(shutdownCtx); err != nil {
			lg.Warn("event handlers still running at shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	lg.Info("server stopped")
	return nil
}

// NewDependencies wires repositories, services and handlers over an open database and
// registers every route on a fresh router.
func NewDependencies(ctx context.Context, cfg *internal.Config, db *gorm.DB, reader *sqlx.DB, lg *slog.Logger) (*Dependencies, error) {
	if _, err := swagger.Load(ctx); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	bus := events.NewEventBus(lg)
	events.SubscribeAuditLog(bus, lg)

	directoryRepo := directoryPostgres.NewDirectoryRepository(db)
	catalog, err := directory.LoadRoleCatalog(ctx, directoryRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to load role catalog: %w", err)
	}

	base := transport.NewBaseHandler(lg)

	directoryService := directory.NewDirectory(directoryRepo, directoryPostgres.NewReferenceReader(reader), lg)
	grantService := grant.NewService(grantPostgres.NewGrantRepository(db), lg)
	applicationService := application.NewService(
		applicationPostgres.NewApplicationRepository(db),
		catalog,
		grant.NewIssuer(),
		bus,
		m,
		lg,
	)
	authService := auth.NewService(authPostgres.NewRepository(db), auth.NewJWTTokenGenerator(cfg.Security), lg)

	routes := rest.Routes{
		Health:         rest.NewHealthHandler(reader.DB, cfg.Database.Driver),
		Auth:           auth.NewHandler(base, authService),
		Roles:          auth.NewRoleAuthorization(base, grantService),
		AdminRoleID:    catalog.Admin.ID,
		Application:    application.NewHandler(base, applicationService),
		Directory:      directory.NewHandler(base, directoryService),
		Grant:          grant.NewHandler(base, grantService),
		User:           user.NewHandler(base, user.NewService(directoryService, grantService)),
		Observer:       m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Observability.Metrics.Enabled {
		routes.Metrics = metrics.Handler(registry)
		routes.MetricsPath = cfg.Observability.Metrics.Path
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, routes, lg)

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Reader:   reader,
		Router:   router,
		Registry: registry,
		EventBus: bus,
		Logger:   lg,
	}, nil
}

func initLogger(cfg *internal.Config) {
	logger.InitWithOptions(cfg.Env, logger.Options{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: os.Stdout,
	})
}
