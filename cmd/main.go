// @title Tournament Finder API
// @version 1.0
// @description Discovery and participant lifecycle of competitive event listings.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Dosada05/tournament-finder/config"
	"github.com/Dosada05/tournament-finder/db"
	"github.com/Dosada05/tournament-finder/geolocation"
	"github.com/Dosada05/tournament-finder/handlers"
	"github.com/Dosada05/tournament-finder/metrics"
	"github.com/Dosada05/tournament-finder/middleware"
	"github.com/Dosada05/tournament-finder/repositories"
	api "github.com/Dosada05/tournament-finder/routes"
	"github.com/Dosada05/tournament-finder/services"
	"github.com/Dosada05/tournament-finder/storage"
	"github.com/Dosada05/tournament-finder/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tournament-finder",
		Short:         "Tournament discovery and registration API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), serve)
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), serve)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the embedded database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), migrate)
			},
		},
	)
	return root
}

// run loads configuration, builds the logger and hands both to cmd. Errors
// are logged here so every command reports them the same way.
func run(ctx context.Context, cmd func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", slog.Any("error", err))
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("timezone", cfg.Timezone),
	)

	if err := cmd(ctx, cfg, logger); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		return err
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StoreDriverPostgres)
	}
	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultPool, 5*time.Second, logger)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	return db.Migrate(ctx, dbConn, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		store  repositories.Store
		pinger handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dbConn, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultPool, 5*time.Second, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer closeDB(dbConn, logger)
		if err := db.Migrate(ctx, dbConn, logger); err != nil {
			return err
		}
		store = repositories.NewPostgresStore(dbConn)
		pinger = dbConn
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		store = repositories.NewMemoryStore()
	}

	var (
		uploader storage.FileUploader
		resolver services.ImageResolver
		media    http.Handler
	)
	if cfg.R2Enabled() {
		r2, err := storage.NewCloudflareR2Storage(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 storage: %w", err)
		}
		uploader, resolver = r2, r2
		logger.Info("Cloudflare R2 storage initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		mem, err := storage.NewMemoryStorage(fmt.Sprintf("http://localhost:%d/media", cfg.ServerPort))
		if err != nil {
			return err
		}
		uploader, resolver, media = mem, mem, mem
		logger.Warn("R2 not configured; uploads are kept in memory")
	}

	recorder := metrics.NewPrometheusRecorder("tournament_finder")

	shutdownTracing, err := telemetry.Install(ctx, telemetry.Config{
		ServiceName:  "tournament-finder",
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRatio:  cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()
	if cfg.OTLPEndpoint == "" {
		logger.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set; traces are not exported")
	}

	var locator services.Locator
	if cfg.IPAPIURL != "" {
		client, err := geolocation.NewClient(geolocation.Config{
			BaseURL:           cfg.IPAPIURL,
			APIKey:            cfg.IPAPIKey,
			RequestsPerSecond: cfg.IPAPIRPS,
		}, geolocation.NewLRUCache(cfg.GeoCacheSize, cfg.GeoCacheTTL), recorder, logger)
		if err != nil {
			return err
		}
		locator = client
	}

	tournamentService := services.NewTournamentService(
		store,
		resolver,
		locator,
		services.TournamentServiceConfig{
			Location:        cfg.Location,
			DefaultRadiusKm: cfg.DefaultRadiusKm,
			AutoApprove:     cfg.AutoApprove,
		},
		logger,
		recorder,
		otel.Tracer("tournament-finder"),
	)
	userService := services.NewUserService(store.Users(), logger)
	locationService := services.NewLocationService(locator)
	fileService := services.NewFileService(uploader, logger)

	h := api.Handlers{
		Tournament:  handlers.NewTournamentHandler(tournamentService),
		Participant: handlers.NewParticipantHandler(tournamentService),
		Location:    handlers.NewLocationHandler(locationService),
		File:        handlers.NewFileHandler(fileService),
		Health:      handlers.NewHealthHandler(pinger),
	}
	if cfg.WebhookSigningSecret != "" {
		webhook, err := handlers.NewWebhookHandler(userService, cfg.WebhookSigningSecret, logger)
		if err != nil {
			return fmt.Errorf("invalid WEBHOOK_SIGNING_SECRET: %w", err)
		}
		h.Webhook = webhook
	} else {
		logger.Warn("WEBHOOK_SIGNING_SECRET not set; user sync webhook disabled")
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecretKey, handlers.WriteError),
		Logger:         logger,
		Metrics:        recorder,
		MetricsHandler: recorder.Handler(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Media:          media,
	}, h)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}

func closeDB(dbConn *sql.DB, logger *slog.Logger) {
	if err := dbConn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}
