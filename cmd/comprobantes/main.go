package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	httpadapter "github.com/mlerena/comprobantes/internal/adapter/http"
	"github.com/mlerena/comprobantes/internal/adapter/notifier/email"
	postgresrepo "github.com/mlerena/comprobantes/internal/adapter/repository/postgres"
	"github.com/mlerena/comprobantes/internal/afip"
	"github.com/mlerena/comprobantes/internal/infrastructure/config"
	"github.com/mlerena/comprobantes/internal/infrastructure/logger"
	"github.com/mlerena/comprobantes/internal/infrastructure/metrics"
	"github.com/mlerena/comprobantes/internal/infrastructure/postgres"
	"github.com/mlerena/comprobantes/internal/scheduler"
	"github.com/mlerena/comprobantes/internal/usecase"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "comprobantes",
		Short: "AFIP comprobantes sync",
		Long:  "Fetches the month's received comprobantes from AFIP, stores the new ones and emails a summary report.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one sync run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync on a schedule with health and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
			},
		},
	)

	rootCmd.AddCommand(runCmd, serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("loading configuration: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, log, nil
}

func buildUseCase(cfg *config.Config, repo *postgresrepo.ComprobanteRepository, log zerolog.Logger) *usecase.SyncUseCase {
	fetcher := afip.NewPortalFetcher(afip.Credentials{
		Username: cfg.AFIPUsername,
		Password: cfg.AFIPPassword,
	}, log)

	notifier := email.New(email.Config{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		UseTLS:   cfg.EmailUseTLS,
		From:     cfg.NotificationFrom,
		To:       cfg.NotificationTo,
	}, log)

	return usecase.NewSyncUseCase(fetcher, repo, notifier, usecase.SystemClock{}, log, cfg.ReportCurrency)
}

func runOnce(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	uc := buildUseCase(cfg, postgresrepo.NewComprobanteRepository(pool), log)

	result, err := uc.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("period", result.Period.Label()).
		Int("fetched", result.Fetched).
		Int("new", result.New).
		Msg("sync completed")
	return nil
}

func serve() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.ConnectTimeout, log)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	uc := buildUseCase(cfg, postgresrepo.NewComprobanteRepository(pool), log)

	m := metrics.New()
	sched := scheduler.New(uc, cfg.SyncInterval, m, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: httpadapter.NewRouter(pool),
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	sched.Start(ctx)

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	log.Info().Msg("stopped")
	return nil
}
