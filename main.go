package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"employee-management/internal/config"
	"employee-management/internal/db"
	"employee-management/internal/handlers"
	"employee-management/internal/logger"
	"employee-management/internal/metrics"
	"employee-management/internal/router"
	"employee-management/internal/store"
	"employee-management/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "employee-management",
		Short:         "Employee records API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE:  runServe,
		},
		seedUserCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, the logger and the selected store.
func setup(ctx context.Context) (config.AppConfig, *zap.Logger, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	s, err := openStore(ctx, cfg)
	if err != nil {
		return cfg, log, nil, err
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))
	return cfg, log, s, nil
}

func openStore(ctx context.Context, cfg config.AppConfig) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return pg, nil

	case config.DriverMongo:
		database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store.NewMongo(database), nil

	default:
		return store.NewMemory(), nil
	}
}

func seedAdmin(ctx context.Context, users store.UserStore, email, password string, log *zap.Logger) error {
	created, err := handlers.EnsureUser(ctx, users, email, password)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if created {
		log.Info("user created", zap.String("email", email))
	} else {
		log.Info("user already exists", zap.String("email", email))
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	defer s.Close(context.Background())

	if cfg.SeedAdmin() {
		if err := seedAdmin(ctx, s, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
			return err
		}
	}

	uploads, err := upload.NewDisk(cfg.UploadDir)
	if err != nil {
		return err
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.New(router.Deps{
		Config:  cfg,
		Store:   s,
		Uploads: uploads,
		Log:     log,
		Metrics: metrics.New(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.Bool("require_auth", cfg.RequireAuth))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedUserCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create a dashboard login if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, s, err := setup(ctx)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			defer s.Close(context.Background())

			if email == "" {
				email = cfg.AdminEmail
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			if email == "" || password == "" {
				return errors.New("email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
			}
			if cfg.StoreDriver == config.DriverMemory {
				log.Warn("memory store selected; the user will not outlive this process")
			}
			return seedAdmin(ctx, s, email, password, log)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	return cmd
}
