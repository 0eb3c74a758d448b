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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fleet_dispatch/internal/config"
	"fleet_dispatch/internal/logger"
	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/routes"
	"fleet_dispatch/internal/service"
	"fleet_dispatch/internal/socket"
	"fleet_dispatch/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fleet_dispatch",
		Short:        "Fleet dispatch API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
		newCreateAdminCmd(),
	)
	return root
}

func newCreateAdminCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Bootstrap an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Setup(cfg)

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := service.New(store, service.Options{}, logrus.StandardLogger())
			user, err := svc.Auth().CreateAdmin(cmd.Context(), email, name, password)
			if err != nil {
				return err
			}
			logrus.WithField("user_id", user.ID).Info("Admin account created")
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin full name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func openStore(cfg config.Config) (*postgres.Store, error) {
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := config.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return postgres.New(db), nil
}

func migrate() error {
	cfg := config.Load()
	logger.Setup(cfg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logrus.Info("Database schema is up to date")
	return nil
}

func serve(parent context.Context) error {
	cfg := config.Load()
	accessLog := logger.Setup(cfg)
	log := logrus.WithField("service", cfg.ServiceName)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		return err
	}
	defer store.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := socket.NewHub(log)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	jwtAuth := middleware.NewJWT(cfg.JWTSecret, cfg.JWTExpiry, cfg.ServiceName)
	svc := service.New(store, service.Options{
		Tokens:               jwtAuth,
		Broadcaster:          hub,
		MaintenanceDueWindow: cfg.MaintenanceDueWindow,
		TrackLimit:           cfg.TrackLimit,
	}, log)

	r := routes.SetupRouter(routes.Deps{
		Services:    svc,
		JWT:         jwtAuth,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   accessLog,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("Server failed")
			stop()
			<-hubDone
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Graceful shutdown timed out")
	}
	<-hubDone
	return nil
}
