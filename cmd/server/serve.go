package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"wardwatch/internal/auth"
	"wardwatch/internal/config"
	"wardwatch/internal/db"
	"wardwatch/internal/handlers"
	"wardwatch/internal/metrics"
	"wardwatch/internal/realtime"
	"wardwatch/internal/router"
	"wardwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and realtime stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context(), configFrom(cmd))
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("no config loaded")
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.Server.GinMode)

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Fanout: services publish to the dispatcher, which feeds the local hub
	// and, when configured, the other instances through Redis.
	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer, logger, m)
	dispatcher := realtime.NewDispatcher(cfg.Realtime.QueueSize, cfg.Realtime.Workers, logger, m)
	dispatcher.AddSink("hub", hub)

	pingers := map[string]handlers.Pinger{}
	if cfg.Redis.URL != "" {
		relay, err := realtime.NewRedisRelay(cfg.Redis.URL, cfg.Redis.Channel, hub, logger)
		if err != nil {
			return err
		}
		defer relay.Close()
		dispatcher.AddSink("redis", relay)
		pingers["redis"] = relay

		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("redis relay stopped", "error", err)
			}
		}()
	}
	dispatcher.Start()
	defer dispatcher.Stop()

	dir := services.NewDirectory(gdb)
	agg := services.NewAggregator(gdb, cfg.Voting.EscalationThreshold, m)
	reconciler := services.NewReconciler(gdb, agg, cfg.Voting.ReconcileInterval, cfg.Voting.ReconcileWindow, logger)
	reconciler.Start()
	defer reconciler.Stop()

	votes := services.NewVoteService(gdb, dir, agg, cfg.Voting, dispatcher, logger, m).WithReconciler(reconciler)
	reads := services.NewReadStateService(gdb, dir, dispatcher, logger)

	engine := router.New(router.Options{
		DB:            gdb,
		Tokens:        auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL),
		SessionName:   cfg.Auth.SessionName,
		SessionSecret: cfg.Auth.SessionSecret,
		Gatherer:      reg,
	}, router.Handlers{
		Vote:    handlers.NewVoteHandler(votes),
		Read:    handlers.NewReadHandler(reads, services.NewUnreadService(gdb, dir)),
		Message: handlers.NewMessageHandler(services.NewThreadService(gdb, dir, dispatcher)),
		Stream:  handlers.NewStreamHandler(hub, dir, cfg.Realtime.Heartbeat, m),
		Health:  handlers.NewHealthHandler(gdb, pingers),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}
	// Open streams end when shutdown starts instead of holding it up.
	srv.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
