package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/notifier"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/redislock"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/repository/postgres"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/rest"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/scheduler"
	auctionws "github.com/cristianortiz/biddingengine/internal/auction/infra/websocket"
	"github.com/cristianortiz/biddingengine/internal/shared/config"
	"github.com/cristianortiz/biddingengine/internal/shared/db"
	"github.com/cristianortiz/biddingengine/internal/shared/db/migrations"
	"github.com/cristianortiz/biddingengine/internal/shared/httpserver"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/cristianortiz/biddingengine/internal/shared/redisclient"
	"github.com/cristianortiz/biddingengine/internal/shared/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting bidding engine...", zap.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsPath, log); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()
	store := postgres.NewStore(pool, cfg.LockTimeout)

	hub := websocket.NewHub(log)
	sinks := notifier.FanOut{
		notifier.NewLogNotifier(log),
		auctionws.NewHubNotifier(hub),
	}

	var guard scheduler.Guard
	if cfg.RedisEnabled {
		rc, err := redisclient.New(ctx, cfg.RedisAddr())
		if err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		defer rc.Close()
		sinks = append(sinks, notifier.NewRedisNotifier(rc))
		guard = redislock.New(rc, instanceID(), cfg.SweepLockTTL)
		log.Info("Redis enabled", zap.String("addr", cfg.RedisAddr()))
	}

	// workers outlive ctx so queued events still flush during shutdown
	workersCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	dispatcher := notifier.NewDispatcher(sinks, log, cfg.NotifierWorkers, cfg.NotifierQueueSize, notifier.DefaultNotifyTimeout)
	dispatcher.Start(workersCtx)

	service := application.NewAuctionService(store, dispatcher, domain.SystemClock{}, log, application.Options{
		EndingSoonWindow: cfg.EndingSoonWindow,
		SweepBatchSize:   cfg.SweepBatchSize,
	})

	sweeps := scheduler.New(log, guard, scheduler.SweepJobs(service, cfg.SweepEndedInterval, cfg.SweepEndingSoonInterval)...)
	sweeps.Start(ctx)

	go hub.Run(ctx)
	wsHandler := auctionws.NewAuctionWSHandler(ctx, service, hub, log)
	go wsHandler.ListenForMessages(ctx)

	server := httpserver.NewServer(log, rest.ErrorHandler(log))
	rest.NewAuctionHandler(service, log).RegisterRoutes(server.App())
	wsHandler.RegisterRoutes(server.App())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(fmt.Sprintf(":%d", cfg.HTTPPort))
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	sweeps.Wait()
	service.Wait()
	dispatcher.Stop()
	log.Info("Bidding engine stopped")
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "engine"
	}
	return host + "-" + uuid.NewString()[:8]
}
