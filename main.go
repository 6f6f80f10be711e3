package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodcafeshop/food-cafe/broker"
	"github.com/foodcafeshop/food-cafe/config"
	"github.com/foodcafeshop/food-cafe/database"
	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/foodcafeshop/food-cafe/router"
	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger()
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	utils.InitLoggerWith(cfg.LogLevel, cfg.LogFmt)
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.TTL)
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "database/migrations"
	}
	if err := database.Migrate(db, migrationsDir); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}

	hub := realtime.NewHub()

	// broker opsional: tanpa RABBITMQ_URL event hanya dikirim ke hub
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		p, err := broker.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer p.Close()
		publisher = p
		utils.InfoLogger.Infof("Publishing changes to exchange %s", cfg.RabbitMQ.Exchange)
	}

	settings := services.NewSettingsProvider(db, cfg.Defaults)
	deps := router.NewDeps(db, hub, settings)
	deps.CORSOrigins = cfg.CORSOrigins
	deps.Release = cfg.GinMode == gin.ReleaseMode
	deps.JoinRatePerMinute = cfg.JoinRatePerMinute

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	monitor := services.NewChangeMonitor(db, hub, publisher, cfg.ChangeMonitorInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		utils.InfoLogger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.ErrorLogger.Fatalf("Server stopped: %v", err)
	}
	utils.InfoLogger.Info("Server exited")
}
