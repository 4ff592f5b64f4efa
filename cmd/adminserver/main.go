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

	"github.com/bitechdev/furniture-admin/pkg/adminapi"
	"github.com/bitechdev/furniture-admin/pkg/config"
	"github.com/bitechdev/furniture-admin/pkg/database"
	"github.com/bitechdev/furniture-admin/pkg/forms"
	"github.com/bitechdev/furniture-admin/pkg/logger"
	"github.com/bitechdev/furniture-admin/pkg/lookups"
	"github.com/bitechdev/furniture-admin/pkg/records"
	"github.com/bitechdev/furniture-admin/pkg/registry"
	"github.com/bitechdev/furniture-admin/pkg/reports"
)

const (
	pingInterval    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	fmt.Println("furniture admin server starting")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Dev, cfg.Log.Level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseOptions())
	if err != nil {
		logger.Error("Failed to initialize database: %+v", err)
		os.Exit(1)
	}
	defer pool.Close()

	handler, err := initHandler(pool)
	if err != nil {
		logger.Error("Failed to initialize services: %+v", err)
		os.Exit(1)
	}

	router := adminapi.NewRouter(handler, adminapi.RouterOptions{
		Prefix:         cfg.Server.Prefix,
		Metrics:        adminapi.NewMetrics("furniture_admin"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	go pool.Watch(ctx, pingInterval, func(err error) {
		logger.Error("Lost database connection: %v", err)
		logger.Sync()
		os.Exit(1)
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Info("Starting server on %s (prefix %q)", srv.Addr, cfg.Server.Prefix)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed to start: %v", err)
		os.Exit(1)
	}
}

func initHandler(pool *database.Pool) (*adminapi.Handler, error) {
	reg, err := registry.New(registry.FurnitureTables()...)
	if err != nil {
		return nil, err
	}

	formService, err := forms.NewService(reg, pool.Bun())
	if err != nil {
		return nil, err
	}

	gormDB, err := pool.Gorm()
	if err != nil {
		return nil, err
	}

	lookupService, err := lookups.NewService(gormDB, reg, lookups.FurnitureEntities()...)
	if err != nil {
		return nil, err
	}

	return adminapi.NewHandler(
		records.NewService(reg, pool),
		formService,
		reports.NewService(gormDB, reports.FurnitureReports()...),
		lookupService,
	), nil
}
