package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	materialapp "github.com/chemstock/backend/internal/application/material"
	procurementapp "github.com/chemstock/backend/internal/application/procurement"
	stockapp "github.com/chemstock/backend/internal/application/stock"
	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/infrastructure/cache"
	"github.com/chemstock/backend/internal/infrastructure/config"
	"github.com/chemstock/backend/internal/infrastructure/event"
	"github.com/chemstock/backend/internal/infrastructure/logger"
	"github.com/chemstock/backend/internal/infrastructure/monox"
	"github.com/chemstock/backend/internal/infrastructure/persistence"
	"github.com/chemstock/backend/internal/interfaces/http/handler"
	"github.com/chemstock/backend/internal/interfaces/http/middleware"
	"github.com/chemstock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting chemstock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	materialRepo := persistence.NewGormMaterialRepository(db.DB)
	lotRepo := persistence.NewGormMaterialLotRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	locationRepo := persistence.NewGormStorageLocationRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	receivingRepo := persistence.NewGormReceivingRepository(db.DB)

	stockTxScope := persistence.NewGormStockTransactionScope(db.DB)
	procurementTxScope := persistence.NewGormProcurementTransactionScope(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	busCtx, busCancel := context.WithCancel(context.Background())
	defer busCancel()
	if err := eventBus.Start(busCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = eventBus.Stop(stopCtx)
	}()

	// Application services
	conversionService := material.NewConversionService()
	materialService := materialapp.NewService(materialRepo, conversionService)
	stockService := stockapp.NewService(lotRepo, movementRepo, locationRepo, materialRepo, stockTxScope, conversionService)
	stockService.SetEventPublisher(eventBus)
	supplierService := procurementapp.NewSupplierService(supplierRepo)
	orderService := procurementapp.NewPurchaseOrderService(orderRepo, supplierRepo, receivingRepo, materialRepo, procurementTxScope, conversionService)
	orderService.SetEventPublisher(eventBus)
	receivingService := procurementapp.NewReceivingService(orderRepo, receivingRepo, materialRepo, procurementTxScope, conversionService)
	receivingService.SetEventPublisher(eventBus)

	// Outbound Monox sync, driven by movement events
	if cfg.Monox.Enabled {
		exporter, err := monox.NewClient(&cfg.Monox, log)
		if err != nil {
			log.Fatal("Failed to create monox client", zap.Error(err))
		}
		syncHandler := stockapp.NewMovementSyncHandler(materialRepo, exporter, log)
		eventBus.Subscribe(syncHandler)
		log.Info("Monox movement sync enabled", zap.String("base_url", cfg.Monox.BaseURL))
	}

	// Summary cache: redis when reachable, in-memory otherwise
	redisCache, err := cache.NewRedisSummaryCache(cache.RedisSummaryCacheConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory summary cache", zap.Error(err))
		stockService.SetSummaryCache(cache.NewInMemorySummaryCache(0))
	} else {
		defer func() {
			_ = redisCache.Close()
		}()
		stockService.SetSummaryCache(redisCache)
	}

	// Handlers
	materialHandler := handler.NewMaterialHandler(materialService)
	stockHandler := handler.NewStockHandler(stockService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	orderHandler := handler.NewPurchaseOrderHandler(orderService)
	receivingHandler := handler.NewReceivingHandler(receivingService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithOrigins(cfg.HTTP.CORSAllowOrigins))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		materialHandler,
		stockHandler,
		supplierHandler,
		orderHandler,
		receivingHandler,
		systemHandler,
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
