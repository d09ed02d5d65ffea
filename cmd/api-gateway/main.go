package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/beacon-attendance-api/api/swagger"
	"github.com/noah-isme/beacon-attendance-api/internal/handler"
	"github.com/noah-isme/beacon-attendance-api/internal/middleware"
	"github.com/noah-isme/beacon-attendance-api/internal/proximity"
	"github.com/noah-isme/beacon-attendance-api/internal/repository"
	"github.com/noah-isme/beacon-attendance-api/internal/service"
	"github.com/noah-isme/beacon-attendance-api/pkg/cache"
	"github.com/noah-isme/beacon-attendance-api/pkg/config"
	"github.com/noah-isme/beacon-attendance-api/pkg/database"
	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
	"github.com/noah-isme/beacon-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/beacon-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/beacon-attendance-api/pkg/middleware/requestid"
)

// @title Beacon Attendance API
// @version 1.0.0
// @description BLE proximity attendance determination pipeline
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}

	scanLogs := repository.NewScanLogRepository(db)
	sessions := repository.NewSessionRepository(db)
	tracks := repository.NewTrackRepository(db)
	records := repository.NewAttendanceRecordRepository(db)
	roster := repository.NewDeviceRepository(db)
	liveness := repository.NewLivenessRepository(redisClient, logr)
	defer liveness.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	worker := service.NewPipelineWorker(logr)
	scanQueue := jobs.NewQueue("scan-processing", worker.HandleScan, jobs.QueueConfig{
		Workers:    cfg.ScanQueue.Workers,
		BufferSize: cfg.ScanQueue.BufferSize,
		MaxRetries: cfg.ScanQueue.MaxRetries,
		RetryDelay: cfg.ScanQueue.RetryDelay,
		Logger:     logr,
		Metrics:    metricsSvc,
	})
	calcQueue := jobs.NewQueue("attendance-calculation", worker.HandleCalculation, jobs.QueueConfig{
		Workers:    cfg.CalcQueue.Workers,
		BufferSize: cfg.CalcQueue.BufferSize,
		MaxRetries: cfg.CalcQueue.MaxRetries,
		RetryDelay: cfg.CalcQueue.RetryDelay,
		Logger:     logr,
		Metrics:    metricsSvc,
	})

	params := proximity.Params{
		RefRssi:          cfg.Proximity.RefRssi,
		PathLossExponent: cfg.Proximity.PathLossExponent,
		RssiThreshold:    cfg.Proximity.RssiThreshold,
	}
	cutoffs := service.StatusCutoffs{
		PresentPercent: cfg.Proximity.PresentPercent,
		LatePercent:    cfg.Proximity.LatePercent,
	}

	scanSvc := service.NewScanService(scanLogs, liveness, scanQueue, metricsSvc, validate, logr)
	consensusSvc := service.NewConsensusService(sessions, scanLogs, tracks, roster, liveness, metricsSvc, params, logr)
	roundSvc := service.NewRoundService(sessions, tracks, roster, calcQueue, liveness, cfg.Results.CacheTTL, validate, logr)
	finalizeSvc := service.NewFinalizeService(sessions, tracks, roster, records, calcQueue, metricsSvc, cutoffs, logr)
	exportSvc := service.NewExportService(finalizeSvc, logr)
	tokenSvc := service.NewTokenService(cfg.JWT)
	worker.Bind(consensusSvc, finalizeSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	scanQueue.Start(ctx)
	calcQueue.Start(ctx)
	defer calcQueue.Stop()
	defer scanQueue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	scanHandler := handler.NewScanHandler(scanSvc)
	roundHandler := handler.NewRoundHandler(roundSvc)
	attendanceHandler := handler.NewAttendanceHandler(finalizeSvc, exportSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/scans", scanHandler.Submit)
	api.GET("/rounds/:id/result", roundHandler.Result)
	api.GET("/sessions/:id/attendance", attendanceHandler.Session)
	api.GET("/sessions/:id/attendance/students/:studentId", attendanceHandler.Student)

	staff := api.Group("")
	staff.Use(middleware.JWT(tokenSvc))
	staff.POST("/rounds/:id/calculate", roundHandler.Calculate)
	staff.GET("/sessions/:id/attendance/export", attendanceHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown", "error", err)
	}
}
