package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"blinkchat/internal/attachments"
	"blinkchat/internal/config"
	"blinkchat/internal/db"
	"blinkchat/internal/handlers"
	"blinkchat/internal/logger"
	"blinkchat/internal/observability"
	"blinkchat/internal/pipeline"
	"blinkchat/internal/rabbitmq"
	"blinkchat/internal/repositories"
	"blinkchat/internal/sweeper"
	"blinkchat/internal/telemetry"
	"blinkchat/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logg.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logg.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	uploadStore, err := attachments.NewStore(cfg.UploadDir)
	if err != nil {
		logg.Fatal("failed to open attachment store", zap.Error(err))
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logg)
	defer publisher.Close()
	emitter := telemetry.NewAuditEmitter(publisher, "blinkchat.ops", "blinkchat", cfg.Environment)

	messageRepo := repositories.NewMessageRepo(database)
	hub := ws.NewHub()
	pipe := pipeline.New(messageRepo, uploadStore, hub, cfg.RetentionWindow, logg)
	wsHandler := ws.NewHandler(pipe, emitter, logg)
	uploadsHandler := handlers.NewUploadsHandler(uploadStore, logg)

	sweep := sweeper.New(messageRepo, uploadStore, cfg.RetentionWindow, cfg.SweepInterval, emitter, logg)
	go sweep.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("blinkchat"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/ws", wsHandler.Handle)
	router.GET("/uploads/:filename", uploadsHandler.Get)
	router.GET("/healthz", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Warn("server shutdown error", zap.Error(err))
		}
	}()

	logg.Info("blinkchat listening", zap.String("port", cfg.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal("server error", zap.Error(err))
	}
}
