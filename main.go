package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/phillip/civic-go/config"
	"github.com/phillip/civic-go/controllers"
	"github.com/phillip/civic-go/middleware"
	"github.com/phillip/civic-go/routes"
	"github.com/phillip/civic-go/services"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/store"
	"github.com/phillip/civic-go/store/memstore"
	"github.com/phillip/civic-go/store/mongostore"
	"github.com/phillip/civic-go/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	var st store.Store
	var closeStore func(context.Context) error
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := config.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("connect mongo: %v", err)
		}
		ms := mongostore.New(client, cfg.DBName)
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Fatalf("ensure indexes: %v", err)
		}
		st, closeStore = ms, client.Disconnect
		logger.Info("connected to mongo", "db", cfg.DBName)
	default:
		st = memstore.New()
		logger.Warn("using in-memory store, data is lost on restart")
	}

	// --- Storage providers ---
	uploads := &storage.Router{Logger: logger}
	if cfg.Cloudinary.Enabled() {
		cld, err := storage.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
		uploads.Image = cld
	}
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.PublicBaseURL)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		uploads.Blob = s3
	}
	if uploads.Image == nil && uploads.Blob == nil {
		logger.Warn("no storage provider configured, uploads will fail")
	}

	// --- Evidence validation ---
	var queue *validation.Queue
	if cfg.Validation.Enabled && cfg.Gemini.Enabled() {
		gemini, err := validation.NewGemini(ctx, validation.GeminiOptions{
			Endpoint:           cfg.Gemini.Endpoint,
			Model:              cfg.Gemini.Model,
			APIKey:             cfg.Gemini.APIKey,
			ServiceAccountFile: cfg.Gemini.ServiceAccountFile,
		})
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		queue = validation.NewQueue(gemini, st.Evidence(), logger, validation.QueueOptions{
			Workers: cfg.Validation.Workers,
			Size:    cfg.Validation.QueueSize,
			Timeout: cfg.Validation.Timeout,
		})
		queue.Start(context.WithoutCancel(ctx))
	}

	var enqueuer services.Enqueuer
	if queue != nil {
		enqueuer = queue
	}

	env := &controllers.Env{
		Config:   cfg,
		Services: services.New(st, uploads, enqueuer, logger),
		Store:    st,
		Logger:   logger,
	}

	// --- HTTP ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"ETag", "Last-Modified"},
		AllowCredentials: !allowsAll(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))
	routes.SetupRoutes(r, env)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if queue != nil {
		if err := queue.Close(shutdownCtx); err != nil {
			logger.Error("validation queue shutdown", "error", err)
		}
	}
	if closeStore != nil {
		if err := closeStore(shutdownCtx); err != nil {
			logger.Error("store shutdown", "error", err)
		}
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
