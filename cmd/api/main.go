package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callhistory/internal/audit"
	"callhistory/internal/auth"
	"callhistory/internal/calllog"
	"callhistory/internal/config"
	"callhistory/internal/contacts"
	"callhistory/internal/httpapi"
	"callhistory/internal/permission"
	"callhistory/internal/phone"
	"callhistory/internal/slot"
	"callhistory/pkg/logger"
	"callhistory/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, dialect, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Error("store init failed", "driver", cfg.Store.Driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	opts := calllog.Options{
		Region:      cfg.CallLog.Region,
		ExecTimeout: cfg.CallLog.ExecTimeout,
		Logger:      log,
	}

	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		s, err := slot.NewRedisSlot(rdb, "", cfg.Redis.SlotTTL)
		if err != nil {
			log.Error("slot init failed", "err", err)
			os.Exit(1)
		}
		opts.Slot = s
	}

	auditSvc := audit.NewService(audit.NewMemoryRepo(cfg.CallLog.AuditCapacity), cfg.App.DeviceID)
	opts.Recorder = audit.Recorder{Audit: auditSvc}

	broker := permission.NewBroker()
	pipeline := &calllog.Pipeline{
		Directory:   contacts.NewSQLDirectory(db, dialect),
		Normalizer:  phone.Default(),
		Concurrency: cfg.CallLog.EnrichConcurrency,
	}
	controller := calllog.NewController(broker, calllog.NewSQLStore(db, dialect), pipeline, opts)
	broker.OnResult(controller.OnPermissionResult)

	h := httpapi.Handlers{
		Auth:        authManager,
		CallLog:     controller,
		Permissions: broker,
		Audit:       auditSvc,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager), cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Invoke waits on the permission prompt, so writes are not bounded here.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "store", cfg.Store.Driver, "region", cfg.CallLog.Region)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
