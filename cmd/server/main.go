package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/config"
	"github.com/mamadbah2/farmhub/internal/ratelimit"
	"github.com/mamadbah2/farmhub/internal/repository/mongodb"
	"github.com/mamadbah2/farmhub/internal/repository/sheets"
	"github.com/mamadbah2/farmhub/internal/scheduler"
	"github.com/mamadbah2/farmhub/internal/server/handlers"
	"github.com/mamadbah2/farmhub/internal/server/router"
	authsvc "github.com/mamadbah2/farmhub/internal/service/auth"
	farmersvc "github.com/mamadbah2/farmhub/internal/service/farmers"
	notifysvc "github.com/mamadbah2/farmhub/internal/service/notify"
	reportingsvc "github.com/mamadbah2/farmhub/internal/service/reporting"
	settlementsvc "github.com/mamadbah2/farmhub/internal/service/settlement"
	storagesvc "github.com/mamadbah2/farmhub/internal/service/storage"
	"github.com/mamadbah2/farmhub/internal/service/storagefee"
	whatsappclient "github.com/mamadbah2/farmhub/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmhub/pkg/logger"
	"github.com/mamadbah2/farmhub/pkg/pdf"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureIndexes(startupCtx); err != nil {
		baseLogger.Fatal("failed to create mongodb indexes", zap.Error(err))
	}

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, notifications disabled")
	}
	notifier := notifysvc.NewService(whatsClient, baseLogger.Named("svc.notify"))

	farmerSvc := farmersvc.NewService(mongoRepo, baseLogger.Named("svc.farmers"))

	settlementOpts := []settlementsvc.ServiceOption{settlementsvc.WithNotifier(notifier)}
	if cfg.Sheets.Enabled() {
		appender, err := sheets.NewSheetsAppender(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets ledger", zap.Error(err))
		}
		ledger := sheets.NewLedger(appender, cfg.Sheets.LedgerRange, baseLogger.Named("repo.ledger"))
		settlementOpts = append(settlementOpts, settlementsvc.WithLedger(ledger))
		baseLogger.Info("settlement ledger export enabled")
	}
	settlementSvc := settlementsvc.NewService(mongoRepo, farmerSvc, baseLogger.Named("svc.settlement"), settlementOpts...)

	feeCalc := storagefee.NewCalculator()
	storageSvc := storagesvc.NewService(mongoRepo, farmerSvc, feeCalc, pdf.NewRenderer(""), baseLogger.Named("svc.storage"))

	tokens := authsvc.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := authsvc.NewService(mongoRepo, farmerSvc, tokens, baseLogger.Named("svc.auth"))

	var loginLimit *router.LoginLimit
	if cfg.RateLimit.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		loginLimit = &router.LoginLimit{
			Limiter: ratelimit.NewTokenBucket(rdb, "farmhub:ratelimit:"),
			Rate:    cfg.RateLimit.LoginRate,
			Burst:   cfg.RateLimit.LoginBurst,
		}
		baseLogger.Info("login rate limiting enabled", zap.String("redis", cfg.RateLimit.RedisAddr))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Dependencies{
		Auth:          handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		Farmers:       handlers.NewFarmerHandler(farmerSvc, baseLogger.Named("handlers.farmers")),
		Settlements:   handlers.NewSettlementHandler(settlementSvc, baseLogger.Named("handlers.settlements")),
		Storage:       handlers.NewStorageHandler(storageSvc, baseLogger.Named("handlers.storage")),
		Notifications: handlers.NewNotificationHandler(notifier, baseLogger.Named("handlers.notifications")),
		Tokens:        tokens,
		Registry:      registry,
		LoginLimit:    loginLimit,
	}, baseLogger.Named("router"))

	// Initialize Scheduler
	reportingSvc := reportingsvc.NewService(mongoRepo, feeCalc, baseLogger.Named("svc.reporting"))
	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
