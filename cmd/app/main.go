// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"freelancer-marketplace/internal/config"
	payAdapters "freelancer-marketplace/internal/infra/adapters/payment"
	"freelancer-marketplace/internal/infra/api"
	pg "freelancer-marketplace/internal/infra/db/postgres"
	"freelancer-marketplace/internal/infra/logging"
	"freelancer-marketplace/internal/infra/metrics"
	red "freelancer-marketplace/internal/infra/redis"
	"freelancer-marketplace/internal/infra/sched"
	"freelancer-marketplace/internal/infra/security"
	"freelancer-marketplace/internal/infra/web"
	"freelancer-marketplace/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption service init failed")
	}

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	transactionRepo := pg.NewTransactionRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	ssmRepo := pg.NewSsmRepo(pool)
	serviceRepo := pg.NewServiceRepo(pool)
	notifRepo := pg.NewNotificationRepo(pool)
	notifLogRepo := pg.NewNotificationLogRepo(pool)
	gatewayRepo := pg.NewGatewayConfigRepo(pool)

	// ---- Payment gateways ----
	registry, err := payAdapters.BuildRegistry(ctx, gatewayRepo, encSvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway registry build failed")
	}
	logger.Info().Strs("gateways", registry.Slugs()).Msg("payment gateways loaded")

	// ---- Use cases ----
	notifUC := usecase.NewNotificationUseCase(notifRepo, cfg.Admin.UserIDs, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, notifUC, cfg.Sweep.ApprovalTimeout, cfg.Sweep.AutoCompleteAfter, cfg.Sweep.DeliveryWindow, cfg.Sweep.BatchLimit, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, notifUC, logger)
	ssmUC := usecase.NewSsmUseCase(ssmRepo, serviceRepo, notifLogRepo, notifUC, cfg.Sweep.SsmGraceDays, cfg.Sweep.BatchLimit, logger)
	paymentUC := usecase.NewPaymentUseCase(
		transactionRepo, orderRepo, orderUC, subUC, registry, txManager,
		cfg.Payment.Currency, cfg.Payment.ReturnURL, cfg.Payment.CallbackURL,
		cfg.Sweep.ReconcileStaleAfter, cfg.Sweep.BatchLimit, logger,
	)

	// ---- Public HTTP server ----
	publicSrv := api.NewServer(paymentUC, orderUC, rateLimiter, cfg.Server.CallbackRateLimit, cfg.Server.CallbackRateWindow, logger)
	publicServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: publicSrv.Router()}
	go func() {
		logger.Info().Str("addr", publicServer.Addr).Msg("public API listening")
		if err := publicServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public server error")
		}
	}()

	// ---- Admin HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	adminSrv := web.NewServer(paymentUC, orderUC, notifUC, gatewayRepo, encSvc, auth, cfg.Admin.APIKey, logger)
	adminMux := http.NewServeMux()
	adminSrv.RegisterRoutes(adminMux)
	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminMux}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin API listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Sweep workers ----
	orderSweeper := sched.NewOrderSweeper(cfg.Sweep.Interval, orderUC, locker, logger)
	ssmSweeper := sched.NewSsmSweeper(cfg.Sweep.Interval, ssmUC, locker, logger)
	reconciler := sched.NewPaymentReconciler(cfg.Sweep.Interval, paymentUC, subUC, locker, logger)
	go func() { _ = orderSweeper.Run(ctx) }()
	go func() { _ = ssmSweeper.Run(ctx) }()
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = publicServer.Shutdown(context.Background())
	_ = adminServer.Shutdown(context.Background())
}
