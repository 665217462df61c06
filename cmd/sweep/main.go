// File: cmd/sweep/main.go
// One-shot sweep runner for cron-style deployments. Runs each sweep pass
// once and exits.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"freelancer-marketplace/internal/config"
	payAdapters "freelancer-marketplace/internal/infra/adapters/payment"
	pg "freelancer-marketplace/internal/infra/db/postgres"
	"freelancer-marketplace/internal/infra/logging"
	red "freelancer-marketplace/internal/infra/redis"
	"freelancer-marketplace/internal/infra/sched"
	"freelancer-marketplace/internal/infra/security"
	"freelancer-marketplace/internal/usecase"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	job := flag.String("job", "all", "which sweep to run: orders|ssm|reconcile|all")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption service init failed")
	}

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

	registry, err := payAdapters.BuildRegistry(ctx, gatewayRepo, encSvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway registry build failed")
	}

	notifUC := usecase.NewNotificationUseCase(notifRepo, cfg.Admin.UserIDs, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, notifUC, cfg.Sweep.ApprovalTimeout, cfg.Sweep.AutoCompleteAfter, cfg.Sweep.DeliveryWindow, cfg.Sweep.BatchLimit, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, notifUC, logger)
	ssmUC := usecase.NewSsmUseCase(ssmRepo, serviceRepo, notifLogRepo, notifUC, cfg.Sweep.SsmGraceDays, cfg.Sweep.BatchLimit, logger)
	paymentUC := usecase.NewPaymentUseCase(
		transactionRepo, orderRepo, orderUC, subUC, registry, txManager,
		cfg.Payment.Currency, cfg.Payment.ReturnURL, cfg.Payment.CallbackURL,
		cfg.Sweep.ReconcileStaleAfter, cfg.Sweep.BatchLimit, logger,
	)

	now := time.Now()
	switch *job {
	case "orders":
		sched.NewOrderSweeper(cfg.Sweep.Interval, orderUC, locker, logger).RunOnce(ctx, now)
	case "ssm":
		sched.NewSsmSweeper(cfg.Sweep.Interval, ssmUC, locker, logger).RunOnce(ctx, now)
	case "reconcile":
		sched.NewPaymentReconciler(cfg.Sweep.Interval, paymentUC, subUC, locker, logger).RunOnce(ctx, now)
	case "all":
		sched.NewOrderSweeper(cfg.Sweep.Interval, orderUC, locker, logger).RunOnce(ctx, now)
		sched.NewSsmSweeper(cfg.Sweep.Interval, ssmUC, locker, logger).RunOnce(ctx, now)
		sched.NewPaymentReconciler(cfg.Sweep.Interval, paymentUC, subUC, locker, logger).RunOnce(ctx, now)
	default:
		logger.Fatal().Str("job", *job).Msg("unknown job")
	}
	logger.Info().Str("job", *job).Msg("sweep run finished")
}
