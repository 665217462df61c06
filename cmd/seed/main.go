// File: cmd/seed/main.go
// Seeds the payment_gateways and subscription_plans tables from config.
// Secret setting values are encrypted before they reach the database.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freelancer-marketplace/internal/config"
	"freelancer-marketplace/internal/domain/model"
	pg "freelancer-marketplace/internal/infra/db/postgres"
	"freelancer-marketplace/internal/infra/security"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		log.Fatal("security.encryption_key must be 32 bytes for seeding")
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		log.Fatalf("encryption: %v", err)
	}

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	gatewayRepo := pg.NewGatewayConfigRepo(pool)
	for slug, gc := range cfg.Payment.Gateways {
		settings := map[string]string{}
		for k, v := range gc.Settings {
			encrypted, err := encSvc.Encrypt(v)
			if err != nil {
				log.Fatalf("encrypt %s.%s: %v", slug, k, err)
			}
			settings[k] = encrypted
		}
		row := &model.GatewayConfig{
			ID:       uuid.NewString(),
			Slug:     slug,
			Name:     gc.Name,
			Active:   gc.Active,
			Mode:     model.GatewayMode(gc.Mode),
			Settings: settings,
		}
		if err := gatewayRepo.Save(ctx, nil, row); err != nil {
			log.Fatalf("save gateway %s: %v", slug, err)
		}
		log.Printf("seeded gateway %s (active=%v mode=%s)", slug, gc.Active, gc.Mode)
	}

	// Placeholder rows for providers on the roadmap. Inactive until an
	// adapter exists for them.
	for _, placeholder := range []string{"paypal", "stripe"} {
		if _, ok := cfg.Payment.Gateways[placeholder]; ok {
			continue
		}
		row := &model.GatewayConfig{
			ID:       uuid.NewString(),
			Slug:     placeholder,
			Name:     placeholder,
			Active:   false,
			Mode:     model.GatewayModeSandbox,
			Settings: map[string]string{},
		}
		if err := gatewayRepo.Save(ctx, nil, row); err != nil {
			log.Fatalf("save gateway %s: %v", placeholder, err)
		}
	}

	planRepo := pg.NewPlanRepo(pool)
	plans := []*model.SubscriptionPlan{
		{ID: uuid.NewString(), Name: "Starter", DurationDays: 30, Price: decimal.NewFromInt(29), Active: true},
		{ID: uuid.NewString(), Name: "Pro", DurationDays: 30, Price: decimal.NewFromInt(79), Active: true},
		{ID: uuid.NewString(), Name: "Pro Annual", DurationDays: 365, Price: decimal.NewFromInt(790), Active: true},
	}
	for _, p := range plans {
		if err := planRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("save plan %s: %v", p.Name, err)
		}
		log.Printf("seeded plan %s (%s, %d days)", p.Name, p.Price.StringFixed(2), p.DurationDays)
	}
}
