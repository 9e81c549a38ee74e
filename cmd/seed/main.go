package main

import (
	"context"
	"log"

	"github.com/EmpoweredVote/meal-tracker/internal/app"
	"github.com/EmpoweredVote/meal-tracker/internal/config"
	"github.com/EmpoweredVote/meal-tracker/internal/logger"
	"github.com/EmpoweredVote/meal-tracker/internal/seeds"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	if err := seeds.SeedAll(ctx, a.Auth.Service, a.Meals, zl.Named("seed")); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
