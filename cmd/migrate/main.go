// Command migrate applies or inspects the schema migrations.
//
//	go run ./cmd/migrate [up|down|status|version|redo]
package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/config"
	"github.com/EmpoweredVote/meal-tracker/internal/db"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	d, err := db.Connect(cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close(d)

	if err := db.EnsureSchema(d, cfg.DBSchema); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if err := db.RunMigrations(context.Background(), d, command, os.Args[min(2, len(os.Args)):]...); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
	log.Printf("✅ migrate %s done", command)
}
