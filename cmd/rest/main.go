package main

import (
	"context"
	"log"

	"doc-agent-be/internal/bootstrap"
	"doc-agent-be/internal/config"
	"doc-agent-be/internal/server"
	"doc-agent-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Start Background Worker
	go func() {
		log.Println("Background: Starting Ingestion Worker...")
		if err := container.IngestWorkerService.Consume(context.Background()); err != nil {
			log.Printf("Background Worker Error: %v", err)
		}
	}()

	// 5. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
