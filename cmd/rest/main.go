package main

import (
	"context"
	"log"

	"rag-knowledge-be/internal/bootstrap"
	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/internal/server"
	"rag-knowledge-be/internal/tracer"
	"rag-knowledge-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.GraphStore.Close(context.Background())
	defer container.WorkerService.Close()

	// 4. Start Background Worker
	go func() {
		log.Println("Background: Starting document worker...")
		if err := container.WorkerService.Consume(context.Background()); err != nil {
			log.Printf("Background worker error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
