package main

import (
	"context"
	"log"
	"time"

	"rag-knowledge-be/internal/bootstrap"
	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/model"
	"rag-knowledge-be/pkg/database"

	"github.com/fatih/color"
)

// Re-enqueues documents stuck in PENDING, then drains the local worker.
// Meant to run after a crash or deploy that lost in-flight tasks.
func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.WorkerService.Close()

	ctx := context.Background()
	if err := container.WorkerService.Consume(ctx); err != nil {
		log.Fatalf("Error: failed to start worker: %v", err)
	}

	count, err := container.WorkerService.RetryPending(ctx)
	if err != nil {
		log.Fatalf("Error: retry sweep failed: %v", err)
	}
	color.Cyan("Rescheduled %d pending documents", count)

	if count == 0 {
		return
	}

	// The gochannel bus is in-process, so this process has to stay alive
	// while the pool works through the backlog. Poll until nothing is
	// left in-flight.
	color.Yellow("Processing %d documents locally, press Ctrl+C to abort...", count)
	for {
		time.Sleep(5 * time.Second)
		var inFlight int64
		err := gormDB.Model(&model.Document{}).
			Where("status NOT IN ?", []string{
				string(constant.DocumentStatusCompleted),
				string(constant.DocumentStatusFailed),
			}).
			Count(&inFlight).Error
		if err != nil {
			log.Fatalf("Error: progress poll failed: %v", err)
		}
		if inFlight == 0 {
			break
		}
	}
	color.Green("Done")
}
