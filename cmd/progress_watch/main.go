package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/pkg/progress"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
)

// Streams one document's progress updates from Redis to the terminal.
// Usage: progress_watch <document_id>
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: progress_watch <document_id>")
	}
	documentID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Fatalf("Error: invalid document id %q", os.Args[1])
	}

	cfg := config.Load()

	opts, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Fatalf("Error: invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	broadcaster := progress.NewBroadcaster(rdb, sysLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := broadcaster.Subscribe(ctx, documentID)
	if err != nil {
		log.Fatalf("Error: subscribe failed: %v", err)
	}

	color.Cyan("Watching document %d (Ctrl+C to stop)...", documentID)
	for update := range updates {
		color.White("%3d%%  %-15s %s", update.Progress, update.Status, update.Message)
		if constant.DocumentStatus(update.Status).IsTerminal() {
			return
		}
	}
}
