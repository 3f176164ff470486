package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/pkg/events"
	pktNats "rag-knowledge-be/pkg/nats"

	"github.com/fatih/color"
)

// Tails document lifecycle events off the NATS bus. Useful for watching
// a batch import from a terminal without touching the database.
func main() {
	cfg := config.Load()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	handler := func(ctx context.Context, event events.Event) error {
		payload := event.Payload()
		switch event.EventType() {
		case "events." + events.EventDocumentFailed:
			color.Red("FAILED    doc=%v kb=%v: %v",
				payload["document_id"], payload["knowledge_base_id"], payload["message"])
		default:
			color.Green("COMPLETED doc=%v kb=%v entities=%v relations=%v",
				payload["document_id"], payload["knowledge_base_id"],
				payload["entity_count"], payload["relation_count"])
		}
		return nil
	}

	if err := sub.Subscribe("events.document.*", "document-events-tail", handler); err != nil {
		log.Fatalf("Error: failed to subscribe: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
