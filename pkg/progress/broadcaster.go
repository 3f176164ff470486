package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"rag-knowledge-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Update is the payload published for each progress callback, letting
// other instances (or a websocket gateway) stream progress to clients.
type Update struct {
	DocumentID int64  `json:"document_id"`
	Progress   int    `json:"progress"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// Broadcaster publishes progress updates on a per-document Redis
// channel. A nil Redis client turns every publish into a no-op, so the
// pipeline works without Redis deployed.
type Broadcaster struct {
	rdb *redis.Client
	log logger.ILogger
}

func NewBroadcaster(rdb *redis.Client, log logger.ILogger) *Broadcaster {
	return &Broadcaster{rdb: rdb, log: log}
}

func channelFor(documentID int64) string {
	return fmt.Sprintf("doc:progress:%d", documentID)
}

func (b *Broadcaster) Publish(ctx context.Context, update Update) {
	if b.rdb == nil {
		return
	}

	payload, err := json.Marshal(update)
	if err != nil {
		b.log.Error("progress", "Failed to marshal progress update", map[string]interface{}{
			"document_id": update.DocumentID,
			"error":       err.Error(),
		})
		return
	}

	if err := b.rdb.Publish(ctx, channelFor(update.DocumentID), payload).Err(); err != nil {
		b.log.Warn("progress", "Failed to publish progress update", map[string]interface{}{
			"document_id": update.DocumentID,
			"error":       err.Error(),
		})
	}
}

// Subscribe returns a channel of updates for one document. The caller
// must cancel the context to release the underlying subscription.
func (b *Broadcaster) Subscribe(ctx context.Context, documentID int64) (<-chan Update, error) {
	if b.rdb == nil {
		return nil, fmt.Errorf("redis not configured")
	}

	pubsub := b.rdb.Subscribe(ctx, channelFor(documentID))
	out := make(chan Update)

	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var update Update
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
