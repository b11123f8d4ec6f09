package task

import (
	"context"
	"encoding/json"
	"log"
	"time"

	qport "go-relay/internal/infrastructure/queue/port"
	presence "go-relay/internal/pkg/presence/domain"
	repository "go-relay/internal/pkg/presence/persistence/repository/port"
)

// MarkDeliveredTaskType is the queue task name for flipping the delivered
// flag after a message was handed to a live recipient. Delivery to the client
// never waits on this update.
const MarkDeliveredTaskType = "presence:mark_delivered"

// MarkDeliveredPayload is the JSON payload transported via the queue.
type MarkDeliveredPayload struct {
	MessageID string `json:"messageId"`
}

// RegisterMarkDeliveredTask binds the mark-delivered handler to the server.
// The handler is idempotent: the delivered flag is monotone in the store.
func RegisterMarkDeliveredTask(srv qport.Server, repo repository.MessageRepository) {
	srv.Register(MarkDeliveredTaskType, func(ctx context.Context, t qport.Task) error {
		var p MarkDeliveredPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// Malformed payload: retrying will not help.
			log.Printf("task: drop malformed %s payload: %v", MarkDeliveredTaskType, err)
			return nil
		}
		if p.MessageID == "" || presence.IsTransientID(p.MessageID) {
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		// Returning the error signals a retry; the store may come back.
		return repo.MarkDelivered(ctx, p.MessageID)
	})
}
