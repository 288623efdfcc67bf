package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueTransferEvents = "jobs:transfer-events"

const maxAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// TransferEventPayload describes one confirmed lifecycle transition. It is
// what the notification webhook ultimately receives.
type TransferEventPayload struct {
	Event                     string `json:"event"` // status the transfer moved into
	TransferID                int64  `json:"transfer_id"`
	Status                    string `json:"status"`
	OriginHeadquartersID      string `json:"origin_headquarters_id"`
	DestinationHeadquartersID string `json:"destination_headquarters_id"`
	TotalQuantity             int    `json:"total_quantity"`
	OccurredAt                string `json:"occurred_at"` // ISO 8601
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// TransferEvent implements the store's notifier contract. Enqueue failures
// are logged and swallowed — a lost notification never fails the transfer
// operation that produced it.
func (d *Dispatcher) TransferEvent(ctx context.Context, event string, transfer model.Transferencia) {
	payload := TransferEventPayload{
		Event:                     event,
		TransferID:                transfer.ID,
		Status:                    transfer.Status,
		OriginHeadquartersID:      transfer.OriginHeadquartersID,
		DestinationHeadquartersID: transfer.DestinationHeadquartersID,
		TotalQuantity:             transfer.TotalQuantity,
		OccurredAt:                time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.enqueue(ctx, QueueTransferEvents, "transfer-event", payload); err != nil {
		log.Error().Err(err).Int64("transfer_id", transfer.ID).Msg("dispatcher: failed to enqueue transfer event")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// WorkerHandlers groups the per-queue processors wired at the composition root.
type WorkerHandlers struct {
	Notify *NotifyWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the event queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueTransferEvents).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

// processJob runs one job through its handler. Failures are re-enqueued up
// to maxAttempts; after that the job lands in the DLQ for manual inspection.
func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "transfer-event":
		err = handlers.Notify.Process(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type — dropping")
		return
	}

	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	encoded, marshalErr := json.Marshal(job)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Msg("failed to re-enqueue job")
		return
	}
	if pushErr := rdb.LPush(ctx, queue, encoded).Err(); pushErr != nil {
		log.Error().Err(pushErr).Msg("failed to re-enqueue job")
	}
}
