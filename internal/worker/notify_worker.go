package worker

// notify_worker.go
// Processes transfer lifecycle events from QueueTransferEvents.
// Every event is logged; when a webhook URL is configured the event is also
// POSTed there so the notification panel can surface pending approvals.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// NotifyWorker forwards transfer events to an optional webhook.
type NotifyWorker struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifyWorker creates a NotifyWorker. An empty webhookURL means
// log-only mode.
func NewNotifyWorker(webhookURL string) *NotifyWorker {
	return &NotifyWorker{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Process handles one transfer event. A webhook failure is returned so the
// pool can retry and eventually dead-letter the job.
func (w *NotifyWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload TransferEventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notify_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}

	log.Info().
		Int64("transfer_id", payload.TransferID).
		Str("status", payload.Status).
		Str("origin_hq", payload.OriginHeadquartersID).
		Str("destination_hq", payload.DestinationHeadquartersID).
		Int("total_quantity", payload.TotalQuantity).
		Msg("notify_worker: transfer event")

	if w.webhookURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notify_worker: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify_worker: webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify_worker: webhook returned %d", resp.StatusCode)
	}
	return nil
}
