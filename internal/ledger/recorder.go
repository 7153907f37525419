package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/paisapro/pricewise/internal/config"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
)

// CategoryShopping is the expense category for completed shopping lists
const CategoryShopping = "shopping"

// Expense is the outbound event emitted when a shopping list is fully
// purchased. The ledger is an external collaborator; whether it accepts
// the event is its business.
type Expense struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

// Recorder delivers expense events to the ledger collaborator
type Recorder interface {
	RecordExpense(ctx context.Context, e Expense) error
}

// New builds the configured recorder: a webhook recorder when a URL is set,
// otherwise a log-only recorder.
func New(cfg config.LedgerConfig, log *logger.Logger) Recorder {
	if cfg.WebhookURL == "" {
		return &LogRecorder{logger: log}
	}
	return NewWebhook(cfg.WebhookURL, cfg.Timeout, log)
}

// WebhookRecorder posts expense events to an HTTP endpoint
type WebhookRecorder struct {
	url        string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewWebhook creates a webhook recorder
func NewWebhook(url string, timeout time.Duration, log *logger.Logger) *WebhookRecorder {
	return &WebhookRecorder{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With("component", "ledger"),
	}
}

// RecordExpense implements Recorder
func (w *WebhookRecorder) RecordExpense(ctx context.Context, e Expense) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal expense: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		metrics.RecordLedgerEvent("error")
		return fmt.Errorf("post expense: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordLedgerEvent("rejected")
		return fmt.Errorf("ledger rejected expense with status %d", resp.StatusCode)
	}

	metrics.RecordLedgerEvent("accepted")
	w.logger.WithFields(map[string]interface{}{
		"description": e.Description,
		"amount":      e.Amount,
		"category":    e.Category,
	}).Info("expense recorded")
	return nil
}

// LogRecorder only logs expense events. Used when no ledger is configured.
type LogRecorder struct {
	logger *logger.Logger
}

// RecordExpense implements Recorder
func (l *LogRecorder) RecordExpense(ctx context.Context, e Expense) error {
	metrics.RecordLedgerEvent("logged")
	l.logger.WithFields(map[string]interface{}{
		"description": e.Description,
		"amount":      e.Amount,
		"currency":    e.Currency,
		"category":    e.Category,
	}).Info("expense event (no ledger configured)")
	return nil
}
