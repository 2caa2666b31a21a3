// Package settlement consumes queued settlement messages and moves
// transactions from Pending to a terminal status exactly once. Delivery is
// at-least-once and unordered; effective at-most-once settlement rests on
// the store's compare-and-swap update.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/tranzor/tranzor-core/internal/metrics"
	"github.com/tranzor/tranzor-core/pkg/records"
	"github.com/tranzor/tranzor-core/pkg/store"
)

// actorLabel identifies this worker in audit details payloads.
const actorLabel = "settlement-worker"

// Worker processes settlement message batches.
type Worker struct {
	store  store.Store
	eval   Evaluator
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewWorker wires the worker with its collaborators.
func NewWorker(st store.Store, eval Evaluator, logger *slog.Logger) *Worker {
	return &Worker{
		store:  st,
		eval:   eval,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Handle processes one SQS event. Failures are isolated per message: a bad
// message is logged and left to the queue's redelivery policy while its
// siblings proceed. The invocation itself always succeeds.
func (w *Worker) Handle(ctx context.Context, event events.SQSEvent) error {
	stats := metrics.NewBatchStats(len(event.Records))
	for _, record := range event.Records {
		settled, err := w.process(ctx, record)
		switch {
		case err != nil:
			stats.Failed()
			w.logger.Error("failed to process settlement message",
				"messageId", record.MessageId, "error", err)
		case settled:
			stats.Settled()
		default:
			stats.Skipped()
		}
	}
	w.logger.Info("settlement batch processed", stats.LogArgs()...)
	return nil
}

// process handles a single message. The bool result reports whether this
// delivery performed the Pending-to-terminal transition.
func (w *Worker) process(ctx context.Context, record events.SQSMessage) (bool, error) {
	var msg records.SettlementMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		return false, fmt.Errorf("malformed settlement message: %w", err)
	}
	if msg.TransactionID == "" || msg.SenderAccountID == "" || msg.ReceiverAccountID == "" {
		return false, fmt.Errorf("settlement message missing identifiers")
	}

	tx, err := w.store.GetTransaction(ctx, msg.TransactionID, msg.SenderAccountID)
	if errors.Is(err, store.ErrNotFound) {
		// No retry can help; the record never existed or was removed.
		w.logger.Warn("transaction not found", "transactionId", msg.TransactionID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	if tx.Status != records.StatusPending {
		// Redelivery of an already settled transaction.
		w.logger.Info("transaction already processed",
			"transactionId", msg.TransactionID, "status", tx.Status)
		return false, nil
	}

	outcome := w.eval.Evaluate(tx)
	status := records.StatusApproved
	reason := ""
	if !outcome.Approved {
		status = records.StatusDeclined
		reason = declineReason
	}
	now := w.now().UTC().Format(time.RFC3339)

	check := &records.FraudCheck{
		FraudCheckID:  w.newID(),
		TransactionID: msg.TransactionID,
		Score:         fmt.Sprintf("%.4f", outcome.Score),
		Status:        status,
		Details:       outcome.Details,
		Timestamp:     now,
	}

	applied, err := w.store.TrySettle(ctx, store.Settlement{
		Check:              check,
		TransactionID:      msg.TransactionID,
		SenderAccountID:    msg.SenderAccountID,
		ReceiverAccountID:  msg.ReceiverAccountID,
		Status:             status,
		StatusReason:       reason,
		ProcessedTimestamp: now,
	})
	if err != nil {
		return false, fmt.Errorf("failed to settle transaction: %w", err)
	}
	if !applied {
		// A concurrent delivery won the compare-and-swap; benign.
		w.logger.Info("settlement lost race, skipping",
			"transactionId", msg.TransactionID)
		return false, nil
	}

	if err := w.appendAudit(ctx, msg.TransactionID, status, reason, check); err != nil {
		return false, err
	}

	w.logger.Info("transaction settled",
		"transactionId", msg.TransactionID,
		"status", status,
		"fraudCheckId", check.FraudCheckID)
	return true, nil
}

type auditDetails struct {
	NewStatus    records.Status `json:"newStatus"`
	StatusReason string         `json:"statusReason,omitempty"`
	FraudCheckID string         `json:"fraudCheckId"`
	FraudScore   string         `json:"fraudScore"`
	Actor        string         `json:"actor"`
}

func (w *Worker) appendAudit(ctx context.Context, transactionID string, status records.Status, reason string, check *records.FraudCheck) error {
	details, err := json.Marshal(auditDetails{
		NewStatus:    status,
		StatusReason: reason,
		FraudCheckID: check.FraudCheckID,
		FraudScore:   check.Score,
		Actor:        actorLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	entry := &records.AuditLog{
		LogID:     w.newID(),
		Timestamp: w.now().UTC().Format(time.RFC3339),
		EventType: records.EventTransactionStatusUpdated,
		EntityID:  transactionID,
		Details:   string(details),
	}
	if err := w.store.AppendAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}
