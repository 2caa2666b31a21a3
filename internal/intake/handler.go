// Package intake implements POST /v1/transactions: validate the creation
// request, atomically write the sender-view and receiver-view records, then
// enqueue the settlement message.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tranzor/tranzor-core/internal/httpapi"
	"github.com/tranzor/tranzor-core/pkg/queue"
	"github.com/tranzor/tranzor-core/pkg/records"
	"github.com/tranzor/tranzor-core/pkg/store"
)

// Request is the transaction creation payload.
type Request struct {
	ReferenceID       string                  `json:"referenceId"`
	SenderAccountID   string                  `json:"senderAccountId"`
	ReceiverAccountID string                  `json:"receiverAccountId"`
	Amount            *records.Amount         `json:"amount"`
	TransactionType   records.TransactionType `json:"transactionType"`
	Metadata          json.RawMessage         `json:"metadata,omitempty"`
}

// Response is the accepted-for-processing reply.
type Response struct {
	TransactionID     string         `json:"transactionId"`
	Status            records.Status `json:"status"`
	ReceivedTimestamp string         `json:"receivedTimestamp"`
}

// Handler validates and persists creation requests.
type Handler struct {
	store  store.Store
	queue  queue.Publisher
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewHandler wires the handler with its collaborators.
func NewHandler(st store.Store, pub queue.Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		store:  st,
		queue:  pub,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Handle processes one API Gateway request.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req Request
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return httpapi.Respond(h.logger, httpapi.Validation("Invalid request body")), nil
	}
	if err := req.validate(); err != nil {
		return httpapi.Respond(h.logger, err), nil
	}

	transactionID := h.newID()
	now := h.now().UTC().Format(time.RFC3339)

	base := records.Transaction{
		TransactionID:     transactionID,
		ReferenceID:       req.ReferenceID,
		SenderAccountID:   req.SenderAccountID,
		ReceiverAccountID: req.ReceiverAccountID,
		Amount:            *req.Amount,
		TransactionType:   req.TransactionType,
		Status:            records.StatusPending,
		ReceivedTimestamp: now,
		UpdatedAt:         now,
	}
	if len(req.Metadata) > 0 {
		base.Metadata = string(req.Metadata)
	}

	sender, receiver := base, base
	sender.AccountID = req.SenderAccountID
	receiver.AccountID = req.ReceiverAccountID

	if err := h.store.CreateTransactionPair(ctx, &sender, &receiver); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return httpapi.Respond(h.logger, httpapi.Conflict("Transaction already exists")), nil
		}
		return httpapi.Respond(h.logger, fmt.Errorf("failed to create transaction pair: %w", err)), nil
	}

	msg := &records.SettlementMessage{
		TransactionID:     transactionID,
		SenderAccountID:   req.SenderAccountID,
		ReceiverAccountID: req.ReceiverAccountID,
		Amount:            *req.Amount,
		TransactionType:   req.TransactionType,
	}
	if err := h.queue.Publish(ctx, msg); err != nil {
		// The pending pair is durable but will not settle until the message
		// is resent; an accepted at-least-once gap.
		h.logger.Error("failed to enqueue settlement message",
			"transactionId", transactionID, "error", err)
		return httpapi.Respond(h.logger, fmt.Errorf("failed to publish settlement message: %w", err)), nil
	}

	h.logger.Info("transaction accepted",
		"transactionId", transactionID,
		"senderAccountId", req.SenderAccountID,
		"receiverAccountId", req.ReceiverAccountID,
		"transactionType", req.TransactionType)

	return httpapi.JSON(http.StatusAccepted, Response{
		TransactionID:     transactionID,
		Status:            records.StatusPending,
		ReceivedTimestamp: now,
	}), nil
}

// validate reports the first missing or malformed field.
func (r *Request) validate() error {
	switch {
	case r.ReferenceID == "":
		return httpapi.Validation("Missing required field: referenceId")
	case r.SenderAccountID == "":
		return httpapi.Validation("Missing required field: senderAccountId")
	case r.ReceiverAccountID == "":
		return httpapi.Validation("Missing required field: receiverAccountId")
	case r.Amount == nil:
		return httpapi.Validation("Missing required field: amount")
	case r.Amount.Value == "":
		return httpapi.Validation("Invalid amount structure: missing value")
	case r.Amount.Currency == "":
		return httpapi.Validation("Invalid amount structure: missing currency")
	case r.TransactionType == "":
		return httpapi.Validation("Missing required field: transactionType")
	}
	if _, err := decimal.NewFromString(r.Amount.Value); err != nil {
		return httpapi.Validation("Invalid amount value: %s", r.Amount.Value)
	}
	if !records.KnownTransactionType(r.TransactionType) {
		return httpapi.Validation("Unknown transaction type: %s", r.TransactionType)
	}
	return nil
}
