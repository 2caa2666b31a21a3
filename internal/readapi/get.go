// Package readapi implements the read-side projections: single-transaction
// get, per-account listing, and the fraud-check and audit-trail listings.
package readapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tranzor/tranzor-core/internal/httpapi"
	"github.com/tranzor/tranzor-core/pkg/store"
)

// GetHandler serves GET /v1/transactions/{transactionId}?accountId=...
type GetHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewGetHandler wires the handler.
func NewGetHandler(st store.Store, logger *slog.Logger) *GetHandler {
	return &GetHandler{store: st, logger: logger}
}

// Handle processes one API Gateway request.
func (h *GetHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	transactionID := event.PathParameters["transactionId"]
	accountID := event.QueryStringParameters["accountId"]
	if transactionID == "" || accountID == "" {
		return httpapi.Respond(h.logger, httpapi.Validation("Missing transactionId or accountId")), nil
	}

	item, err := h.store.GetTransactionItem(ctx, transactionID, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return httpapi.Respond(h.logger, httpapi.NotFound("Transaction not found")), nil
	}
	if err != nil {
		return httpapi.Respond(h.logger, fmt.Errorf("failed to fetch transaction: %w", err)), nil
	}

	return httpapi.JSON(http.StatusOK, item), nil
}
