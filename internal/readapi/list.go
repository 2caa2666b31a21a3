package readapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tranzor/tranzor-core/internal/auth"
	"github.com/tranzor/tranzor-core/internal/httpapi"
	"github.com/tranzor/tranzor-core/pkg/store"
)

const defaultPageSize = 20

// ListHandler serves
// GET /accounts/{accountId}/transactions?status=&type=&startDate=&endDate=&limit=&nextToken=
type ListHandler struct {
	store    store.Store
	verifier *auth.Verifier
	logger   *slog.Logger
}

// NewListHandler wires the handler.
func NewListHandler(st store.Store, verifier *auth.Verifier, logger *slog.Logger) *ListHandler {
	return &ListHandler{store: st, verifier: verifier, logger: logger}
}

type listResponse struct {
	Transactions []map[string]any `json:"transactions"`
	NextToken    string           `json:"nextToken,omitempty"`
}

// Handle processes one API Gateway request.
func (h *ListHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := h.verifier.VerifyHeaders(event.Headers); err != nil {
		return httpapi.Respond(h.logger, httpapi.Unauthorized()), nil
	}

	accountID := event.PathParameters["accountId"]
	if accountID == "" {
		return httpapi.Respond(h.logger, httpapi.Validation("Missing accountId in path")), nil
	}

	qp := event.QueryStringParameters
	q := store.ListQuery{
		Status:          qp["status"],
		TransactionType: qp["type"],
		StartDate:       qp["startDate"],
		EndDate:         qp["endDate"],
		Limit:           parseLimit(qp["limit"]),
		NextToken:       qp["nextToken"],
	}

	page, err := h.store.ListAccountTransactions(ctx, accountID, q)
	if err != nil {
		return httpapi.Respond(h.logger, fmt.Errorf("failed to list transactions: %w", err)), nil
	}

	return httpapi.JSON(http.StatusOK, listResponse{
		Transactions: page.Items,
		NextToken:    page.NextToken,
	}), nil
}

func parseLimit(raw string) int32 {
	if raw == "" {
		return defaultPageSize
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return defaultPageSize
	}
	return int32(n)
}
