package readapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tranzor/tranzor-core/internal/auth"
	"github.com/tranzor/tranzor-core/internal/httpapi"
	"github.com/tranzor/tranzor-core/pkg/store"
)

// FraudChecksHandler serves GET /v1/transactions/{transactionId}/fraud-checks
type FraudChecksHandler struct {
	store    store.Store
	verifier *auth.Verifier
	logger   *slog.Logger
}

// NewFraudChecksHandler wires the handler.
func NewFraudChecksHandler(st store.Store, verifier *auth.Verifier, logger *slog.Logger) *FraudChecksHandler {
	return &FraudChecksHandler{store: st, verifier: verifier, logger: logger}
}

type fraudChecksResponse struct {
	FraudChecks []map[string]any `json:"fraudChecks"`
	NextToken   string           `json:"nextToken,omitempty"`
}

// Handle processes one API Gateway request.
func (h *FraudChecksHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := h.verifier.VerifyHeaders(event.Headers); err != nil {
		return httpapi.Respond(h.logger, httpapi.Unauthorized()), nil
	}

	transactionID := event.PathParameters["transactionId"]
	if transactionID == "" {
		return httpapi.Respond(h.logger, httpapi.Validation("Missing transactionId in path")), nil
	}

	qp := event.QueryStringParameters
	page, err := h.store.ListFraudChecks(ctx, transactionID, store.PageQuery{
		Limit:     parseLimit(qp["limit"]),
		NextToken: qp["nextToken"],
	})
	if err != nil {
		return httpapi.Respond(h.logger, fmt.Errorf("failed to list fraud checks: %w", err)), nil
	}

	return httpapi.JSON(http.StatusOK, fraudChecksResponse{
		FraudChecks: page.Items,
		NextToken:   page.NextToken,
	}), nil
}

// AuditTrailHandler serves GET /v1/transactions/{transactionId}/audit-trail
type AuditTrailHandler struct {
	store    store.Store
	verifier *auth.Verifier
	logger   *slog.Logger
}

// NewAuditTrailHandler wires the handler.
func NewAuditTrailHandler(st store.Store, verifier *auth.Verifier, logger *slog.Logger) *AuditTrailHandler {
	return &AuditTrailHandler{store: st, verifier: verifier, logger: logger}
}

type auditTrailResponse struct {
	Logs      []map[string]any `json:"logs"`
	NextToken string           `json:"nextToken,omitempty"`
}

// Handle processes one API Gateway request.
func (h *AuditTrailHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := h.verifier.VerifyHeaders(event.Headers); err != nil {
		return httpapi.Respond(h.logger, httpapi.Unauthorized()), nil
	}

	transactionID := event.PathParameters["transactionId"]
	if transactionID == "" {
		return httpapi.Respond(h.logger, httpapi.Validation("Missing transactionId in path")), nil
	}

	qp := event.QueryStringParameters
	page, err := h.store.ListAuditLogs(ctx, transactionID, store.PageQuery{
		Limit:     parseLimit(qp["limit"]),
		NextToken: qp["nextToken"],
	})
	if err != nil {
		return httpapi.Respond(h.logger, fmt.Errorf("failed to list audit logs: %w", err)), nil
	}

	return httpapi.JSON(http.StatusOK, auditTrailResponse{
		Logs:      page.Items,
		NextToken: page.NextToken,
	}), nil
}
