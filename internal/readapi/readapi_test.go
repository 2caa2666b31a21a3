package readapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranzor/tranzor-core/internal/auth"
	"github.com/tranzor/tranzor-core/internal/readapi"
	"github.com/tranzor/tranzor-core/pkg/records"
	"github.com/tranzor/tranzor-core/pkg/store"
	storemem "github.com/tranzor/tranzor-core/pkg/store/memory"
)

const testSecret = "test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestGetTransaction(t *testing.T) {
	st := storemem.New()
	st.SeedTransaction(&records.Transaction{
		TransactionID:     "txn-1",
		AccountID:         "acct-1",
		Amount:            records.Amount{Value: "100.00", Currency: "USD"},
		Status:            records.StatusApproved,
		FraudCheckID:      "fc-1",
		ReceivedTimestamp: "2025-06-01T10:00:00Z",
	})
	h := readapi.NewGetHandler(st, testLogger())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters:        map[string]string{"transactionId": "txn-1"},
		QueryStringParameters: map[string]string{"accountId": "acct-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var item map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &item))
	assert.Equal(t, "txn-1", item["transactionId"])
	assert.Equal(t, "Approved", item["status"])
	assert.Equal(t, "fc-1", item["fraudCheckId"])
	assert.Equal(t, map[string]any{"value": "100.00", "currency": "USD"}, item["amount"])
}

func TestGetTransactionMissingParams(t *testing.T) {
	h := readapi.NewGetHandler(storemem.New(), testLogger())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"transactionId": "txn-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{
		QueryStringParameters: map[string]string{"accountId": "acct-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTransactionNotFound(t *testing.T) {
	h := readapi.NewGetHandler(storemem.New(), testLogger())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters:        map[string]string{"transactionId": "txn-x"},
		QueryStringParameters: map[string]string{"accountId": "acct-x"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUnauthorized(t *testing.T) {
	h := readapi.NewListHandler(storemem.New(), auth.NewVerifier(testSecret), testLogger())

	for _, header := range []string{"", "Bearer bogus", "Basic abc"} {
		headers := map[string]string{}
		if header != "" {
			headers["Authorization"] = header
		}
		resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
			PathParameters: map[string]string{"accountId": "acct-1"},
			Headers:        headers,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestListTransactions(t *testing.T) {
	st := storemem.New()
	for i := 0; i < 5; i++ {
		st.SeedTransaction(&records.Transaction{
			TransactionID:     fmt.Sprintf("txn-%d", i),
			AccountID:         "acct-1",
			Status:            records.StatusPending,
			TransactionType:   records.Payment,
			ReceivedTimestamp: fmt.Sprintf("2025-06-01T10:0%d:00Z", i),
		})
	}
	h := readapi.NewListHandler(st, auth.NewVerifier(testSecret), testLogger())
	token := bearerToken(t)

	type listResponse struct {
		Transactions []map[string]any `json:"transactions"`
		NextToken    string           `json:"nextToken"`
	}

	// full listing for reference
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"accountId": "acct-1"},
		Headers:        map[string]string{"Authorization": token},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var full listResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &full))
	require.Len(t, full.Transactions, 5)
	for i := 1; i < len(full.Transactions); i++ {
		prev := full.Transactions[i-1]["receivedTimestamp"].(string)
		cur := full.Transactions[i]["receivedTimestamp"].(string)
		assert.LessOrEqual(t, prev, cur, "listing must be in received-timestamp order")
	}

	// paginated walk returns the same sequence
	var paged []map[string]any
	nextToken := ""
	for {
		qp := map[string]string{"limit": "2"}
		if nextToken != "" {
			qp["nextToken"] = nextToken
		}
		resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
			PathParameters:        map[string]string{"accountId": "acct-1"},
			QueryStringParameters: qp,
			Headers:               map[string]string{"Authorization": token},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page listResponse
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &page))
		paged = append(paged, page.Transactions...)
		if page.NextToken == "" {
			break
		}
		nextToken = page.NextToken
	}

	require.Len(t, paged, 5)
	for i := range full.Transactions {
		assert.Equal(t, full.Transactions[i]["transactionId"], paged[i]["transactionId"])
	}
}

func TestListFilterPassthrough(t *testing.T) {
	st := storemem.New()
	st.SeedTransaction(&records.Transaction{
		TransactionID: "txn-1", AccountID: "acct-1",
		Status: records.StatusApproved, TransactionType: records.Payment,
		ReceivedTimestamp: "2025-06-01T10:00:00Z",
	})
	st.SeedTransaction(&records.Transaction{
		TransactionID: "txn-2", AccountID: "acct-1",
		Status: records.StatusDeclined, TransactionType: records.Payment,
		ReceivedTimestamp: "2025-06-01T11:00:00Z",
	})
	h := readapi.NewListHandler(st, auth.NewVerifier(testSecret), testLogger())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters:        map[string]string{"accountId": "acct-1"},
		QueryStringParameters: map[string]string{"status": "Declined"},
		Headers:               map[string]string{"Authorization": bearerToken(t)},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Transactions []map[string]any `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	require.Len(t, out.Transactions, 1)
	assert.Equal(t, "txn-2", out.Transactions[0]["transactionId"])
}

func TestListMissingAccountID(t *testing.T) {
	h := readapi.NewListHandler(storemem.New(), auth.NewVerifier(testSecret), testLogger())
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		Headers: map[string]string{"Authorization": bearerToken(t)},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListFraudChecks(t *testing.T) {
	st := storemem.New()
	seedSettled(t, st, "txn-1")
	h := readapi.NewFraudChecksHandler(st, auth.NewVerifier(testSecret), testLogger())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"transactionId": "txn-1"},
		Headers:        map[string]string{"Authorization": bearerToken(t)},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		FraudChecks []map[string]any `json:"fraudChecks"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	require.Len(t, out.FraudChecks, 1)
	assert.Equal(t, "txn-1", out.FraudChecks[0]["transactionId"])
	assert.Equal(t, "0.5000", out.FraudChecks[0]["score"])
}

func TestListAuditTrail(t *testing.T) {
	st := storemem.New()
	seedSettled(t, st, "txn-1")
	h := readapi.NewAuditTrailHandler(st, auth.NewVerifier(testSecret), testLogger())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"transactionId": "txn-1"},
		Headers:        map[string]string{"Authorization": bearerToken(t)},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Logs []map[string]any `json:"logs"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "TransactionStatusUpdated", out.Logs[0]["eventType"])
	assert.Equal(t, "txn-1", out.Logs[0]["entityId"])
}

func seedSettled(t *testing.T, st *storemem.Store, txID string) {
	t.Helper()
	require.NoError(t, st.AppendAuditLog(context.Background(), &records.AuditLog{
		LogID:     "log-1",
		Timestamp: "2025-06-01T10:01:00Z",
		EventType: records.EventTransactionStatusUpdated,
		EntityID:  txID,
		Details:   `{"newStatus":"Approved"}`,
	}))

	base := records.Transaction{
		TransactionID:     txID,
		AccountID:         "acct-s",
		SenderAccountID:   "acct-s",
		ReceiverAccountID: "acct-r",
		Status:            records.StatusPending,
		ReceivedTimestamp: "2025-06-01T10:00:00Z",
	}
	st.SeedTransaction(&base)
	receiver := base
	receiver.AccountID = "acct-r"
	st.SeedTransaction(&receiver)

	applied, err := st.TrySettle(context.Background(), store.Settlement{
		Check: &records.FraudCheck{
			FraudCheckID:  "fc-1",
			TransactionID: txID,
			Score:         "0.5000",
			Status:        records.StatusApproved,
			Details:       "test",
			Timestamp:     "2025-06-01T10:01:00Z",
		},
		TransactionID:      txID,
		SenderAccountID:    "acct-s",
		ReceiverAccountID:  "acct-r",
		Status:             records.StatusApproved,
		ProcessedTimestamp: "2025-06-01T10:01:00Z",
	})
	require.NoError(t, err)
	require.True(t, applied)
}
