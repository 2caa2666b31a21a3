package intake

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	queuemem "github.com/tranzor/tranzor-core/pkg/queue/memory"
	"github.com/tranzor/tranzor-core/pkg/records"
	storemem "github.com/tranzor/tranzor-core/pkg/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validBody() map[string]any {
	return map[string]any{
		"referenceId":       "ref-1",
		"senderAccountId":   "acct-s",
		"receiverAccountId": "acct-r",
		"amount":            map[string]any{"value": "100.00", "currency": "USD"},
		"transactionType":   "PAYMENT",
	}
}

func request(t *testing.T, body map[string]any) events.APIGatewayProxyRequest {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return events.APIGatewayProxyRequest{Body: string(raw)}
}

func TestHandleSuccess(t *testing.T) {
	st := storemem.New()
	pub := queuemem.New()
	h := NewHandler(st, pub, testLogger())
	h.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	h.newID = func() string { return "txn-fixed" }

	body := validBody()
	body["metadata"] = map[string]any{"channel": "web"}
	resp, err := h.Handle(context.Background(), request(t, body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out Response
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Equal(t, "txn-fixed", out.TransactionID)
	assert.Equal(t, records.StatusPending, out.Status)
	assert.Equal(t, "2025-06-01T10:00:00Z", out.ReceivedTimestamp)

	// both participant views written
	sender := st.Transaction("txn-fixed", "acct-s")
	require.NotNil(t, sender)
	assert.Equal(t, records.StatusPending, sender.Status)
	assert.Equal(t, "ref-1", sender.ReferenceID)
	assert.JSONEq(t, `{"channel":"web"}`, sender.Metadata)

	receiver := st.Transaction("txn-fixed", "acct-r")
	require.NotNil(t, receiver)
	assert.Equal(t, "acct-r", receiver.AccountID)
	assert.Equal(t, "acct-s", receiver.SenderAccountID)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "txn-fixed", msgs[0].TransactionID)
	assert.Equal(t, "acct-s", msgs[0].SenderAccountID)
	assert.Equal(t, "acct-r", msgs[0].ReceiverAccountID)
	assert.Equal(t, records.Amount{Value: "100.00", Currency: "USD"}, msgs[0].Amount)
	assert.Equal(t, records.Payment, msgs[0].TransactionType)
}

func TestHandleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(body map[string]any)
	}{
		{"missing referenceId", func(b map[string]any) { delete(b, "referenceId") }},
		{"missing senderAccountId", func(b map[string]any) { delete(b, "senderAccountId") }},
		{"missing receiverAccountId", func(b map[string]any) { delete(b, "receiverAccountId") }},
		{"missing amount", func(b map[string]any) { delete(b, "amount") }},
		{"missing amount value", func(b map[string]any) { b["amount"] = map[string]any{"currency": "USD"} }},
		{"missing amount currency", func(b map[string]any) { b["amount"] = map[string]any{"value": "100.00"} }},
		{"missing transactionType", func(b map[string]any) { delete(b, "transactionType") }},
		{"non-decimal amount value", func(b map[string]any) { b["amount"] = map[string]any{"value": "abc", "currency": "USD"} }},
		{"unknown transactionType", func(b map[string]any) { b["transactionType"] = "GIFT" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storemem.New()
			pub := queuemem.New()
			h := NewHandler(st, pub, testLogger())

			body := validBody()
			tt.mutate(body)
			resp, err := h.Handle(context.Background(), request(t, body))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			// no writes, no enqueue
			assert.Empty(t, pub.Messages())
		})
	}
}

func TestHandleMalformedBody(t *testing.T) {
	h := NewHandler(storemem.New(), queuemem.New(), testLogger())
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{Body: "{not json"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleConflict(t *testing.T) {
	st := storemem.New()
	pub := queuemem.New()
	h := NewHandler(st, pub, testLogger())
	h.newID = func() string { return "txn-dup" }

	st.SeedTransaction(&records.Transaction{TransactionID: "txn-dup", AccountID: "acct-s"})

	resp, err := h.Handle(context.Background(), request(t, validBody()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, pub.Messages())
}

func TestHandleStoreFailure(t *testing.T) {
	st := storemem.New().WithError(errors.New("store down"))
	pub := queuemem.New()
	h := NewHandler(st, pub, testLogger())

	resp, err := h.Handle(context.Background(), request(t, validBody()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, pub.Messages())
	assert.JSONEq(t, `{"message":"Internal server error"}`, resp.Body)
}

func TestHandlePublishFailure(t *testing.T) {
	st := storemem.New()
	pub := queuemem.New().WithError(errors.New("queue down"))
	h := NewHandler(st, pub, testLogger())
	h.newID = func() string { return "txn-orphan" }

	resp, err := h.Handle(context.Background(), request(t, validBody()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// the pending pair stays durable even though no message was enqueued
	assert.NotNil(t, st.Transaction("txn-orphan", "acct-s"))
	assert.NotNil(t, st.Transaction("txn-orphan", "acct-r"))
}
