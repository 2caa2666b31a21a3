package store

import (
	"context"
	"errors"

	"github.com/tranzor/tranzor-core/pkg/records"
)

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a conditional write precondition failed
	ErrConflict = errors.New("record already exists")
)

// ListQuery holds the filter and pagination parameters for per-account
// transaction listings. StartDate and EndDate constrain the received
// timestamp sort key (BETWEEN when both are set, one-sided otherwise);
// Status and TransactionType apply as post-read filters, so a page may carry
// fewer than Limit items even when more pages remain.
type ListQuery struct {
	Status          string
	TransactionType string
	StartDate       string
	EndDate         string
	Limit           int32
	NextToken       string
}

// PageQuery holds pagination parameters for fraud-check and audit-trail
// listings.
type PageQuery struct {
	Limit     int32
	NextToken string
}

// Page is one page of recursively decoded items plus the continuation token
// for the next page, empty when the listing is exhausted.
type Page struct {
	Items     []map[string]any
	NextToken string
}

// Settlement describes one Pending-to-terminal transition. The fraud check
// and both participant-record updates are applied atomically, each update
// conditioned on the stored status still being Pending.
type Settlement struct {
	Check              *records.FraudCheck
	TransactionID      string
	SenderAccountID    string
	ReceiverAccountID  string
	Status             records.Status
	StatusReason       string
	ProcessedTimestamp string
}

// Store is the record-store collaborator. Implementations are safe for
// concurrent use; correctness of settlement rests on the store's native
// conditional-write atomicity, not on client-side locking.
type Store interface {
	// CreateTransactionPair writes the sender-view and receiver-view records
	// in one atomic transaction, requiring that neither key pair exists.
	// Returns ErrConflict if either precondition fails.
	CreateTransactionPair(ctx context.Context, sender, receiver *records.Transaction) error

	// GetTransaction fetches one participant record as a typed value.
	// Returns ErrNotFound if absent.
	GetTransaction(ctx context.Context, transactionID, accountID string) (*records.Transaction, error)

	// GetTransactionItem fetches one participant record with every attribute
	// recursively decoded to plain values. Returns ErrNotFound if absent.
	GetTransactionItem(ctx context.Context, transactionID, accountID string) (map[string]any, error)

	// TrySettle applies a Settlement. Returns (false, nil), without writing
	// anything, when the transaction is no longer Pending.
	TrySettle(ctx context.Context, s Settlement) (bool, error)

	// AppendAuditLog records one system event.
	AppendAuditLog(ctx context.Context, entry *records.AuditLog) error

	// ListAccountTransactions pages through an account's records in received
	// timestamp order.
	ListAccountTransactions(ctx context.Context, accountID string, q ListQuery) (*Page, error)

	// ListFraudChecks pages through the fraud checks recorded for a
	// transaction in timestamp order.
	ListFraudChecks(ctx context.Context, transactionID string, q PageQuery) (*Page, error)

	// ListAuditLogs pages through the audit entries recorded for an entity in
	// timestamp order.
	ListAuditLogs(ctx context.Context, entityID string, q PageQuery) (*Page, error)
}
