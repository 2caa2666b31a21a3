// Package memory provides an in-memory store.Store used to test handler and
// worker logic without a running DynamoDB. It reproduces the store's
// observable semantics: conditional pair creation, compare-and-swap
// settlement, and limit-before-filter pagination in received-timestamp order.
package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tranzor/tranzor-core/pkg/records"
	"github.com/tranzor/tranzor-core/pkg/store"
)

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu           sync.Mutex
	transactions map[string]*records.Transaction
	fraudChecks  []*records.FraudCheck
	auditLogs    []*records.AuditLog
	err          error
	auditErr     error
}

var _ store.Store = (*Store)(nil)

// New instantiates an empty in-memory store.
func New() *Store {
	return &Store{transactions: make(map[string]*records.Transaction)}
}

// WithError configures the store to return the provided error from every
// subsequent operation.
func (m *Store) WithError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithAuditError configures only AppendAuditLog to fail.
func (m *Store) WithAuditError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditErr = err
	return m
}

func key(transactionID, accountID string) string {
	return transactionID + "/" + accountID
}

// SeedTransaction inserts a record directly, bypassing preconditions.
func (m *Store) SeedTransaction(tx *records.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[key(tx.TransactionID, tx.AccountID)] = &cp
}

// Transaction returns a copy of the stored record, or nil.
func (m *Store) Transaction(transactionID, accountID string) *records.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[key(transactionID, accountID)]
	if !ok {
		return nil
	}
	cp := *tx
	return &cp
}

// FraudChecks returns copies of all recorded fraud checks.
func (m *Store) FraudChecks() []records.FraudCheck {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]records.FraudCheck, 0, len(m.fraudChecks))
	for _, fc := range m.fraudChecks {
		out = append(out, *fc)
	}
	return out
}

// AuditLogs returns copies of all recorded audit entries.
func (m *Store) AuditLogs() []records.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]records.AuditLog, 0, len(m.auditLogs))
	for _, e := range m.auditLogs {
		out = append(out, *e)
	}
	return out
}

// CreateTransactionPair implements store.Store.
func (m *Store) CreateTransactionPair(_ context.Context, sender, receiver *records.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	senderKey := key(sender.TransactionID, sender.AccountID)
	receiverKey := key(receiver.TransactionID, receiver.AccountID)
	if _, ok := m.transactions[senderKey]; ok {
		return store.ErrConflict
	}
	if _, ok := m.transactions[receiverKey]; ok {
		return store.ErrConflict
	}

	senderCopy, receiverCopy := *sender, *receiver
	m.transactions[senderKey] = &senderCopy
	m.transactions[receiverKey] = &receiverCopy
	return nil
}

// GetTransaction implements store.Store.
func (m *Store) GetTransaction(_ context.Context, transactionID, accountID string) (*records.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	tx, ok := m.transactions[key(transactionID, accountID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

// GetTransactionItem implements store.Store.
func (m *Store) GetTransactionItem(ctx context.Context, transactionID, accountID string) (map[string]any, error) {
	tx, err := m.GetTransaction(ctx, transactionID, accountID)
	if err != nil {
		return nil, err
	}
	return toItem(tx)
}

// TrySettle implements store.Store.
func (m *Store) TrySettle(_ context.Context, s store.Settlement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}

	views := []string{
		key(s.TransactionID, s.SenderAccountID),
		key(s.TransactionID, s.ReceiverAccountID),
	}
	for _, k := range views {
		tx, ok := m.transactions[k]
		if !ok || tx.Status != records.StatusPending {
			return false, nil
		}
	}

	check := *s.Check
	m.fraudChecks = append(m.fraudChecks, &check)
	for _, k := range views {
		tx := m.transactions[k]
		tx.Status = s.Status
		tx.StatusReason = s.StatusReason
		tx.ProcessedTimestamp = s.ProcessedTimestamp
		tx.UpdatedAt = s.ProcessedTimestamp
		tx.FraudCheckID = s.Check.FraudCheckID
	}
	return true, nil
}

// AppendAuditLog implements store.Store.
func (m *Store) AppendAuditLog(_ context.Context, entry *records.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.auditErr != nil {
		return m.auditErr
	}
	cp := *entry
	m.auditLogs = append(m.auditLogs, &cp)
	return nil
}

// cursor is the fake's continuation token payload. Real tokens round-trip
// the store's last evaluated key; here the sort key pair is enough.
type cursor struct {
	SortKey string `json:"sortKey"`
	ID      string `json:"id"`
}

func encodeCursor(c cursor) string {
	raw, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (*cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed continuation token: %w", err)
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("malformed continuation token: %w", err)
	}
	return &c, nil
}

// ListAccountTransactions implements store.Store. The limit bounds the
// key-matched window and filters apply within it, mirroring how the real
// store evaluates FilterExpression after Limit.
func (m *Store) ListAccountTransactions(_ context.Context, accountID string, q store.ListQuery) (*store.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var matched []*records.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID != accountID {
			continue
		}
		if q.StartDate != "" && tx.ReceivedTimestamp < q.StartDate {
			continue
		}
		if q.EndDate != "" && tx.ReceivedTimestamp > q.EndDate {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ReceivedTimestamp != matched[j].ReceivedTimestamp {
			return matched[i].ReceivedTimestamp < matched[j].ReceivedTimestamp
		}
		return matched[i].TransactionID < matched[j].TransactionID
	})

	window, nextToken, err := paginate(matched, q.Limit, q.NextToken, func(tx *records.Transaction) cursor {
		return cursor{SortKey: tx.ReceivedTimestamp, ID: tx.TransactionID}
	})
	if err != nil {
		return nil, err
	}

	page := &store.Page{Items: []map[string]any{}, NextToken: nextToken}
	for _, tx := range window {
		if q.Status != "" && string(tx.Status) != q.Status {
			continue
		}
		if q.TransactionType != "" && string(tx.TransactionType) != q.TransactionType {
			continue
		}
		item, err := toItem(tx)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// ListFraudChecks implements store.Store.
func (m *Store) ListFraudChecks(_ context.Context, transactionID string, q store.PageQuery) (*store.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var matched []*records.FraudCheck
	for _, fc := range m.fraudChecks {
		if fc.TransactionID == transactionID {
			matched = append(matched, fc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp < matched[j].Timestamp
		}
		return matched[i].FraudCheckID < matched[j].FraudCheckID
	})

	window, nextToken, err := paginate(matched, q.Limit, q.NextToken, func(fc *records.FraudCheck) cursor {
		return cursor{SortKey: fc.Timestamp, ID: fc.FraudCheckID}
	})
	if err != nil {
		return nil, err
	}
	return itemsPage(window, nextToken)
}

// ListAuditLogs implements store.Store.
func (m *Store) ListAuditLogs(_ context.Context, entityID string, q store.PageQuery) (*store.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var matched []*records.AuditLog
	for _, e := range m.auditLogs {
		if e.EntityID == entityID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp < matched[j].Timestamp
		}
		return matched[i].LogID < matched[j].LogID
	})

	window, nextToken, err := paginate(matched, q.Limit, q.NextToken, func(e *records.AuditLog) cursor {
		return cursor{SortKey: e.Timestamp, ID: e.LogID}
	})
	if err != nil {
		return nil, err
	}
	return itemsPage(window, nextToken)
}

func paginate[T any](matched []T, limit int32, token string, cursorOf func(T) cursor) ([]T, string, error) {
	start := 0
	if c, err := decodeCursor(token); err != nil {
		return nil, "", err
	} else if c != nil {
		for i, el := range matched {
			cur := cursorOf(el)
			if cur.SortKey > c.SortKey || (cur.SortKey == c.SortKey && cur.ID > c.ID) {
				start = i
				break
			}
			start = i + 1
		}
	}

	end := len(matched)
	if limit > 0 && start+int(limit) < end {
		end = start + int(limit)
	}
	window := matched[start:end]

	nextToken := ""
	if end < len(matched) && len(window) > 0 {
		nextToken = encodeCursor(cursorOf(window[len(window)-1]))
	}
	return window, nextToken, nil
}

func itemsPage[T any](window []T, nextToken string) (*store.Page, error) {
	page := &store.Page{Items: make([]map[string]any, 0, len(window)), NextToken: nextToken}
	for _, el := range window {
		item, err := toItem(el)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// toItem flattens a record to the plain-map shape the real store produces
// after attribute-value decoding.
func toItem(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return item, nil
}
