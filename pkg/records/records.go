package records

// TransactionType categorizes a money movement request
type TransactionType string

const (
	// Transfer moves funds between two accounts held in the system
	Transfer TransactionType = "TRANSFER"
	// Payment represents a payment to an external party
	Payment TransactionType = "PAYMENT"
	// Deposit represents funds entering an account
	Deposit TransactionType = "DEPOSIT"
	// Withdrawal represents funds leaving an account
	Withdrawal TransactionType = "WITHDRAWAL"
	// Refund reverses an earlier payment
	Refund TransactionType = "REFUND"
)

// KnownTransactionType reports whether t is one of the supported types.
func KnownTransactionType(t TransactionType) bool {
	switch t {
	case Transfer, Payment, Deposit, Withdrawal, Refund:
		return true
	}
	return false
}

// Status represents the settlement state of a transaction
type Status string

const (
	// StatusPending is the initial state set by intake
	StatusPending Status = "Pending"
	// StatusApproved is the terminal state for transactions that passed the fraud check
	StatusApproved Status = "Approved"
	// StatusDeclined is the terminal state for transactions that failed the fraud check
	StatusDeclined Status = "Declined"
)

// Amount is a monetary value kept as strings to avoid floating-point drift
type Amount struct {
	Value    string `json:"value" dynamodbav:"value"`
	Currency string `json:"currency" dynamodbav:"currency"`
}

// Transaction is one participant's view of a money movement. Every
// transaction is materialized twice, once keyed by the sender account and
// once by the receiver account, so either side can be looked up without a
// secondary index scan.
type Transaction struct {
	TransactionID      string          `json:"transactionId" dynamodbav:"transactionId"`
	AccountID          string          `json:"accountId" dynamodbav:"accountId"`
	ReferenceID        string          `json:"referenceId" dynamodbav:"referenceId"`
	SenderAccountID    string          `json:"senderAccountId" dynamodbav:"senderAccountId"`
	ReceiverAccountID  string          `json:"receiverAccountId" dynamodbav:"receiverAccountId"`
	Amount             Amount          `json:"amount" dynamodbav:"amount"`
	TransactionType    TransactionType `json:"transactionType" dynamodbav:"transactionType"`
	Status             Status          `json:"status" dynamodbav:"status"`
	StatusReason       string          `json:"statusReason,omitempty" dynamodbav:"statusReason,omitempty"`
	Metadata           string          `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	ReceivedTimestamp  string          `json:"receivedTimestamp" dynamodbav:"receivedTimestamp"`
	UpdatedAt          string          `json:"updatedAt" dynamodbav:"updatedAt"`
	ProcessedTimestamp string          `json:"processedTimestamp,omitempty" dynamodbav:"processedTimestamp,omitempty"`
	FraudCheckID       string          `json:"fraudCheckId,omitempty" dynamodbav:"fraudCheckId,omitempty"`
}

// FraudCheck records the outcome of one risk evaluation. Score is kept as a
// fixed 4-decimal string; it is persisted as a numeric attribute.
type FraudCheck struct {
	FraudCheckID  string `json:"fraudCheckId" dynamodbav:"fraudCheckId"`
	TransactionID string `json:"transactionId" dynamodbav:"transactionId"`
	Score         string `json:"score" dynamodbav:"score"`
	Status        Status `json:"status" dynamodbav:"status"`
	Details       string `json:"details" dynamodbav:"details"`
	Timestamp     string `json:"timestamp" dynamodbav:"timestamp"`
}

// EventTransactionStatusUpdated is emitted after a settlement transition.
const EventTransactionStatusUpdated = "TransactionStatusUpdated"

// AuditLog is one append-only system event
type AuditLog struct {
	LogID     string `json:"logId" dynamodbav:"logId"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
	EventType string `json:"eventType" dynamodbav:"eventType"`
	EntityID  string `json:"entityId" dynamodbav:"entityId"`
	Details   string `json:"details" dynamodbav:"details"`
}

// SettlementMessage is the queue payload published by intake and consumed by
// the settlement worker.
type SettlementMessage struct {
	TransactionID     string          `json:"transactionId"`
	SenderAccountID   string          `json:"senderAccountId"`
	ReceiverAccountID string          `json:"receiverAccountId"`
	Amount            Amount          `json:"amount"`
	TransactionType   TransactionType `json:"transactionType"`
}
