// Package dynamodb implements the record store on AWS DynamoDB. Transactions
// are keyed by (transactionId, accountId); fraud checks and audit logs live
// in their own tables and are reached through global secondary indexes.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tranzor/tranzor-core/pkg/attrcodec"
	"github.com/tranzor/tranzor-core/pkg/records"
	"github.com/tranzor/tranzor-core/pkg/store"
)

// Index names, shared with the provisioning tool.
const (
	AccountReceivedIndex    = "AccountId-ReceivedTimestamp-index"
	FraudByTransactionIndex = "TransactionId-Timestamp-index"
	AuditByEntityIndex      = "EntityId-Timestamp-index"
)

const conditionalCheckFailed = "ConditionalCheckFailed"

// Config holds the settings for a DynamoDB store
type Config struct {
	Region            string
	TransactionsTable string
	FraudChecksTable  string
	AuditLogsTable    string
	Endpoint          string
}

// Store is the DynamoDB implementation of store.Store
type Store struct {
	client       *dynamodb.Client
	transactions string
	fraudChecks  string
	auditLogs    string
}

var _ store.Store = (*Store)(nil)

// New creates a DynamoDB store from the given configuration. A non-empty
// Endpoint overrides the SDK's resolution, e.g. for local DynamoDB.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		})
		awsCfg.EndpointResolverWithOptions = customResolver
	}

	return NewFromClient(dynamodb.NewFromConfig(awsCfg), cfg), nil
}

// NewFromClient wraps an existing DynamoDB client.
func NewFromClient(client *dynamodb.Client, cfg Config) *Store {
	return &Store{
		client:       client,
		transactions: cfg.TransactionsTable,
		fraudChecks:  cfg.FraudChecksTable,
		auditLogs:    cfg.AuditLogsTable,
	}
}

// CreateTransactionPair implements store.Store.
func (s *Store) CreateTransactionPair(ctx context.Context, sender, receiver *records.Transaction) error {
	items := make([]types.TransactWriteItem, 0, 2)
	for _, tx := range []*records.Transaction{sender, receiver} {
		item, err := attributevalue.MarshalMap(tx)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.transactions),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(transactionId) AND attribute_not_exists(accountId)"),
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if hasConditionalCheckFailure(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("TransactWriteItems operation failed: %w", err)
	}
	return nil
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(ctx context.Context, transactionID, accountID string) (*records.Transaction, error) {
	result, err := s.getItem(ctx, transactionID, accountID)
	if err != nil {
		return nil, err
	}

	var tx records.Transaction
	if err := attributevalue.UnmarshalMap(result, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

// GetTransactionItem implements store.Store.
func (s *Store) GetTransactionItem(ctx context.Context, transactionID, accountID string) (map[string]any, error) {
	result, err := s.getItem(ctx, transactionID, accountID)
	if err != nil {
		return nil, err
	}
	return attrcodec.DecodeItem(result), nil
}

func (s *Store) getItem(ctx context.Context, transactionID, accountID string) (map[string]types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.transactions),
		Key: map[string]types.AttributeValue{
			"transactionId": &types.AttributeValueMemberS{Value: transactionID},
			"accountId":     &types.AttributeValueMemberS{Value: accountID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem operation failed: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, store.ErrNotFound
	}
	return result.Item, nil
}

// TrySettle implements store.Store. The fraud check put and both
// participant-record updates ride a single transact write so a lost
// compare-and-swap race cancels the fraud check as well.
func (s *Store) TrySettle(ctx context.Context, st store.Settlement) (bool, error) {
	checkItem := map[string]types.AttributeValue{
		"fraudCheckId":  &types.AttributeValueMemberS{Value: st.Check.FraudCheckID},
		"transactionId": &types.AttributeValueMemberS{Value: st.Check.TransactionID},
		"score":         &types.AttributeValueMemberN{Value: st.Check.Score},
		"status":        &types.AttributeValueMemberS{Value: string(st.Check.Status)},
		"details":       &types.AttributeValueMemberS{Value: st.Check.Details},
		"timestamp":     &types.AttributeValueMemberS{Value: st.Check.Timestamp},
	}

	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName: aws.String(s.fraudChecks),
				Item:      checkItem,
			},
		},
	}
	for _, accountID := range []string{st.SenderAccountID, st.ReceiverAccountID} {
		items = append(items, s.settleUpdate(st, accountID))
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if hasConditionalCheckFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("TransactWriteItems operation failed: %w", err)
	}
	return true, nil
}

func (s *Store) settleUpdate(st store.Settlement, accountID string) types.TransactWriteItem {
	update := "SET #status = :s, processedTimestamp = :ts, updatedAt = :ts, fraudCheckId = :fc"
	values := map[string]types.AttributeValue{
		":s":       &types.AttributeValueMemberS{Value: string(st.Status)},
		":ts":      &types.AttributeValueMemberS{Value: st.ProcessedTimestamp},
		":fc":      &types.AttributeValueMemberS{Value: st.Check.FraudCheckID},
		":pending": &types.AttributeValueMemberS{Value: string(records.StatusPending)},
	}
	if st.StatusReason != "" {
		update += ", statusReason = :r"
		values[":r"] = &types.AttributeValueMemberS{Value: st.StatusReason}
	}

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.transactions),
			Key: map[string]types.AttributeValue{
				"transactionId": &types.AttributeValueMemberS{Value: st.TransactionID},
				"accountId":     &types.AttributeValueMemberS{Value: accountID},
			},
			UpdateExpression:          aws.String(update),
			ConditionExpression:       aws.String("#status = :pending"),
			ExpressionAttributeNames:  map[string]string{"#status": "status"},
			ExpressionAttributeValues: values,
		},
	}
}

// AppendAuditLog implements store.Store.
func (s *Store) AppendAuditLog(ctx context.Context, entry *records.AuditLog) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.auditLogs),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem operation failed: %w", err)
	}
	return nil
}

// ListAccountTransactions implements store.Store.
func (s *Store) ListAccountTransactions(ctx context.Context, accountID string, q store.ListQuery) (*store.Page, error) {
	keyCond := "#accountId = :accountId"
	names := map[string]string{"#accountId": "accountId"}
	values := map[string]types.AttributeValue{
		":accountId": &types.AttributeValueMemberS{Value: accountID},
	}

	switch {
	case q.StartDate != "" && q.EndDate != "":
		keyCond += " AND #receivedTimestamp BETWEEN :start AND :end"
		names["#receivedTimestamp"] = "receivedTimestamp"
		values[":start"] = &types.AttributeValueMemberS{Value: q.StartDate}
		values[":end"] = &types.AttributeValueMemberS{Value: q.EndDate}
	case q.StartDate != "":
		keyCond += " AND #receivedTimestamp >= :start"
		names["#receivedTimestamp"] = "receivedTimestamp"
		values[":start"] = &types.AttributeValueMemberS{Value: q.StartDate}
	case q.EndDate != "":
		keyCond += " AND #receivedTimestamp <= :end"
		names["#receivedTimestamp"] = "receivedTimestamp"
		values[":end"] = &types.AttributeValueMemberS{Value: q.EndDate}
	}

	var filters []string
	if q.Status != "" {
		filters = append(filters, "#status = :status")
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: q.Status}
	}
	if q.TransactionType != "" {
		filters = append(filters, "#transactionType = :type")
		names["#transactionType"] = "transactionType"
		values[":type"] = &types.AttributeValueMemberS{Value: q.TransactionType}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.transactions),
		IndexName:                 aws.String(AccountReceivedIndex),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(true),
	}
	if len(filters) > 0 {
		input.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}

	return s.queryPage(ctx, input, q.Limit, q.NextToken)
}

// ListFraudChecks implements store.Store.
func (s *Store) ListFraudChecks(ctx context.Context, transactionID string, q store.PageQuery) (*store.Page, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.fraudChecks),
		IndexName:              aws.String(FraudByTransactionIndex),
		KeyConditionExpression: aws.String("transactionId = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: transactionID},
		},
		ScanIndexForward: aws.Bool(true),
	}
	return s.queryPage(ctx, input, q.Limit, q.NextToken)
}

// ListAuditLogs implements store.Store.
func (s *Store) ListAuditLogs(ctx context.Context, entityID string, q store.PageQuery) (*store.Page, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.auditLogs),
		IndexName:              aws.String(AuditByEntityIndex),
		KeyConditionExpression: aws.String("entityId = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: entityID},
		},
		ScanIndexForward: aws.Bool(true),
	}
	return s.queryPage(ctx, input, q.Limit, q.NextToken)
}

func (s *Store) queryPage(ctx context.Context, input *dynamodb.QueryInput, limit int32, nextToken string) (*store.Page, error) {
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	startKey, err := attrcodec.DecodeToken(nextToken)
	if err != nil {
		return nil, err
	}
	input.ExclusiveStartKey = startKey

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("Query operation failed: %w", err)
	}

	page := &store.Page{Items: make([]map[string]any, 0, len(result.Items))}
	for _, item := range result.Items {
		page.Items = append(page.Items, attrcodec.DecodeItem(item))
	}
	page.NextToken, err = attrcodec.EncodeToken(result.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// hasConditionalCheckFailure reports whether err is a canceled transact
// write in which at least one item's condition expression failed.
func hasConditionalCheckFailure(err error) bool {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == conditionalCheckFailed {
				return true
			}
		}
	}
	var condFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condFailed)
}
