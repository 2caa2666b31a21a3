// Command setup provisions the DynamoDB tables and indexes the handlers
// depend on. Intended for local DynamoDB and fresh environments; existing
// tables are left untouched.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tranzor/tranzor-core/internal/config"
	ddb "github.com/tranzor/tranzor-core/pkg/store/dynamodb"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		log.Fatalf("Unable to load SDK config: %v", err)
	}
	if cfg.AWS.DynamoDBEndpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: cfg.AWS.DynamoDBEndpoint, SigningRegion: cfg.AWS.Region}, nil
			})
	}
	client := dynamodb.NewFromConfig(awsCfg)

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"all"}
	}

	for _, table := range args {
		switch strings.ToLower(table) {
		case "all":
			createTransactionsTable(client, cfg)
			createFraudChecksTable(client, cfg)
			createAuditLogsTable(client, cfg)
			return
		case "transactions":
			createTransactionsTable(client, cfg)
		case "fraudchecks":
			createFraudChecksTable(client, cfg)
		case "auditlogs":
			createAuditLogsTable(client, cfg)
		default:
			log.Fatalf("Unknown table: %s", table)
		}
	}
}

func createTransactionsTable(client *dynamodb.Client, cfg *config.Config) {
	createTable(client, &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.Tables.Transactions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("transactionId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("accountId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("receivedTimestamp"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("transactionId"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("accountId"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(ddb.AccountReceivedIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("accountId"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("receivedTimestamp"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
}

func createFraudChecksTable(client *dynamodb.Client, cfg *config.Config) {
	createTable(client, &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.Tables.FraudChecks),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("fraudCheckId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("transactionId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("timestamp"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("fraudCheckId"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(ddb.FraudByTransactionIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("transactionId"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("timestamp"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
}

func createAuditLogsTable(client *dynamodb.Client, cfg *config.Config) {
	createTable(client, &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.Tables.AuditLogs),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("logId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("entityId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("timestamp"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("logId"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(ddb.AuditByEntityIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("entityId"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("timestamp"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
}

func createTable(client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	name := aws.ToString(input.TableName)
	log.Printf("Creating table %s...", name)

	_, err := client.CreateTable(context.Background(), input)
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			log.Printf("Table %s already exists, skipping", name)
			return
		}
		log.Fatalf("Failed to create table %s: %v", name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	err = waiter.Wait(context.Background(), &dynamodb.DescribeTableInput{
		TableName: input.TableName,
	}, 5*time.Minute)
	if err != nil {
		log.Fatalf("Failed to wait for table %s creation: %v", name, err)
	}

	log.Printf("Table %s created", name)
}
