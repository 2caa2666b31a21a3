package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tranzor/tranzor-core/internal/config"
	"github.com/tranzor/tranzor-core/internal/intake"
	"github.com/tranzor/tranzor-core/internal/logging"
	queue "github.com/tranzor/tranzor-core/pkg/queue/sqs"
	store "github.com/tranzor/tranzor-core/pkg/store/dynamodb"
)

var handler *intake.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg)

	st, err := store.New(context.Background(), store.Config{
		Region:            cfg.AWS.Region,
		TransactionsTable: cfg.Tables.Transactions,
		FraudChecksTable:  cfg.Tables.FraudChecks,
		AuditLogsTable:    cfg.Tables.AuditLogs,
		Endpoint:          cfg.AWS.DynamoDBEndpoint,
	})
	if err != nil {
		fmt.Printf("Error creating store: %v\n", err)
		os.Exit(1)
	}

	pub, err := queue.New(context.Background(), cfg.AWS.Region, cfg.Queue.TransactionQueueURL)
	if err != nil {
		fmt.Printf("Error creating queue publisher: %v\n", err)
		os.Exit(1)
	}

	handler = intake.NewHandler(st, pub, logger)
}

func main() {
	lambda.Start(handler.Handle)
}
