package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tranzor/tranzor-core/internal/auth"
	"github.com/tranzor/tranzor-core/internal/config"
	"github.com/tranzor/tranzor-core/internal/logging"
	"github.com/tranzor/tranzor-core/internal/readapi"
	store "github.com/tranzor/tranzor-core/pkg/store/dynamodb"
)

var handler *readapi.FraudChecksHandler

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

	handler = readapi.NewFraudChecksHandler(st, auth.NewVerifier(cfg.Auth.JWTSecret), logger)
}

func main() {
	lambda.Start(handler.Handle)
}
