package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config carries everything the lambda handlers and tools read from the
// environment. Table, queue, and secret names follow the deployment
// template's variable names.
type Config struct {
	AWS struct {
		Region           string `envconfig:"AWS_REGION" default:"us-east-1"`
		DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT"`
	}

	Tables struct {
		Transactions string `envconfig:"TRANSACTIONS_TABLE_NAME" default:"Transactions"`
		FraudChecks  string `envconfig:"FRAUD_CHECKS_TABLE_NAME" default:"FraudChecks"`
		AuditLogs    string `envconfig:"AUDIT_LOGS_TABLE_NAME" default:"AuditLogs"`
	}

	Queue struct {
		TransactionQueueURL string `envconfig:"TRANSACTION_QUEUE_URL"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"json"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
