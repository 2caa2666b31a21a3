// Package sqs implements the settlement queue publisher on AWS SQS.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/tranzor/tranzor-core/pkg/queue"
	"github.com/tranzor/tranzor-core/pkg/records"
)

// Publisher sends settlement messages to a single SQS queue.
type Publisher struct {
	client   *sqs.Client
	queueURL string
}

var _ queue.Publisher = (*Publisher)(nil)

// New creates a publisher for the given queue URL.
func New(ctx context.Context, region, queueURL string) (*Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &Publisher{
		client:   sqs.NewFromConfig(awsCfg),
		queueURL: queueURL,
	}, nil
}

// Publish implements queue.Publisher.
func (p *Publisher) Publish(ctx context.Context, msg *records.SettlementMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement message: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("SendMessage operation failed: %w", err)
	}
	return nil
}
