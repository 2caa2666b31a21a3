package queue

import (
	"context"

	"github.com/tranzor/tranzor-core/pkg/records"
)

// Publisher hands settlement work items to the queue collaborator. Delivery
// is at-least-once; consumers must tolerate redelivery.
type Publisher interface {
	Publish(ctx context.Context, msg *records.SettlementMessage) error
}
