// Package memory provides an in-memory queue.Publisher for tests.
package memory

import (
	"context"
	"sync"

	"github.com/tranzor/tranzor-core/pkg/queue"
	"github.com/tranzor/tranzor-core/pkg/records"
)

// Publisher records published settlement messages.
type Publisher struct {
	mu       sync.Mutex
	messages []records.SettlementMessage
	err      error
}

var _ queue.Publisher = (*Publisher)(nil)

// New instantiates an empty publisher.
func New() *Publisher {
	return &Publisher{}
}

// WithError configures the publisher to fail subsequent Publish calls.
func (p *Publisher) WithError(err error) *Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Messages returns copies of everything published so far.
func (p *Publisher) Messages() []records.SettlementMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]records.SettlementMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// Publish implements queue.Publisher.
func (p *Publisher) Publish(_ context.Context, msg *records.SettlementMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, *msg)
	return nil
}
