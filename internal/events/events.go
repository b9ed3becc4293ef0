package events

import (
	"context"
	"time"
)

// Type lifecycle event type
type Type string

const (
	TransferSent      Type = "transfer.sent"
	TransferBroadcast Type = "transfer.broadcast"
	TransferConfirmed Type = "transfer.confirmed"
	TransferFailed    Type = "transfer.failed"
	TransferError     Type = "transfer.error"

	TransactionValidated Type = "transaction.validated"
	TransactionRejected  Type = "transaction.rejected"
)

// Event payload published for transfer and validation lifecycle changes
type Event struct {
	Type       Type      `json:"type"`
	TransferID string    `json:"transfer_id,omitempty"`
	TxHash     string    `json:"tx_hash"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Asset      string    `json:"asset,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Status     string    `json:"status,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	GasUsed    *uint64   `json:"gas_used,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers lifecycle events. Implementations must be safe for concurrent use
// and must not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// MultiPublisher fans an event out to several publishers, returning the first error
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
