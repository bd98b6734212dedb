package services

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentDispatcher abstracts the external mobile-money gateway. The real
// implementation talks to the Daraja B2C/STK APIs; money movement is
// asynchronous and only observed via the reconciliation callbacks.
type PaymentDispatcher interface {
	// DispatchOutbound sends funds from the group account to a phone number
	// and returns the gateway's originator reference for later matching.
	DispatchOutbound(ctx context.Context, groupID string, destination string, amount decimal.Decimal, reason domain.EntryReason, correlationID string) (string, error)

	// InitiateCollection triggers an STK push asking the member to pay into
	// the group account. Returns the gateway checkout request id.
	InitiateCollection(ctx context.Context, groupID string, phone string, amount decimal.Decimal, accountReference string) (string, error)
}

// GroupMembership is the membership collaborator. Quorum is always evaluated
// against its live counts, never a snapshot.
type GroupMembership interface {
	ListMembers(ctx context.Context, groupID string) ([]string, error)
	TotalCount(ctx context.Context, groupID string) (int, error)
}

// EventPublisher emits treasury domain events (withdrawal completed, loan
// disbursed, repayment applied) to interested consumers. Fire-and-forget.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
