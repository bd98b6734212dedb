package services

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade exposes the append-only ledger and the entitlement
// calculator derived from it.
type LedgerSvcFacade interface {
	// RecordEntry appends a validated ledger entry.
	RecordEntry(ctx context.Context, req dto.RecordEntryRequest) (*domain.LedgerEntry, error)

	// InitiateContribution starts a gateway collection (STK push) for the
	// member's contribution. The ledger only changes when the confirmation
	// callback arrives.
	InitiateContribution(ctx context.Context, groupID string, memberID string, amount decimal.Decimal) (string, error)

	// CashAtHand returns the group's spendable balance.
	CashAtHand(ctx context.Context, groupID string) (decimal.Decimal, error)

	// MemberEntitlement returns the member's proportional claim on the
	// group's lending capacity. Fails with apperrors.ErrInsufficientFunds
	// when the group has nothing to lend.
	MemberEntitlement(ctx context.Context, groupID string, memberID string) (decimal.Decimal, error)

	// AccountSummary aggregates the member's view of the treasury.
	AccountSummary(ctx context.Context, groupID string, memberID string) (*dto.AccountSummaryResponse, error)

	// ListContributions returns the member's contribution entries, newest first.
	ListContributions(ctx context.Context, groupID string, memberID string, limit int) ([]dto.LedgerEntryResponse, error)
}
