package services

import (
	"context"

	"github.com/chamahub/treasury/internal/dto"
	"github.com/shopspring/decimal"
)

// LoanSvcFacade exposes loan issuance, repayment initiation and listing.
type LoanSvcFacade interface {
	// RequestLoan checks the borrower's entitlement, creates the loan and
	// dispatches the disbursement. Fails with apperrors.ErrInsufficientFunds
	// when the amount exceeds the borrower's remaining capacity; a dispatch
	// failure surfaces apperrors.ErrExternalGateway with the loan already
	// recorded for operator reconciliation.
	RequestLoan(ctx context.Context, groupID string, borrowerID string, amount decimal.Decimal) (*dto.LoanResponse, error)

	// InitiateRepayment starts a gateway collection (STK push) towards the
	// borrower; the balance only changes when the confirmation callback
	// arrives.
	InitiateRepayment(ctx context.Context, memberID string, amount decimal.Decimal) (string, error)

	// ListMemberLoans returns the member's loans with live accrued balances.
	ListMemberLoans(ctx context.Context, groupID string, memberID string) ([]dto.LoanResponse, error)
}
