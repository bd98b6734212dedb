package repositories

import (
	"context"
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LoanRepositoryFacade defines persistence operations for loans.
type LoanRepositoryFacade interface {
	SaveLoan(ctx context.Context, loan domain.Loan) error

	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// FindLoanByReference looks up a loan by the gateway originator reference
	// stored at disbursement dispatch.
	FindLoanByReference(ctx context.Context, reference string) (*domain.Loan, error)

	// UpdateLoan persists mutable loan fields (status, outstanding principal,
	// references, disbursement time).
	UpdateLoan(ctx context.Context, loan domain.Loan) error

	// MarkDisbursed transitions the loan to DISBURSED, stamps the disbursement
	// time and links the DEBIT ledger entry, atomically with inserting that
	// entry.
	MarkDisbursed(ctx context.Context, loan domain.Loan, entry domain.LedgerEntry, disbursedAt time.Time) error

	// ApplyRepayment atomically records the given CREDIT ledger entry and
	// reduces the payer's active loan, serialized through a row lock on the
	// loan. A replayed external reference fails with apperrors.ErrDuplicate
	// before the loan is touched; a payer with no active loan fails with
	// apperrors.ErrNotFound and nothing is recorded.
	ApplyRepayment(ctx context.Context, entry domain.LedgerEntry, asOf time.Time) (*domain.Loan, error)

	// FindActiveLoanByBorrower returns the borrower's DISBURSED or
	// PARTIALLY_REPAID loan, if any.
	FindActiveLoanByBorrower(ctx context.Context, groupID string, borrowerID string) (*domain.Loan, error)

	// SumOutstandingByBorrower totals outstanding principal across the
	// borrower's active loans.
	SumOutstandingByBorrower(ctx context.Context, groupID string, borrowerID string) (decimal.Decimal, error)

	ListLoansByBorrower(ctx context.Context, groupID string, borrowerID string) ([]domain.Loan, error)
}
