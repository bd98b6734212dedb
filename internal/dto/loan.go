package dto

import (
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RequestLoanRequest asks for a new loan against the caller's entitlement.
type RequestLoanRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RepayLoanRequest initiates a gateway collection towards the caller's
// outstanding loan.
type RepayLoanRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// LoanResponse is the API view of a loan including derived balances.
type LoanResponse struct {
	LoanID            string          `json:"loanID"`
	Principal         decimal.Decimal `json:"principal"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	InterestFrequency string          `json:"interestFrequency"`
	Status            string          `json:"status"`
	DisbursedAt       *time.Time      `json:"disbursedAt,omitempty"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	AccruedBalance    decimal.Decimal `json:"accruedBalance"`
}

// ToLoanResponse converts a domain.Loan to its API view, computing the
// accrued balance as of the given time.
func ToLoanResponse(l *domain.Loan, asOf time.Time) LoanResponse {
	return LoanResponse{
		LoanID:            l.LoanID,
		Principal:         l.Principal,
		InterestRate:      l.InterestRate,
		InterestFrequency: string(l.InterestFrequency),
		Status:            string(l.Status),
		DisbursedAt:       l.DisbursedAt,
		Outstanding:       l.OutstandingPrincipal,
		AccruedBalance:    l.OutstandingBalance(asOf),
	}
}
