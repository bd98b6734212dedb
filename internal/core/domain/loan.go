package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the closed set of loan lifecycle states.
type LoanStatus string

const (
	LoanPending         LoanStatus = "PENDING"
	LoanApproved        LoanStatus = "APPROVED"
	LoanDisbursed       LoanStatus = "DISBURSED"
	LoanPartiallyRepaid LoanStatus = "PARTIALLY_REPAID"
	LoanRepaid          LoanStatus = "REPAID"
	LoanRejected        LoanStatus = "REJECTED"
)

// ErrInvalidLoanTransition is returned when a status change is not in the
// loan transition table.
var ErrInvalidLoanTransition = errors.New("invalid loan status transition")

// loanTransitions is the exhaustive transition table. Anything absent is rejected.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:         {LoanApproved, LoanRejected},
	LoanApproved:        {LoanDisbursed},
	LoanDisbursed:       {LoanPartiallyRepaid, LoanRepaid},
	LoanPartiallyRepaid: {LoanPartiallyRepaid, LoanRepaid},
}

// InterestFrequency is the compounding period of a loan.
type InterestFrequency string

const (
	FrequencyDaily   InterestFrequency = "DAILY"
	FrequencyMonthly InterestFrequency = "MONTHLY"
	FrequencyYearly  InterestFrequency = "YEARLY"
)

// PeriodDays returns the length of one compounding period in days.
// Monthly and yearly periods are fixed at 30 and 365 days.
func (f InterestFrequency) PeriodDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyMonthly:
		return 30
	case FrequencyYearly:
		return 365
	}
	return 0
}

// ValidInterestFrequency reports whether f is a known compounding frequency.
func ValidInterestFrequency(f InterestFrequency) bool {
	return f.PeriodDays() > 0
}

// Loan is interpretive state layered on the ledger: principal lent to a member,
// the remaining balance, and the compounding terms agreed at disbursement.
type Loan struct {
	LoanID               string            `json:"loanID"`  // Primary Key (UUID)
	GroupID              string            `json:"groupID"` // FK -> Group (Not Null)
	BorrowerID           string            `json:"borrowerID"`
	Principal            decimal.Decimal   `json:"principal"`
	OutstandingPrincipal decimal.Decimal   `json:"outstandingPrincipal"` // Remaining balance incl. accrued interest already rolled in
	InterestRate         decimal.Decimal   `json:"interestRate"`         // Per-period rate, e.g. 0.05
	InterestFrequency    InterestFrequency `json:"interestFrequency"`
	Status               LoanStatus        `json:"status"`
	DisbursedAt          *time.Time        `json:"disbursedAt"`
	ExternalReference    *string           `json:"externalReference"` // Gateway originator reference for the disbursement
	EntryID              *string           `json:"entryID"`           // DEBIT ledger entry of the disbursement
	AuditFields
}

// CanTransition reports whether moving from the loan's current status to the
// target is permitted by the transition table.
func (l *Loan) CanTransition(to LoanStatus) bool {
	for _, allowed := range loanTransitions[l.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the loan to the target status or fails with
// ErrInvalidLoanTransition.
func (l *Loan) Transition(to LoanStatus) error {
	if !l.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidLoanTransition, l.Status, to)
	}
	l.Status = to
	return nil
}

// RepaymentEligible reports whether a repayment may be applied to the loan.
func (l *Loan) RepaymentEligible() bool {
	return l.Status == LoanDisbursed || l.Status == LoanPartiallyRepaid
}

// AccruedDue returns the total amount owed on the loan as of the given time:
// principal compounded once per elapsed period. Rounding is half-to-even
// (banker's rounding) at 2 decimal places, applied once after compounding.
func (l *Loan) AccruedDue(asOf time.Time) decimal.Decimal {
	if l.DisbursedAt == nil || asOf.Before(*l.DisbursedAt) {
		return l.Principal.RoundBank(2)
	}
	days := int(asOf.Sub(*l.DisbursedAt).Hours() / 24)
	periods := days / l.InterestFrequency.PeriodDays()
	if periods <= 0 {
		return l.Principal.RoundBank(2)
	}
	factor := decimal.NewFromInt(1).Add(l.InterestRate).Pow(decimal.NewFromInt(int64(periods)))
	return l.Principal.Mul(factor).RoundBank(2)
}

// OutstandingBalance returns what remains owed as of the given time: the
// accrued due minus everything already repaid, floored at zero.
func (l *Loan) OutstandingBalance(asOf time.Time) decimal.Decimal {
	repaid := l.Principal.Sub(l.OutstandingPrincipal)
	balance := l.AccruedDue(asOf).Sub(repaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// ApplyRepayment reduces the loan by amount as of the given time and moves the
// status to REPAID or PARTIALLY_REPAID. Callers must hold the loan row lock and
// have passed the external-reference idempotency guard; applying the same
// payment twice would double-reduce the balance.
func (l *Loan) ApplyRepayment(amount decimal.Decimal, asOf time.Time) error {
	if !l.RepaymentEligible() {
		return fmt.Errorf("%w: repayment on %s loan", ErrInvalidLoanTransition, l.Status)
	}
	remaining := l.OutstandingBalance(asOf).Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	l.OutstandingPrincipal = remaining
	if remaining.IsZero() {
		return l.Transition(LoanRepaid)
	}
	return l.Transition(LoanPartiallyRepaid)
}
