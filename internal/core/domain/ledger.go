package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection indicates whether a ledger entry credits or debits the group account.
type EntryDirection string

const (
	Credit EntryDirection = "CREDIT"
	Debit  EntryDirection = "DEBIT"
)

// EntryReason is the closed set of machine-matched reasons a ledger entry can
// carry. All branching uses this enum; free-text lives in Description.
type EntryReason string

const (
	ReasonContribution     EntryReason = "CONTRIBUTION"
	ReasonWithdrawal       EntryReason = "WITHDRAWAL"
	ReasonLoanDisbursement EntryReason = "LOAN_DISBURSEMENT"
	ReasonLoanRepayment    EntryReason = "LOAN_REPAYMENT"
)

// ValidEntryReason reports whether r is one of the closed reason values.
func ValidEntryReason(r EntryReason) bool {
	switch r {
	case ReasonContribution, ReasonWithdrawal, ReasonLoanDisbursement, ReasonLoanRepayment:
		return true
	}
	return false
}

// LedgerEntry is a single immutable credit or debit against a group account.
// The ledger is append-only; the sum of credits minus qualifying debits for a
// group is its cash at hand.
type LedgerEntry struct {
	EntryID           string          `json:"entryID"`  // Primary Key (UUID)
	GroupID           string          `json:"groupID"`  // FK -> Group (Not Null)
	MemberID          *string         `json:"memberID"` // Nullable for group-level entries
	Amount            decimal.Decimal `json:"amount"`   // Positive value
	Direction         EntryDirection  `json:"direction"`
	Reason            EntryReason     `json:"reason"`
	Description       string          `json:"description"`       // Free-text, display only
	ExternalReference *string         `json:"externalReference"` // Gateway receipt/reference, unique per group
	EntryDate         time.Time       `json:"entryDate"`
	AuditFields
}
