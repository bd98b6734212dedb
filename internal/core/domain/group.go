package domain

import "github.com/shopspring/decimal"

// Group holds the treasury configuration of a savings group. Membership itself
// is owned by the membership collaborator; this record carries only what the
// treasury needs: lending terms and the paybill the gateway collects into.
type Group struct {
	GroupID               string            `json:"groupID"` // Primary Key (UUID)
	Name                  string            `json:"name"`
	AdminID               string            `json:"adminID"`
	LoanInterestRate      decimal.Decimal   `json:"loanInterestRate"` // Per-period rate applied to new loans
	LoanInterestFrequency InterestFrequency `json:"loanInterestFrequency"`
	MpesaShortcode        string            `json:"mpesaShortcode"` // Paybill/shortcode funds move through
	AuditFields
}

// Member is the treasury's read-only view of a group member.
type Member struct {
	MemberID string `json:"memberID"`
	GroupID  string `json:"groupID"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsAdmin  bool   `json:"isAdmin"`
}
