package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Group mirrors the groups table.
type Group struct {
	GroupID               string
	Name                  string
	AdminID               string
	LoanInterestRate      decimal.Decimal
	LoanInterestFrequency string
	MpesaShortcode        string
	AuditFields
}

// Member mirrors the members table (owned by the membership collaborator).
type Member struct {
	MemberID string
	GroupID  string
	Name     string
	Phone    string
	IsAdmin  bool
}

// Notification mirrors the notifications table.
type Notification struct {
	NotificationID string
	MemberID       string
	GroupID        string
	Message        string
	Category       string
	Read           bool
	CreatedAt      time.Time
}
