package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry mirrors the ledger_entries table.
type LedgerEntry struct {
	EntryID           string
	GroupID           string
	MemberID          *string
	Amount            decimal.Decimal
	Direction         string
	Reason            string
	Description       string
	ExternalReference *string
	EntryDate         time.Time
	AuditFields
}
