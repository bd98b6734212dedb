package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan mirrors the loans table.
type Loan struct {
	LoanID               string
	GroupID              string
	BorrowerID           string
	Principal            decimal.Decimal
	OutstandingPrincipal decimal.Decimal
	InterestRate         decimal.Decimal
	InterestFrequency    string
	Status               string
	DisbursedAt          *time.Time
	ExternalReference    *string
	EntryID              *string
	AuditFields
}
