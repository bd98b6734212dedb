package dto

import (
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordEntryRequest is the service-level input for appending a ledger entry.
type RecordEntryRequest struct {
	GroupID           string
	MemberID          *string
	Amount            decimal.Decimal
	Direction         domain.EntryDirection
	Reason            domain.EntryReason
	Description       string
	ExternalReference *string
	RecordedBy        string
}

// LedgerEntryResponse is the API view of a ledger entry.
type LedgerEntryResponse struct {
	EntryID           string          `json:"entryID"`
	MemberID          *string         `json:"memberID,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Direction         string          `json:"direction"`
	Reason            string          `json:"reason"`
	Description       string          `json:"description,omitempty"`
	ExternalReference *string         `json:"externalReference,omitempty"`
	EntryDate         time.Time       `json:"entryDate"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its API view.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:           e.EntryID,
		MemberID:          e.MemberID,
		Amount:            e.Amount,
		Direction:         string(e.Direction),
		Reason:            string(e.Reason),
		Description:       e.Description,
		ExternalReference: e.ExternalReference,
		EntryDate:         e.EntryDate,
	}
}

// AccountSummaryResponse aggregates a member's view of the group treasury.
type AccountSummaryResponse struct {
	GroupID             string          `json:"groupID"`
	CashAtHand          decimal.Decimal `json:"cashAtHand"`
	TotalContributions  decimal.Decimal `json:"totalContributions"`
	MemberContributions decimal.Decimal `json:"memberContributions"`
	Entitlement         decimal.Decimal `json:"entitlement"`
	OutstandingLoans    decimal.Decimal `json:"outstandingLoans"`
}

// ContributeRequest asks the gateway to collect a contribution from the caller.
type ContributeRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CollectionInitiatedResponse returns the gateway checkout reference for an
// STK push the member must complete on their handset.
type CollectionInitiatedResponse struct {
	CheckoutRequestID string `json:"checkoutRequestID"`
	Message           string `json:"message"`
}
