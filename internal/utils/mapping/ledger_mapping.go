package mapping

import (
	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/models"
)

// ToModelLedgerEntry converts a domain ledger entry to its model form.
func ToModelLedgerEntry(e domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:           e.EntryID,
		GroupID:           e.GroupID,
		MemberID:          e.MemberID,
		Amount:            e.Amount,
		Direction:         string(e.Direction),
		Reason:            string(e.Reason),
		Description:       e.Description,
		ExternalReference: e.ExternalReference,
		EntryDate:         e.EntryDate,
		AuditFields:       ToModelAuditFields(e.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model ledger entry to its domain form.
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:           m.EntryID,
		GroupID:           m.GroupID,
		MemberID:          m.MemberID,
		Amount:            m.Amount,
		Direction:         domain.EntryDirection(m.Direction),
		Reason:            domain.EntryReason(m.Reason),
		Description:       m.Description,
		ExternalReference: m.ExternalReference,
		EntryDate:         m.EntryDate,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLedgerEntrySlice converts a slice of model entries.
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		out[i] = ToDomainLedgerEntry(m)
	}
	return out
}
