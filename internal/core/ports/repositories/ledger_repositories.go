package repositories

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerRepositoryFacade defines persistence operations for the append-only
// group ledger. Entries are immutable once saved.
type LedgerRepositoryFacade interface {
	// SaveEntry appends a ledger entry. A duplicate external reference for the
	// group fails with apperrors.ErrDuplicate, enforced by a storage-level
	// unique constraint so racing gateway replays cannot both land.
	SaveEntry(ctx context.Context, entry domain.LedgerEntry) error

	// FindEntryByReference looks up an entry by its gateway reference.
	FindEntryByReference(ctx context.Context, groupID string, reference string) (*domain.LedgerEntry, error)

	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// FindEntriesByIDs batch-fetches entries keyed by entry id.
	FindEntriesByIDs(ctx context.Context, entryIDs []string) (map[string]domain.LedgerEntry, error)

	// CashAtHand computes credits minus qualifying debits for the group:
	// withdrawal debits count only while their request is APPROVED or
	// COMPLETED; loan disbursement debits always count.
	CashAtHand(ctx context.Context, groupID string) (decimal.Decimal, error)

	// TotalContributions sums CONTRIBUTION credits for the whole group.
	TotalContributions(ctx context.Context, groupID string) (decimal.Decimal, error)

	// MemberContributions sums CONTRIBUTION credits for one member.
	MemberContributions(ctx context.Context, groupID string, memberID string) (decimal.Decimal, error)

	// ListMemberEntries returns a member's entries, newest first.
	ListMemberEntries(ctx context.Context, groupID string, memberID string, reason *domain.EntryReason, limit int) ([]domain.LedgerEntry, error)

	// ListGroupEntries returns the group's entries, newest first.
	ListGroupEntries(ctx context.Context, groupID string, limit int) ([]domain.LedgerEntry, error)
}
