package repositories

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
)

// WithdrawalRepositoryFacade defines persistence operations for withdrawal
// requests and votes.
type WithdrawalRepositoryFacade interface {
	// CreateRequestWithEntry atomically inserts the DEBIT ledger entry and the
	// withdrawal request bound to it. A second pending request for the group
	// fails with apperrors.ErrConflict, enforced by a partial unique index so
	// two racing creates cannot both succeed.
	CreateRequestWithEntry(ctx context.Context, entry domain.LedgerEntry, request domain.WithdrawalRequest) error

	// RecordVote inserts the vote and, inside the same transaction with the
	// request row locked, recomputes both tallies by counting votes and
	// applies the quorum transition against totalMembers. A repeat vote fails
	// with apperrors.ErrDuplicate; a non-pending request with
	// apperrors.ErrConflict. The updated request is returned.
	RecordVote(ctx context.Context, vote domain.WithdrawalVote, totalMembers int) (*domain.WithdrawalRequest, error)

	// TransitionStatus performs a compare-and-swap status change, failing with
	// apperrors.ErrConflict when the request is no longer in the expected
	// status and apperrors.ErrNotFound when it does not exist.
	TransitionStatus(ctx context.Context, withdrawalID string, from, to domain.WithdrawalStatus, updatedBy string) error

	// SetExternalReference stores the gateway originator reference after a
	// successful dispatch.
	SetExternalReference(ctx context.Context, withdrawalID string, reference string) error

	FindRequestByID(ctx context.Context, withdrawalID string) (*domain.WithdrawalRequest, error)

	// FindRequestByReference looks up a request by its originator reference.
	FindRequestByReference(ctx context.Context, reference string) (*domain.WithdrawalRequest, error)

	// FindPendingByGroup returns the group's pending request, if any.
	FindPendingByGroup(ctx context.Context, groupID string) (*domain.WithdrawalRequest, error)

	ListRequestsByGroup(ctx context.Context, groupID string) ([]domain.WithdrawalRequest, error)
}
