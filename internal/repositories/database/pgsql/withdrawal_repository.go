package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/models"
	"github.com/chamahub/treasury/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxWithdrawalRepository persists withdrawal requests and their votes.
type PgxWithdrawalRepository struct {
	BaseRepository
}

// NewPgxWithdrawalRepository creates a new repository for withdrawal requests.
func NewPgxWithdrawalRepository(pool DBPool) portsrepo.WithdrawalRepositoryFacade {
	return &PgxWithdrawalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WithdrawalRepositoryFacade = (*PgxWithdrawalRepository)(nil)

const withdrawalColumns = `withdrawal_id, group_id, entry_id, status, approvals, rejections, external_reference, created_at, created_by, last_updated_at, last_updated_by`

const insertWithdrawalQuery = `
	INSERT INTO withdrawal_requests (` + withdrawalColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var m models.WithdrawalRequest
	err := row.Scan(
		&m.WithdrawalID, &m.GroupID, &m.EntryID, &m.Status, &m.Approvals,
		&m.Rejections, &m.ExternalReference,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateRequestWithEntry inserts the DEBIT ledger entry and the withdrawal
// request bound to it in one transaction. The partial unique index on
// (group_id) WHERE status = 'PENDING' rejects a second open request even when
// two creates race.
func (r *PgxWithdrawalRepository) CreateRequestWithEntry(ctx context.Context, entry domain.LedgerEntry, request domain.WithdrawalRequest) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	me := mapping.ToModelLedgerEntry(entry)
	_, err = tx.Exec(ctx, insertLedgerEntryQuery,
		me.EntryID, me.GroupID, me.MemberID, me.Amount, me.Direction, me.Reason,
		me.Description, me.ExternalReference, me.EntryDate,
		me.CreatedAt, me.CreatedBy, me.LastUpdatedAt, me.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_ledger_entries_group_reference") {
			return fmt.Errorf("%w: withdrawal reference already recorded", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert withdrawal entry", err)
	}

	mw := mapping.ToModelWithdrawalRequest(request)
	_, err = tx.Exec(ctx, insertWithdrawalQuery,
		mw.WithdrawalID, mw.GroupID, mw.EntryID, mw.Status, mw.Approvals,
		mw.Rejections, mw.ExternalReference,
		mw.CreatedAt, mw.CreatedBy, mw.LastUpdatedAt, mw.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_withdrawal_requests_pending_group") {
			return fmt.Errorf("%w: group %s already has a pending withdrawal", apperrors.ErrConflict, mw.GroupID)
		}
		return apperrors.NewAppError(500, "failed to insert withdrawal request "+mw.WithdrawalID, err)
	}

	return r.Commit(ctx, tx)
}

// RecordVote inserts the vote and applies quorum against live membership, all
// under a FOR UPDATE lock on the request row. Tallies come from COUNT over the
// votes table rather than incrementing counters, so two racing voters always
// leave the row consistent.
func (r *PgxWithdrawalRepository) RecordVote(ctx context.Context, vote domain.WithdrawalVote, totalMembers int) (*domain.WithdrawalRequest, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	lockQuery := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE withdrawal_id = $1 FOR UPDATE;`
	m, err := scanWithdrawal(tx.QueryRow(ctx, lockQuery, vote.WithdrawalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock withdrawal request "+vote.WithdrawalID, err)
	}

	request := mapping.ToDomainWithdrawalRequest(*m)
	if request.Status != domain.WithdrawalPending {
		return nil, fmt.Errorf("%w: withdrawal %s is %s, not open for voting", apperrors.ErrConflict, request.WithdrawalID, request.Status)
	}

	mv := mapping.ToModelWithdrawalVote(vote)
	insertVoteQuery := `
		INSERT INTO withdrawal_votes (vote_id, withdrawal_id, group_id, voter_id, choice, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.Exec(ctx, insertVoteQuery,
		mv.VoteID, mv.WithdrawalID, mv.GroupID, mv.VoterID, mv.Choice,
		mv.CreatedAt, mv.CreatedBy, mv.LastUpdatedAt, mv.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_withdrawal_votes_voter") {
			return nil, fmt.Errorf("%w: member %s already voted on withdrawal %s", apperrors.ErrDuplicate, mv.VoterID, mv.WithdrawalID)
		}
		return nil, apperrors.NewAppError(500, "failed to insert withdrawal vote", err)
	}

	tallyQuery := `
		SELECT
			COUNT(*) FILTER (WHERE choice = 'APPROVE'),
			COUNT(*) FILTER (WHERE choice = 'REJECT')
		FROM withdrawal_votes
		WHERE withdrawal_id = $1;
	`
	if err := tx.QueryRow(ctx, tallyQuery, vote.WithdrawalID).Scan(&request.Approvals, &request.Rejections); err != nil {
		return nil, apperrors.NewAppError(500, "failed to tally withdrawal votes", err)
	}

	if domain.QuorumReached(request.Approvals, totalMembers) {
		if err := request.Transition(domain.WithdrawalApproved); err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
		}
	} else if domain.QuorumReached(request.Rejections, totalMembers) {
		if err := request.Transition(domain.WithdrawalRejected); err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
		}
	}
	request.LastUpdatedAt = vote.LastUpdatedAt
	request.LastUpdatedBy = vote.VoterID

	updateQuery := `
		UPDATE withdrawal_requests
		SET status = $2, approvals = $3, rejections = $4, last_updated_at = $5, last_updated_by = $6
		WHERE withdrawal_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery,
		request.WithdrawalID, string(request.Status), request.Approvals,
		request.Rejections, request.LastUpdatedAt, request.LastUpdatedBy,
	); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update withdrawal tallies", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &request, nil
}

// TransitionStatus performs a compare-and-swap status change.
func (r *PgxWithdrawalRepository) TransitionStatus(ctx context.Context, withdrawalID string, from, to domain.WithdrawalStatus, updatedBy string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $3, last_updated_at = NOW(), last_updated_by = $4
		WHERE withdrawal_id = $1 AND status = $2;
	`
	tag, err := r.Pool.Exec(ctx, query, withdrawalID, string(from), string(to), updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to transition withdrawal "+withdrawalID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE withdrawal_id = $1);`, withdrawalID).Scan(&exists); err != nil {
			return apperrors.NewAppError(500, "failed to check withdrawal existence", err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: withdrawal %s is no longer %s", apperrors.ErrConflict, withdrawalID, from)
	}
	return nil
}

// SetExternalReference stores the gateway originator reference.
func (r *PgxWithdrawalRepository) SetExternalReference(ctx context.Context, withdrawalID string, reference string) error {
	query := `UPDATE withdrawal_requests SET external_reference = $2, last_updated_at = NOW() WHERE withdrawal_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, withdrawalID, reference)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set withdrawal reference", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindRequestByID retrieves a withdrawal request by its id.
func (r *PgxWithdrawalRepository) FindRequestByID(ctx context.Context, withdrawalID string) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE withdrawal_id = $1;`
	return r.findOne(ctx, query, withdrawalID)
}

// FindRequestByReference retrieves a withdrawal request by its originator
// reference.
func (r *PgxWithdrawalRepository) FindRequestByReference(ctx context.Context, reference string) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE external_reference = $1;`
	return r.findOne(ctx, query, reference)
}

// FindPendingByGroup returns the group's single pending request, if any.
func (r *PgxWithdrawalRepository) FindPendingByGroup(ctx context.Context, groupID string) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE group_id = $1 AND status = 'PENDING';`
	return r.findOne(ctx, query, groupID)
}

func (r *PgxWithdrawalRepository) findOne(ctx context.Context, query string, arg any) (*domain.WithdrawalRequest, error) {
	m, err := scanWithdrawal(r.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find withdrawal request", err)
	}
	request := mapping.ToDomainWithdrawalRequest(*m)
	return &request, nil
}

// ListRequestsByGroup returns the group's requests, newest first.
func (r *PgxWithdrawalRepository) ListRequestsByGroup(ctx context.Context, groupID string) ([]domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE group_id = $1 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query withdrawal requests", err)
	}
	defer rows.Close()

	requests := []models.WithdrawalRequest{}
	for rows.Next() {
		m, err := scanWithdrawal(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan withdrawal row", err)
		}
		requests = append(requests, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating withdrawal rows", err)
	}
	return mapping.ToDomainWithdrawalRequestSlice(requests), nil
}
