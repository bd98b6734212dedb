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
	"github.com/shopspring/decimal"
)

// PgxLedgerRepository persists the append-only group ledger.
type PgxLedgerRepository struct {
	BaseRepository
}

// NewPgxLedgerRepository creates a new repository for ledger entries.
func NewPgxLedgerRepository(pool DBPool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const ledgerEntryColumns = `entry_id, group_id, member_id, amount, direction, reason, description, external_reference, entry_date, created_at, created_by, last_updated_at, last_updated_by`

const insertLedgerEntryQuery = `
	INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`

// SaveEntry appends a ledger entry. The unique index on
// (group_id, external_reference) turns gateway replays into ErrDuplicate.
func (r *PgxLedgerRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry) error {
	m := mapping.ToModelLedgerEntry(entry)
	_, err := r.Pool.Exec(ctx, insertLedgerEntryQuery,
		m.EntryID, m.GroupID, m.MemberID, m.Amount, m.Direction, m.Reason,
		m.Description, m.ExternalReference, m.EntryDate,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_ledger_entries_group_reference") {
			return fmt.Errorf("%w: external reference already recorded for group %s", apperrors.ErrDuplicate, m.GroupID)
		}
		return apperrors.NewAppError(500, "failed to insert ledger entry "+m.EntryID, err)
	}
	return nil
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID, &m.GroupID, &m.MemberID, &m.Amount, &m.Direction, &m.Reason,
		&m.Description, &m.ExternalReference, &m.EntryDate,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindEntryByID retrieves a ledger entry by its id.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE entry_id = $1;`
	m, err := scanLedgerEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find ledger entry "+entryID, err)
	}
	entry := mapping.ToDomainLedgerEntry(*m)
	return &entry, nil
}

// FindEntryByReference retrieves a ledger entry by its external reference.
func (r *PgxLedgerRepository) FindEntryByReference(ctx context.Context, groupID string, reference string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE group_id = $1 AND external_reference = $2;`
	m, err := scanLedgerEntry(r.Pool.QueryRow(ctx, query, groupID, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find ledger entry by reference", err)
	}
	entry := mapping.ToDomainLedgerEntry(*m)
	return &entry, nil
}

// FindEntriesByIDs batch-fetches entries keyed by entry id.
func (r *PgxLedgerRepository) FindEntriesByIDs(ctx context.Context, entryIDs []string) (map[string]domain.LedgerEntry, error) {
	result := make(map[string]domain.LedgerEntry, len(entryIDs))
	if len(entryIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE entry_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries by ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		result[m.EntryID] = mapping.ToDomainLedgerEntry(*m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}
	return result, nil
}

// CashAtHand computes credits minus qualifying debits in a single aggregate.
// Withdrawal debits only count while their owning request is APPROVED or
// COMPLETED; debits of FAILED or CANCELLED requests never moved money.
func (r *PgxLedgerRepository) CashAtHand(ctx context.Context, groupID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN le.direction = 'CREDIT' THEN le.amount
				WHEN le.direction = 'DEBIT' AND le.reason = 'LOAN_DISBURSEMENT' THEN -le.amount
				WHEN le.direction = 'DEBIT' AND le.reason = 'WITHDRAWAL'
					AND wr.status IN ('APPROVED', 'COMPLETED') THEN -le.amount
				ELSE 0
			END), 0)
		FROM ledger_entries le
		LEFT JOIN withdrawal_requests wr ON wr.entry_id = le.entry_id
		WHERE le.group_id = $1;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, groupID).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to compute cash at hand for group "+groupID, err)
	}
	return total, nil
}

// TotalContributions sums CONTRIBUTION credits for the whole group.
func (r *PgxLedgerRepository) TotalContributions(ctx context.Context, groupID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE group_id = $1 AND direction = 'CREDIT' AND reason = 'CONTRIBUTION';
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, groupID).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum contributions for group "+groupID, err)
	}
	return total, nil
}

// MemberContributions sums CONTRIBUTION credits for one member.
func (r *PgxLedgerRepository) MemberContributions(ctx context.Context, groupID string, memberID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE group_id = $1 AND member_id = $2 AND direction = 'CREDIT' AND reason = 'CONTRIBUTION';
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, groupID, memberID).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum member contributions", err)
	}
	return total, nil
}

// ListMemberEntries returns a member's entries, newest first, optionally
// filtered by reason.
func (r *PgxLedgerRepository) ListMemberEntries(ctx context.Context, groupID string, memberID string, reason *domain.EntryReason, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE group_id = $1 AND member_id = $2`
	args := []any{groupID, memberID}
	if reason != nil {
		query += ` AND reason = $3`
		args = append(args, string(*reason))
	}
	query += fmt.Sprintf(` ORDER BY entry_date DESC, entry_id DESC LIMIT $%d;`, len(args)+1)
	args = append(args, limit)

	return r.listEntries(ctx, query, args...)
}

// ListGroupEntries returns the group's entries, newest first.
func (r *PgxLedgerRepository) ListGroupEntries(ctx context.Context, groupID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE group_id = $1 ORDER BY entry_date DESC, entry_id DESC LIMIT $2;`
	return r.listEntries(ctx, query, groupID, limit)
}

func (r *PgxLedgerRepository) listEntries(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		m, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}
	return mapping.ToDomainLedgerEntrySlice(entries), nil
}
