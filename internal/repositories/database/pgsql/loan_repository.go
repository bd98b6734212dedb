package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/models"
	"github.com/chamahub/treasury/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PgxLoanRepository persists loans and their lifecycle transitions.
type PgxLoanRepository struct {
	BaseRepository
}

// NewPgxLoanRepository creates a new repository for loans.
func NewPgxLoanRepository(pool DBPool) portsrepo.LoanRepositoryFacade {
	return &PgxLoanRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

const loanColumns = `loan_id, group_id, borrower_id, principal, outstanding_principal, interest_rate, interest_frequency, status, disbursed_at, external_reference, entry_id, created_at, created_by, last_updated_at, last_updated_by`

const insertLoanQuery = `
	INSERT INTO loans (` + loanColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
`

const updateLoanQuery = `
	UPDATE loans
	SET outstanding_principal = $2, status = $3, disbursed_at = $4,
		external_reference = $5, entry_id = $6, last_updated_at = $7, last_updated_by = $8
	WHERE loan_id = $1;
`

// activeLoanStatuses are the statuses a repayment can still be applied to.
var activeLoanStatuses = []string{string(domain.LoanDisbursed), string(domain.LoanPartiallyRepaid)}

// SaveLoan inserts a new loan record.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	_, err := r.Pool.Exec(ctx, insertLoanQuery,
		m.LoanID, m.GroupID, m.BorrowerID, m.Principal, m.OutstandingPrincipal,
		m.InterestRate, m.InterestFrequency, m.Status, m.DisbursedAt,
		m.ExternalReference, m.EntryID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert loan "+m.LoanID, err)
	}
	return nil
}

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID, &m.GroupID, &m.BorrowerID, &m.Principal, &m.OutstandingPrincipal,
		&m.InterestRate, &m.InterestFrequency, &m.Status, &m.DisbursedAt,
		&m.ExternalReference, &m.EntryID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindLoanByID retrieves a loan by its id.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1;`
	m, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find loan "+loanID, err)
	}
	loan := mapping.ToDomainLoan(*m)
	return &loan, nil
}

// FindLoanByReference retrieves a loan by the originator reference stamped at
// disbursement dispatch.
func (r *PgxLoanRepository) FindLoanByReference(ctx context.Context, reference string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE external_reference = $1;`
	m, err := scanLoan(r.Pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find loan by reference", err)
	}
	loan := mapping.ToDomainLoan(*m)
	return &loan, nil
}

// UpdateLoan persists the loan's mutable fields.
func (r *PgxLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	tag, err := r.Pool.Exec(ctx, updateLoanQuery,
		m.LoanID, m.OutstandingPrincipal, m.Status, m.DisbursedAt,
		m.ExternalReference, m.EntryID, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update loan "+m.LoanID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkDisbursed inserts the disbursement DEBIT entry and flips the loan to
// DISBURSED in one transaction.
func (r *PgxLoanRepository) MarkDisbursed(ctx context.Context, loan domain.Loan, entry domain.LedgerEntry, disbursedAt time.Time) error {
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
			return fmt.Errorf("%w: disbursement already recorded for loan %s", apperrors.ErrDuplicate, loan.LoanID)
		}
		return apperrors.NewAppError(500, "failed to insert disbursement entry for loan "+loan.LoanID, err)
	}

	if err := loan.Transition(domain.LoanDisbursed); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
	}
	loan.DisbursedAt = &disbursedAt
	loan.OutstandingPrincipal = loan.Principal
	loan.EntryID = &me.EntryID

	m := mapping.ToModelLoan(loan)
	tag, err := tx.Exec(ctx, updateLoanQuery,
		m.LoanID, m.OutstandingPrincipal, m.Status, m.DisbursedAt,
		m.ExternalReference, m.EntryID, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark loan disbursed "+m.LoanID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}

// ApplyRepayment records the repayment CREDIT entry and reduces the payer's
// active loan inside one transaction. The loan row is locked FOR UPDATE so
// concurrent repayments for the same borrower serialize; the ledger unique
// index rejects a replayed reference before the loan is touched.
func (r *PgxLoanRepository) ApplyRepayment(ctx context.Context, entry domain.LedgerEntry, asOf time.Time) (*domain.Loan, error) {
	if entry.MemberID == nil {
		return nil, fmt.Errorf("%w: repayment entry has no member", apperrors.ErrValidation)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
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
			return nil, fmt.Errorf("%w: repayment reference already recorded", apperrors.ErrDuplicate)
		}
		return nil, apperrors.NewAppError(500, "failed to insert repayment entry", err)
	}

	lockQuery := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE group_id = $1 AND borrower_id = $2 AND status = ANY($3)
		ORDER BY disbursed_at ASC
		LIMIT 1
		FOR UPDATE;
	`
	m, err := scanLoan(tx.QueryRow(ctx, lockQuery, entry.GroupID, *entry.MemberID, activeLoanStatuses))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no active loan for member %s", apperrors.ErrNotFound, *entry.MemberID)
		}
		return nil, apperrors.NewAppError(500, "failed to lock active loan", err)
	}

	loan := mapping.ToDomainLoan(*m)
	if err := loan.ApplyRepayment(entry.Amount, asOf); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
	}
	loan.LastUpdatedAt = asOf
	if entry.LastUpdatedBy != "" {
		loan.LastUpdatedBy = entry.LastUpdatedBy
	}

	um := mapping.ToModelLoan(loan)
	if _, err := tx.Exec(ctx, updateLoanQuery,
		um.LoanID, um.OutstandingPrincipal, um.Status, um.DisbursedAt,
		um.ExternalReference, um.EntryID, um.LastUpdatedAt, um.LastUpdatedBy,
	); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update loan after repayment", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindActiveLoanByBorrower returns the borrower's DISBURSED or
// PARTIALLY_REPAID loan, if any.
func (r *PgxLoanRepository) FindActiveLoanByBorrower(ctx context.Context, groupID string, borrowerID string) (*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE group_id = $1 AND borrower_id = $2 AND status = ANY($3)
		ORDER BY disbursed_at ASC
		LIMIT 1;
	`
	m, err := scanLoan(r.Pool.QueryRow(ctx, query, groupID, borrowerID, activeLoanStatuses))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find active loan", err)
	}
	loan := mapping.ToDomainLoan(*m)
	return &loan, nil
}

// SumOutstandingByBorrower totals outstanding principal across the borrower's
// active loans.
func (r *PgxLoanRepository) SumOutstandingByBorrower(ctx context.Context, groupID string, borrowerID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(outstanding_principal), 0)
		FROM loans
		WHERE group_id = $1 AND borrower_id = $2 AND status = ANY($3);
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, groupID, borrowerID, activeLoanStatuses).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum outstanding loans", err)
	}
	return total, nil
}

// ListLoansByBorrower returns the borrower's loans, newest first.
func (r *PgxLoanRepository) ListLoansByBorrower(ctx context.Context, groupID string, borrowerID string) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE group_id = $1 AND borrower_id = $2 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, groupID, borrowerID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query loans", err)
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		m, err := scanLoan(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan loan row", err)
		}
		loans = append(loans, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating loan rows", err)
	}
	return mapping.ToDomainLoanSlice(loans), nil
}
