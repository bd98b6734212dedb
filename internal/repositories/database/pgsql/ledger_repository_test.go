package pgsql

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
)

func TestSaveEntry_DuplicateReferenceRejected(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgxLedgerRepository(mock)

	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_ledger_entries_group_reference"})

	memberID := "m-1"
	ref := "MPESA-REF-1"
	entry := domain.LedgerEntry{
		EntryID:           "le-1",
		GroupID:           "grp-1",
		MemberID:          &memberID,
		Amount:            decimal.NewFromInt(500),
		Direction:         domain.Credit,
		Reason:            domain.ReasonContribution,
		ExternalReference: &ref,
	}
	err := repo.SaveEntry(context.Background(), entry)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCashAtHand(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgxLedgerRepository(mock)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("grp-1").
		WillReturnRows(pgxmockv3.NewRows([]string{"sum"}).AddRow(decimal.RequireFromString("8000.00")))

	total, err := repo.CashAtHand(context.Background(), "grp-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(8000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberContributions(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgxLedgerRepository(mock)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("grp-1", "m-1").
		WillReturnRows(pgxmockv3.NewRows([]string{"sum"}).AddRow(decimal.RequireFromString("2500.00")))

	total, err := repo.MemberContributions(context.Background(), "grp-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, "2500.00", total.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
