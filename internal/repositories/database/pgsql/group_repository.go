package pgsql

import (
	"context"
	"errors"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/models"
	"github.com/chamahub/treasury/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxGroupRepository reads group configuration and membership. Membership rows
// are written by the membership service; this repository only reads them.
type PgxGroupRepository struct {
	BaseRepository
}

// NewPgxGroupRepository creates a new repository for groups and members.
func NewPgxGroupRepository(pool DBPool) portsrepo.GroupRepositoryFacade {
	return &PgxGroupRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.GroupRepositoryFacade = (*PgxGroupRepository)(nil)

const groupColumns = `group_id, name, admin_id, loan_interest_rate, loan_interest_frequency, mpesa_shortcode, created_at, created_by, last_updated_at, last_updated_by`

const memberColumns = `member_id, group_id, name, phone, is_admin`

// FindGroupByID retrieves a group's treasury configuration.
func (r *PgxGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE group_id = $1;`
	var m models.Group
	err := r.Pool.QueryRow(ctx, query, groupID).Scan(
		&m.GroupID, &m.Name, &m.AdminID, &m.LoanInterestRate,
		&m.LoanInterestFrequency, &m.MpesaShortcode,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find group "+groupID, err)
	}
	group := mapping.ToDomainGroup(m)
	return &group, nil
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	if err := row.Scan(&m.MemberID, &m.GroupID, &m.Name, &m.Phone, &m.IsAdmin); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindMemberByID retrieves a member by id.
func (r *PgxGroupRepository) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE member_id = $1;`
	m, err := scanMember(r.Pool.QueryRow(ctx, query, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find member "+memberID, err)
	}
	member := mapping.ToDomainMember(*m)
	return &member, nil
}

// FindMemberByPhone resolves an inbound payment's payer phone to a member.
func (r *PgxGroupRepository) FindMemberByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE phone = $1;`
	m, err := scanMember(r.Pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find member by phone", err)
	}
	member := mapping.ToDomainMember(*m)
	return &member, nil
}

// ListGroupMembers returns the group's current members.
func (r *PgxGroupRepository) ListGroupMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE group_id = $1 ORDER BY name ASC;`
	rows, err := r.Pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query group members", err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan member row", err)
		}
		members = append(members, mapping.ToDomainMember(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating member rows", err)
	}
	return members, nil
}

// CountGroupMembers returns live membership for quorum evaluation.
func (r *PgxGroupRepository) CountGroupMembers(ctx context.Context, groupID string) (int, error) {
	var count int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE group_id = $1;`, groupID).Scan(&count); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count group members", err)
	}
	return count, nil
}
