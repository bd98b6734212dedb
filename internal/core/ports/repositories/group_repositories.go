package repositories

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
)

// GroupRepositoryFacade reads group treasury configuration and membership.
// Membership rows are owned by the membership collaborator; the treasury only
// reads them.
type GroupRepositoryFacade interface {
	FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error)

	FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error)

	// FindMemberByPhone resolves an inbound payment's payer to a member.
	FindMemberByPhone(ctx context.Context, phone string) (*domain.Member, error)

	ListGroupMembers(ctx context.Context, groupID string) ([]domain.Member, error)

	// CountGroupMembers returns live membership for quorum evaluation.
	CountGroupMembers(ctx context.Context, groupID string) (int, error)
}
