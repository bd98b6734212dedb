package services

import (
	"context"

	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
)

// repoMembership answers membership queries from the members table the
// membership service maintains. Counts are always live reads so quorum never
// uses a snapshot.
type repoMembership struct {
	groups portsrepo.GroupRepositoryFacade
}

// NewRepoMembership creates a GroupMembership backed by the group repository.
func NewRepoMembership(groups portsrepo.GroupRepositoryFacade) portssvc.GroupMembership {
	return &repoMembership{groups: groups}
}

func (m *repoMembership) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	members, err := m.groups.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(members))
	for i, member := range members {
		ids[i] = member.MemberID
	}
	return ids, nil
}

func (m *repoMembership) TotalCount(ctx context.Context, groupID string) (int, error) {
	return m.groups.CountGroupMembers(ctx, groupID)
}
