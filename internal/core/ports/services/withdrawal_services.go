package services

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/shopspring/decimal"
)

// WithdrawalSvcFacade runs the withdrawal consensus state machine.
type WithdrawalSvcFacade interface {
	// CreateRequest opens a withdrawal for group vote. Admin only; at most one
	// pending request per group; amount must not exceed cash at hand.
	CreateRequest(ctx context.Context, groupID string, requesterID string, amount decimal.Decimal, reason string) (*domain.WithdrawalRequest, error)

	// CastVote records the member's vote and recomputes the tallies. On
	// strict-majority approval the outbound payment is dispatched.
	CastVote(ctx context.Context, groupID string, withdrawalID string, voterID string, choice domain.VoteChoice) (*dto.VoteResultResponse, error)

	// Cancel terminates a pending request. Admin only.
	Cancel(ctx context.Context, groupID string, withdrawalID string, actorID string) error

	// ListGroupWithdrawals returns the group's requests, newest first.
	ListGroupWithdrawals(ctx context.Context, groupID string) ([]dto.WithdrawalResponse, error)
}
