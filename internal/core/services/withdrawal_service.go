package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalService runs the withdrawal consensus state machine: a single
// pending request per group, strict-majority voting against live membership,
// and payout dispatch once quorum approves.
type WithdrawalService struct {
	WithdrawalRepository portsrepo.WithdrawalRepositoryFacade
	LedgerRepository     portsrepo.LedgerRepositoryFacade
	GroupRepository      portsrepo.GroupRepositoryFacade
	Membership           portssvc.GroupMembership
	Dispatcher           portssvc.PaymentDispatcher
	Publisher            portssvc.EventPublisher
	Notifier             portssvc.NotificationSvcFacade
}

// NewWithdrawalService creates a new withdrawal service.
func NewWithdrawalService(
	repos *portsrepo.RepositoryProvider,
	membership portssvc.GroupMembership,
	dispatcher portssvc.PaymentDispatcher,
	publisher portssvc.EventPublisher,
	notifier portssvc.NotificationSvcFacade,
) *WithdrawalService {
	return &WithdrawalService{
		WithdrawalRepository: repos.Withdrawal,
		LedgerRepository:     repos.Ledger,
		GroupRepository:      repos.Group,
		Membership:           membership,
		Dispatcher:           dispatcher,
		Publisher:            publisher,
		Notifier:             notifier,
	}
}

// CreateRequest opens a withdrawal for group vote. Admin only; at most one
// pending request per group; amount must not exceed cash at hand.
func (s *WithdrawalService) CreateRequest(ctx context.Context, groupID string, requesterID string, amount decimal.Decimal, reason string) (*domain.WithdrawalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", apperrors.ErrValidation)
	}

	group, err := s.GroupRepository.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != requesterID {
		return nil, fmt.Errorf("%w: only the group admin can request withdrawals", apperrors.ErrForbidden)
	}

	cash, err := s.LedgerRepository.CashAtHand(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(cash) {
		return nil, fmt.Errorf("%w: withdrawal %s exceeds cash at hand %s",
			apperrors.ErrInsufficientFunds, amount.StringFixed(2), cash.StringFixed(2))
	}

	now := time.Now()
	entry := domain.LedgerEntry{
		EntryID:     uuid.NewString(),
		GroupID:     groupID,
		MemberID:    &requesterID,
		Amount:      amount,
		Direction:   domain.Debit,
		Reason:      domain.ReasonWithdrawal,
		Description: reason,
		EntryDate:   now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: requesterID,
		},
	}
	request := domain.WithdrawalRequest{
		WithdrawalID: uuid.NewString(),
		GroupID:      groupID,
		EntryID:      entry.EntryID,
		Status:       domain.WithdrawalPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: requesterID,
		},
	}

	if err := s.WithdrawalRepository.CreateRequestWithEntry(ctx, entry, request); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			logger.Error("Failed to create withdrawal request", slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.Notifier.NotifyGroup(ctx, groupID,
		fmt.Sprintf("A withdrawal of %s has been requested: %s. Please cast your vote.", amount.StringFixed(2), reason),
		domain.NotifyWithdrawalRequested,
	)
	if err := s.Publisher.Publish(ctx, request.WithdrawalID, map[string]any{
		"type":         "withdrawal.requested",
		"withdrawalID": request.WithdrawalID,
		"groupID":      groupID,
		"amount":       amount.String(),
	}); err != nil {
		logger.Warn("Failed to publish withdrawal event", slog.String("error", err.Error()))
	}

	logger.Info("Withdrawal request opened",
		slog.String("withdrawal_id", request.WithdrawalID),
		slog.String("group_id", groupID),
	)
	return &request, nil
}

// CastVote records the member's vote. Tallies are recomputed transactionally
// in the repository; on strict-majority approval the payout is dispatched, on
// rejection the group is notified. Quorum is evaluated against live
// membership at vote time.
func (s *WithdrawalService) CastVote(ctx context.Context, groupID string, withdrawalID string, voterID string, choice domain.VoteChoice) (*dto.VoteResultResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !domain.ValidVoteChoice(choice) {
		return nil, fmt.Errorf("%w: unknown vote choice %q", apperrors.ErrValidation, choice)
	}

	voter, err := s.GroupRepository.FindMemberByID(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if voter.GroupID != groupID {
		return nil, fmt.Errorf("%w: voter does not belong to group", apperrors.ErrForbidden)
	}

	request, err := s.WithdrawalRepository.FindRequestByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if request.GroupID != groupID {
		return nil, fmt.Errorf("%w: withdrawal does not belong to group", apperrors.ErrForbidden)
	}

	totalMembers, err := s.Membership.TotalCount(ctx, groupID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	vote := domain.WithdrawalVote{
		VoteID:       uuid.NewString(),
		WithdrawalID: withdrawalID,
		GroupID:      groupID,
		VoterID:      voterID,
		Choice:       choice,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     voterID,
			LastUpdatedAt: now,
			LastUpdatedBy: voterID,
		},
	}

	updated, err := s.WithdrawalRepository.RecordVote(ctx, vote, totalMembers)
	if err != nil {
		return nil, err
	}

	switch updated.Status {
	case domain.WithdrawalApproved:
		s.dispatchApproved(ctx, updated)
	case domain.WithdrawalRejected:
		s.Notifier.NotifyGroup(ctx, groupID, "The withdrawal request has been rejected by member vote.", domain.NotifyWithdrawalRejected)
	}

	logger.Info("Vote recorded",
		slog.String("withdrawal_id", withdrawalID),
		slog.String("voter_id", voterID),
		slog.String("status", string(updated.Status)),
		slog.Int("approvals", updated.Approvals),
		slog.Int("rejections", updated.Rejections),
	)
	return &dto.VoteResultResponse{
		WithdrawalID: updated.WithdrawalID,
		Status:       string(updated.Status),
		Approvals:    updated.Approvals,
		Rejections:   updated.Rejections,
	}, nil
}

// dispatchApproved sends the payout for a freshly approved request. A
// dispatch failure is logged and left for reconciliation; the vote that
// approved the request has already been committed and is never rolled back.
func (s *WithdrawalService) dispatchApproved(ctx context.Context, request *domain.WithdrawalRequest) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.LedgerRepository.FindEntryByID(ctx, request.EntryID)
	if err != nil {
		logger.Error("Approved withdrawal has no ledger entry", slog.String("withdrawal_id", request.WithdrawalID), slog.String("error", err.Error()))
		return
	}
	group, err := s.GroupRepository.FindGroupByID(ctx, request.GroupID)
	if err != nil {
		logger.Error("Failed to load group for payout", slog.String("error", err.Error()))
		return
	}
	admin, err := s.GroupRepository.FindMemberByID(ctx, group.AdminID)
	if err != nil {
		logger.Error("Failed to load admin for payout", slog.String("error", err.Error()))
		return
	}

	reference, err := s.Dispatcher.DispatchOutbound(ctx, request.GroupID, admin.Phone, entry.Amount, domain.ReasonWithdrawal, request.WithdrawalID)
	if err != nil {
		logger.Error("Withdrawal payout dispatch failed, request left for reconciliation",
			slog.String("withdrawal_id", request.WithdrawalID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.WithdrawalRepository.SetExternalReference(ctx, request.WithdrawalID, reference); err != nil {
		logger.Error("Failed to store withdrawal dispatch reference", slog.String("withdrawal_id", request.WithdrawalID), slog.String("error", err.Error()))
		return
	}

	s.Notifier.NotifyGroup(ctx, request.GroupID,
		fmt.Sprintf("The withdrawal of %s has been approved and the payout is in progress.", entry.Amount.StringFixed(2)),
		domain.NotifyWithdrawalApproved,
	)
	if err := s.Publisher.Publish(ctx, request.WithdrawalID, map[string]any{
		"type":         "withdrawal.approved",
		"withdrawalID": request.WithdrawalID,
		"groupID":      request.GroupID,
		"amount":       entry.Amount.String(),
	}); err != nil {
		logger.Warn("Failed to publish withdrawal event", slog.String("error", err.Error()))
	}
}

// Cancel terminates a pending request. Admin only.
func (s *WithdrawalService) Cancel(ctx context.Context, groupID string, withdrawalID string, actorID string) error {
	group, err := s.GroupRepository.FindGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID != actorID {
		return fmt.Errorf("%w: only the group admin can cancel a withdrawal", apperrors.ErrForbidden)
	}

	request, err := s.WithdrawalRepository.FindRequestByID(ctx, withdrawalID)
	if err != nil {
		return err
	}
	if request.GroupID != groupID {
		return fmt.Errorf("%w: withdrawal does not belong to group", apperrors.ErrForbidden)
	}

	if err := s.WithdrawalRepository.TransitionStatus(ctx, withdrawalID, domain.WithdrawalPending, domain.WithdrawalCancelled, actorID); err != nil {
		return err
	}

	s.Notifier.NotifyGroup(ctx, groupID, "The pending withdrawal request has been cancelled.", domain.NotifyWithdrawalRejected)
	return nil
}

// ListGroupWithdrawals returns the group's requests, newest first, with their
// amounts joined in from the ledger.
func (s *WithdrawalService) ListGroupWithdrawals(ctx context.Context, groupID string) ([]dto.WithdrawalResponse, error) {
	requests, err := s.WithdrawalRepository.ListRequestsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	entryIDs := make([]string, len(requests))
	for i := range requests {
		entryIDs[i] = requests[i].EntryID
	}
	entries, err := s.LedgerRepository.FindEntriesByIDs(ctx, entryIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.WithdrawalResponse, len(requests))
	for i := range requests {
		var entry *domain.LedgerEntry
		if e, ok := entries[requests[i].EntryID]; ok {
			entry = &e
		}
		responses[i] = dto.ToWithdrawalResponse(&requests[i], entry)
	}
	return responses, nil
}
