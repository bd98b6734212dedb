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

// LedgerService owns the append-only ledger and the derived balances.
type LedgerService struct {
	LedgerRepository portsrepo.LedgerRepositoryFacade
	LoanRepository   portsrepo.LoanRepositoryFacade
	GroupRepository  portsrepo.GroupRepositoryFacade
	Dispatcher       portssvc.PaymentDispatcher
	LendingRatio     decimal.Decimal
}

// NewLedgerService creates a new ledger service. lendingRatio caps the share
// of cash at hand the group will lend out, e.g. 0.4.
func NewLedgerService(repos *portsrepo.RepositoryProvider, dispatcher portssvc.PaymentDispatcher, lendingRatio decimal.Decimal) *LedgerService {
	return &LedgerService{
		LedgerRepository: repos.Ledger,
		LoanRepository:   repos.Loan,
		GroupRepository:  repos.Group,
		Dispatcher:       dispatcher,
		LendingRatio:     lendingRatio,
	}
}

// InitiateContribution starts a gateway collection for the member's
// contribution. The ledger only changes when the confirmation callback lands.
func (s *LedgerService) InitiateContribution(ctx context.Context, groupID string, memberID string, amount decimal.Decimal) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: contribution amount must be positive", apperrors.ErrValidation)
	}
	member, err := s.GroupRepository.FindMemberByID(ctx, memberID)
	if err != nil {
		return "", err
	}
	if member.GroupID != groupID {
		return "", fmt.Errorf("%w: member does not belong to group", apperrors.ErrForbidden)
	}

	checkoutID, err := s.Dispatcher.InitiateCollection(ctx, groupID, member.Phone, amount, "CONTRIB-"+memberID)
	if err != nil {
		logger.Error("Contribution collection dispatch failed", slog.String("member_id", memberID), slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: could not initiate contribution collection", apperrors.ErrExternalGateway)
	}

	logger.Info("Contribution collection initiated",
		slog.String("member_id", memberID),
		slog.String("checkout_id", checkoutID),
	)
	return checkoutID, nil
}

// RecordEntry validates and appends a ledger entry.
func (s *LedgerService) RecordEntry(ctx context.Context, req dto.RecordEntryRequest) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if req.Direction != domain.Credit && req.Direction != domain.Debit {
		return nil, fmt.Errorf("%w: unknown direction %q", apperrors.ErrValidation, req.Direction)
	}
	if !domain.ValidEntryReason(req.Reason) {
		return nil, fmt.Errorf("%w: unknown reason %q", apperrors.ErrValidation, req.Reason)
	}
	if _, err := s.GroupRepository.FindGroupByID(ctx, req.GroupID); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := domain.LedgerEntry{
		EntryID:           uuid.NewString(),
		GroupID:           req.GroupID,
		MemberID:          req.MemberID,
		Amount:            req.Amount,
		Direction:         req.Direction,
		Reason:            req.Reason,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		EntryDate:         now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     req.RecordedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: req.RecordedBy,
		},
	}

	if err := s.LedgerRepository.SaveEntry(ctx, entry); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			logger.Error("Failed to save ledger entry", slog.String("error", err.Error()), slog.String("group_id", req.GroupID))
		}
		return nil, err
	}

	logger.Info("Ledger entry recorded",
		slog.String("entry_id", entry.EntryID),
		slog.String("group_id", entry.GroupID),
		slog.String("reason", string(entry.Reason)),
		slog.String("direction", string(entry.Direction)),
	)
	return &entry, nil
}

// CashAtHand returns the group's spendable balance.
func (s *LedgerService) CashAtHand(ctx context.Context, groupID string) (decimal.Decimal, error) {
	return s.LedgerRepository.CashAtHand(ctx, groupID)
}

// MemberEntitlement computes the member's proportional claim on the group's
// lending capacity:
//
//	entitlement = (memberContributions / totalContributions) * lendingRatio * cashAtHand
//
// rounded half-to-even at 2 decimal places.
func (s *LedgerService) MemberEntitlement(ctx context.Context, groupID string, memberID string) (decimal.Decimal, error) {
	total, err := s.LedgerRepository.TotalContributions(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	if total.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: group has no contributions", apperrors.ErrInsufficientFunds)
	}

	cash, err := s.LedgerRepository.CashAtHand(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	if !cash.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: group has no cash at hand", apperrors.ErrInsufficientFunds)
	}

	memberTotal, err := s.LedgerRepository.MemberContributions(ctx, groupID, memberID)
	if err != nil {
		return decimal.Zero, err
	}

	entitlement := memberTotal.Div(total).Mul(s.LendingRatio).Mul(cash).RoundBank(2)
	return entitlement, nil
}

// AccountSummary aggregates the member's view of the treasury. A zero
// entitlement is reported as zero rather than an error.
func (s *LedgerService) AccountSummary(ctx context.Context, groupID string, memberID string) (*dto.AccountSummaryResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	cash, err := s.LedgerRepository.CashAtHand(ctx, groupID)
	if err != nil {
		return nil, err
	}
	total, err := s.LedgerRepository.TotalContributions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	memberTotal, err := s.LedgerRepository.MemberContributions(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.LoanRepository.SumOutstandingByBorrower(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}

	entitlement, err := s.MemberEntitlement(ctx, groupID, memberID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInsufficientFunds) {
			return nil, err
		}
		entitlement = decimal.Zero
	}

	logger.Debug("Account summary computed", slog.String("group_id", groupID), slog.String("member_id", memberID))
	return &dto.AccountSummaryResponse{
		GroupID:             groupID,
		CashAtHand:          cash,
		TotalContributions:  total,
		MemberContributions: memberTotal,
		Entitlement:         entitlement,
		OutstandingLoans:    outstanding,
	}, nil
}

// ListContributions returns the member's contribution entries, newest first.
func (s *LedgerService) ListContributions(ctx context.Context, groupID string, memberID string, limit int) ([]dto.LedgerEntryResponse, error) {
	reason := domain.ReasonContribution
	entries, err := s.LedgerRepository.ListMemberEntries(ctx, groupID, memberID, &reason, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToLedgerEntryResponse(&entries[i])
	}
	return responses, nil
}
