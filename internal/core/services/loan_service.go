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

// LoanService issues entitlement-capped loans and initiates repayments.
// Disbursement is asynchronous: the loan stays APPROVED until the gateway's
// result callback confirms the payout.
type LoanService struct {
	LoanRepository  portsrepo.LoanRepositoryFacade
	GroupRepository portsrepo.GroupRepositoryFacade
	LedgerService   portssvc.LedgerSvcFacade
	Dispatcher      portssvc.PaymentDispatcher
	Publisher       portssvc.EventPublisher
	Notifier        portssvc.NotificationSvcFacade
}

// NewLoanService creates a new loan service.
func NewLoanService(
	repos *portsrepo.RepositoryProvider,
	ledgerSvc portssvc.LedgerSvcFacade,
	dispatcher portssvc.PaymentDispatcher,
	publisher portssvc.EventPublisher,
	notifier portssvc.NotificationSvcFacade,
) *LoanService {
	return &LoanService{
		LoanRepository:  repos.Loan,
		GroupRepository: repos.Group,
		LedgerService:   ledgerSvc,
		Dispatcher:      dispatcher,
		Publisher:       publisher,
		Notifier:        notifier,
	}
}

// RequestLoan checks the borrower's remaining capacity, records the loan and
// dispatches the payout. A dispatch failure leaves the APPROVED loan in place
// for operator reconciliation and surfaces apperrors.ErrExternalGateway.
func (s *LoanService) RequestLoan(ctx context.Context, groupID string, borrowerID string, amount decimal.Decimal) (*dto.LoanResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrValidation)
	}

	group, err := s.GroupRepository.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	borrower, err := s.GroupRepository.FindMemberByID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if borrower.GroupID != groupID {
		return nil, fmt.Errorf("%w: member does not belong to group", apperrors.ErrForbidden)
	}

	entitlement, err := s.LedgerService.MemberEntitlement(ctx, groupID, borrowerID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.LoanRepository.SumOutstandingByBorrower(ctx, groupID, borrowerID)
	if err != nil {
		return nil, err
	}

	capacity := entitlement.Sub(outstanding)
	if amount.GreaterThan(capacity) {
		logger.Warn("Loan request exceeds capacity",
			slog.String("member_id", borrowerID),
			slog.String("requested", amount.String()),
			slog.String("capacity", capacity.String()),
		)
		return nil, fmt.Errorf("%w: requested %s exceeds remaining capacity %s",
			apperrors.ErrInsufficientFunds, amount.StringFixed(2), capacity.StringFixed(2))
	}

	now := time.Now()
	loan := domain.Loan{
		LoanID:               uuid.NewString(),
		GroupID:              groupID,
		BorrowerID:           borrowerID,
		Principal:            amount,
		OutstandingPrincipal: amount,
		InterestRate:         group.LoanInterestRate,
		InterestFrequency:    group.LoanInterestFrequency,
		Status:               domain.LoanApproved,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     borrowerID,
			LastUpdatedAt: now,
			LastUpdatedBy: borrowerID,
		},
	}
	if err := s.LoanRepository.SaveLoan(ctx, loan); err != nil {
		logger.Error("Failed to save loan", slog.String("error", err.Error()))
		return nil, err
	}

	reference, err := s.Dispatcher.DispatchOutbound(ctx, groupID, borrower.Phone, amount, domain.ReasonLoanDisbursement, loan.LoanID)
	if err != nil {
		logger.Error("Loan payout dispatch failed, loan kept for reconciliation",
			slog.String("loan_id", loan.LoanID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: loan %s recorded but payout dispatch failed", apperrors.ErrExternalGateway, loan.LoanID)
	}

	loan.ExternalReference = &reference
	if err := s.LoanRepository.UpdateLoan(ctx, loan); err != nil {
		logger.Error("Failed to store loan dispatch reference", slog.String("loan_id", loan.LoanID), slog.String("error", err.Error()))
		return nil, err
	}

	s.Notifier.NotifyMember(ctx, borrowerID, groupID,
		fmt.Sprintf("Your loan of %s has been approved and is being disbursed.", amount.StringFixed(2)),
		domain.NotifyLoanDisbursed,
	)
	if err := s.Publisher.Publish(ctx, loan.LoanID, map[string]any{
		"type":     "loan.approved",
		"loanID":   loan.LoanID,
		"groupID":  groupID,
		"memberID": borrowerID,
		"amount":   amount.String(),
	}); err != nil {
		logger.Warn("Failed to publish loan event", slog.String("error", err.Error()))
	}

	logger.Info("Loan approved and payout dispatched",
		slog.String("loan_id", loan.LoanID),
		slog.String("reference", reference),
	)
	resp := dto.ToLoanResponse(&loan, now)
	return &resp, nil
}

// InitiateRepayment starts a gateway collection towards the member's active
// loan. The balance only changes when the confirmation callback arrives.
func (s *LoanService) InitiateRepayment(ctx context.Context, memberID string, amount decimal.Decimal) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: repayment amount must be positive", apperrors.ErrValidation)
	}

	member, err := s.GroupRepository.FindMemberByID(ctx, memberID)
	if err != nil {
		return "", err
	}
	loan, err := s.LoanRepository.FindActiveLoanByBorrower(ctx, member.GroupID, memberID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%w: no active loan to repay", apperrors.ErrNotFound)
		}
		return "", err
	}

	balance := loan.OutstandingBalance(time.Now())
	if amount.GreaterThan(balance) {
		return "", fmt.Errorf("%w: repayment %s exceeds outstanding balance %s",
			apperrors.ErrValidation, amount.StringFixed(2), balance.StringFixed(2))
	}

	checkoutID, err := s.Dispatcher.InitiateCollection(ctx, member.GroupID, member.Phone, amount, "REPAY-"+loan.LoanID)
	if err != nil {
		logger.Error("Repayment collection dispatch failed", slog.String("loan_id", loan.LoanID), slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: could not initiate repayment collection", apperrors.ErrExternalGateway)
	}

	logger.Info("Repayment collection initiated",
		slog.String("loan_id", loan.LoanID),
		slog.String("checkout_id", checkoutID),
	)
	return checkoutID, nil
}

// ListMemberLoans returns the member's loans with live accrued balances.
func (s *LoanService) ListMemberLoans(ctx context.Context, groupID string, memberID string) ([]dto.LoanResponse, error) {
	loans, err := s.LoanRepository.ListLoansByBorrower(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	responses := make([]dto.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = dto.ToLoanResponse(&loans[i], now)
	}
	return responses, nil
}
