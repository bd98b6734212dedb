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
)

// ReconciliationService maps asynchronous gateway callbacks onto ledger, loan
// and withdrawal state. Every operation is idempotent on the gateway
// reference: duplicates and unknown references are logged and absorbed so the
// gateway stops retrying.
type ReconciliationService struct {
	LedgerRepository     portsrepo.LedgerRepositoryFacade
	LoanRepository       portsrepo.LoanRepositoryFacade
	WithdrawalRepository portsrepo.WithdrawalRepositoryFacade
	GroupRepository      portsrepo.GroupRepositoryFacade
	Publisher            portssvc.EventPublisher
	Notifier             portssvc.NotificationSvcFacade
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(
	repos *portsrepo.RepositoryProvider,
	publisher portssvc.EventPublisher,
	notifier portssvc.NotificationSvcFacade,
) *ReconciliationService {
	return &ReconciliationService{
		LedgerRepository:     repos.Ledger,
		LoanRepository:       repos.Loan,
		WithdrawalRepository: repos.Withdrawal,
		GroupRepository:      repos.Group,
		Publisher:            publisher,
		Notifier:             notifier,
	}
}

// HandlePaymentConfirmation reconciles an inbound payment. The payer's phone
// resolves the member; a payer with an active loan is repaying it, anyone else
// is contributing. The ledger's unique reference index makes replays no-ops.
func (s *ReconciliationService) HandlePaymentConfirmation(ctx context.Context, confirmation dto.PaymentConfirmation) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if confirmation.Reference == "" || !confirmation.Amount.IsPositive() {
		logger.Warn("Malformed payment confirmation dropped",
			slog.String("reference", confirmation.Reference),
			slog.String("amount", confirmation.Amount.String()),
		)
		return nil
	}

	member, err := s.GroupRepository.FindMemberByPhone(ctx, confirmation.Phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Payment from unknown phone left unmatched",
				slog.String("reference", confirmation.Reference),
			)
			return nil
		}
		return err
	}

	now := time.Now()
	reference := confirmation.Reference
	entry := domain.LedgerEntry{
		EntryID:           uuid.NewString(),
		GroupID:           member.GroupID,
		MemberID:          &member.MemberID,
		Amount:            confirmation.Amount,
		Direction:         domain.Credit,
		ExternalReference: &reference,
		EntryDate:         now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     member.MemberID,
			LastUpdatedAt: now,
			LastUpdatedBy: member.MemberID,
		},
	}

	_, err = s.LoanRepository.FindActiveLoanByBorrower(ctx, member.GroupID, member.MemberID)
	switch {
	case err == nil:
		return s.applyRepayment(ctx, entry, now)
	case errors.Is(err, apperrors.ErrNotFound):
		return s.applyContribution(ctx, entry)
	default:
		return err
	}
}

func (s *ReconciliationService) applyRepayment(ctx context.Context, entry domain.LedgerEntry, now time.Time) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry.Reason = domain.ReasonLoanRepayment
	entry.Description = "Loan repayment"

	loan, err := s.LoanRepository.ApplyRepayment(ctx, entry, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Info("Duplicate repayment callback absorbed", slog.String("reference", *entry.ExternalReference))
			return nil
		}
		return err
	}

	remaining := loan.OutstandingBalance(now)
	s.Notifier.NotifyMember(ctx, *entry.MemberID, entry.GroupID,
		fmt.Sprintf("Repayment of %s received. Remaining balance: %s.", entry.Amount.StringFixed(2), remaining.StringFixed(2)),
		domain.NotifyLoanRepayment,
	)
	if err := s.Publisher.Publish(ctx, loan.LoanID, map[string]any{
		"type":      "loan.repayment",
		"loanID":    loan.LoanID,
		"groupID":   entry.GroupID,
		"amount":    entry.Amount.String(),
		"remaining": remaining.String(),
	}); err != nil {
		logger.Warn("Failed to publish repayment event", slog.String("error", err.Error()))
	}

	logger.Info("Repayment reconciled",
		slog.String("loan_id", loan.LoanID),
		slog.String("status", string(loan.Status)),
	)
	return nil
}

func (s *ReconciliationService) applyContribution(ctx context.Context, entry domain.LedgerEntry) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry.Reason = domain.ReasonContribution
	entry.Description = "Member contribution"

	if err := s.LedgerRepository.SaveEntry(ctx, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Info("Duplicate contribution callback absorbed", slog.String("reference", *entry.ExternalReference))
			return nil
		}
		return err
	}

	s.Notifier.NotifyMember(ctx, *entry.MemberID, entry.GroupID,
		fmt.Sprintf("Your contribution of %s has been received.", entry.Amount.StringFixed(2)),
		domain.NotifyContribution,
	)
	if err := s.Publisher.Publish(ctx, entry.EntryID, map[string]any{
		"type":     "contribution.received",
		"entryID":  entry.EntryID,
		"groupID":  entry.GroupID,
		"memberID": *entry.MemberID,
		"amount":   entry.Amount.String(),
	}); err != nil {
		logger.Warn("Failed to publish contribution event", slog.String("error", err.Error()))
	}

	logger.Info("Contribution reconciled", slog.String("entry_id", entry.EntryID))
	return nil
}

// HandleDisbursementResult resolves an outbound payment by its originator
// reference. The reference was stamped on exactly one withdrawal request or
// loan at dispatch time; a reference matching neither is logged and absorbed.
func (s *ReconciliationService) HandleDisbursementResult(ctx context.Context, result dto.DisbursementResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if result.OriginatorReference == "" {
		logger.Warn("Disbursement result without originator reference dropped")
		return nil
	}

	request, err := s.WithdrawalRepository.FindRequestByReference(ctx, result.OriginatorReference)
	if err == nil {
		return s.resolveWithdrawal(ctx, request, result)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	loan, err := s.LoanRepository.FindLoanByReference(ctx, result.OriginatorReference)
	if err == nil {
		return s.resolveLoanDisbursement(ctx, loan, result)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	logger.Warn("Disbursement result matches no withdrawal or loan",
		slog.String("reference", result.OriginatorReference),
	)
	return nil
}

func (s *ReconciliationService) resolveWithdrawal(ctx context.Context, request *domain.WithdrawalRequest, result dto.DisbursementResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	target := domain.WithdrawalCompleted
	category := domain.NotifyWithdrawalCompleted
	message := "The approved withdrawal has been paid out."
	if result.ResultCode != 0 {
		target = domain.WithdrawalFailed
		category = domain.NotifyWithdrawalRejected
		message = fmt.Sprintf("The withdrawal payout failed: %s. The funds remain in the group account.", result.ResultDescription)
	}

	err := s.WithdrawalRepository.TransitionStatus(ctx, request.WithdrawalID, domain.WithdrawalApproved, target, "gateway")
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Info("Duplicate disbursement result absorbed",
				slog.String("withdrawal_id", request.WithdrawalID),
				slog.String("status", string(request.Status)),
			)
			return nil
		}
		return err
	}

	s.Notifier.NotifyGroup(ctx, request.GroupID, message, category)
	if err := s.Publisher.Publish(ctx, request.WithdrawalID, map[string]any{
		"type":         "withdrawal.resolved",
		"withdrawalID": request.WithdrawalID,
		"groupID":      request.GroupID,
		"status":       string(target),
	}); err != nil {
		logger.Warn("Failed to publish withdrawal event", slog.String("error", err.Error()))
	}

	logger.Info("Withdrawal resolved",
		slog.String("withdrawal_id", request.WithdrawalID),
		slog.String("status", string(target)),
		slog.Int("result_code", result.ResultCode),
	)
	return nil
}

func (s *ReconciliationService) resolveLoanDisbursement(ctx context.Context, loan *domain.Loan, result dto.DisbursementResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if result.ResultCode != 0 {
		// The payout never left the gateway. The loan stays APPROVED with no
		// disbursement entry, so it accrues nothing and lends nothing; the
		// group admin resolves it manually.
		logger.Error("Loan payout failed at gateway",
			slog.String("loan_id", loan.LoanID),
			slog.String("result", result.ResultDescription),
		)
		s.Notifier.NotifyMember(ctx, loan.BorrowerID, loan.GroupID,
			fmt.Sprintf("Your loan payout failed: %s. Please contact your group admin.", result.ResultDescription),
			domain.NotifyLoanDisbursed,
		)
		return nil
	}

	if loan.Status != domain.LoanApproved {
		logger.Info("Duplicate loan disbursement result absorbed",
			slog.String("loan_id", loan.LoanID),
			slog.String("status", string(loan.Status)),
		)
		return nil
	}

	now := time.Now()
	reference := *loan.ExternalReference
	entry := domain.LedgerEntry{
		EntryID:           uuid.NewString(),
		GroupID:           loan.GroupID,
		MemberID:          &loan.BorrowerID,
		Amount:            loan.Principal,
		Direction:         domain.Debit,
		Reason:            domain.ReasonLoanDisbursement,
		Description:       "Loan disbursement",
		ExternalReference: &reference,
		EntryDate:         now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "gateway",
			LastUpdatedAt: now,
			LastUpdatedBy: "gateway",
		},
	}
	if err := s.LoanRepository.MarkDisbursed(ctx, *loan, entry, now); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Info("Duplicate loan disbursement absorbed", slog.String("loan_id", loan.LoanID))
			return nil
		}
		return err
	}

	s.Notifier.NotifyMember(ctx, loan.BorrowerID, loan.GroupID,
		fmt.Sprintf("Your loan of %s has been disbursed.", loan.Principal.StringFixed(2)),
		domain.NotifyLoanDisbursed,
	)
	if err := s.Publisher.Publish(ctx, loan.LoanID, map[string]any{
		"type":    "loan.disbursed",
		"loanID":  loan.LoanID,
		"groupID": loan.GroupID,
		"amount":  loan.Principal.String(),
	}); err != nil {
		logger.Warn("Failed to publish loan event", slog.String("error", err.Error()))
	}

	logger.Info("Loan disbursement reconciled", slog.String("loan_id", loan.LoanID))
	return nil
}
