package services

import (
	"context"

	"github.com/chamahub/treasury/internal/dto"
)

// ReconciliationSvcFacade maps asynchronous gateway callbacks onto ledger,
// loan and withdrawal state. Both operations are idempotent on the gateway
// reference: duplicates and unknown references are absorbed (logged, nil
// returned) so the gateway stops retrying.
type ReconciliationSvcFacade interface {
	// HandlePaymentConfirmation reconciles an inbound payment: a loan
	// repayment when the payer has an active loan, otherwise a contribution.
	HandlePaymentConfirmation(ctx context.Context, confirmation dto.PaymentConfirmation) error

	// HandleDisbursementResult resolves an outbound payment by originator
	// reference: success completes the withdrawal or loan disbursement,
	// failure marks it FAILED with the debit excluded from cash at hand.
	HandleDisbursementResult(ctx context.Context, result dto.DisbursementResult) error
}
