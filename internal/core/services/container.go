package services

import (
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// Container holds all the services and manages their dependencies.
type Container struct {
	Ledger         portssvc.LedgerSvcFacade
	Loan           portssvc.LoanSvcFacade
	Withdrawal     portssvc.WithdrawalSvcFacade
	Reconciliation portssvc.ReconciliationSvcFacade
	Notification   portssvc.NotificationSvcFacade
}

// NewContainer creates a new service container with properly initialized
// dependencies.
func NewContainer(
	repos *portsrepo.RepositoryProvider,
	dispatcher portssvc.PaymentDispatcher,
	publisher portssvc.EventPublisher,
	lendingRatio decimal.Decimal,
) *Container {
	container := &Container{}

	container.Notification = NewNotificationService(repos)
	container.Ledger = NewLedgerService(repos, dispatcher, lendingRatio)

	membership := NewRepoMembership(repos.Group)

	container.Loan = NewLoanService(repos, container.Ledger, dispatcher, publisher, container.Notification)
	container.Withdrawal = NewWithdrawalService(repos, membership, dispatcher, publisher, container.Notification)
	container.Reconciliation = NewReconciliationService(repos, publisher, container.Notification)

	return container
}

// Compile-time interface checks.
var (
	_ portssvc.LedgerSvcFacade         = (*LedgerService)(nil)
	_ portssvc.LoanSvcFacade           = (*LoanService)(nil)
	_ portssvc.WithdrawalSvcFacade     = (*WithdrawalService)(nil)
	_ portssvc.ReconciliationSvcFacade = (*ReconciliationService)(nil)
	_ portssvc.NotificationSvcFacade   = (*NotificationService)(nil)
)
