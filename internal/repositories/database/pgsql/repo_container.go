package pgsql

import (
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgsql repositories over one pool.
func NewRepositoryProvider(pool DBPool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		Ledger:       NewPgxLedgerRepository(pool),
		Loan:         NewPgxLoanRepository(pool),
		Withdrawal:   NewPgxWithdrawalRepository(pool),
		Group:        NewPgxGroupRepository(pool),
		Notification: NewPgxNotificationRepository(pool),
	}
}
