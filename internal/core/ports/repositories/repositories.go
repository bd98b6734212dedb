package repositories

// RepositoryProvider bundles all repository facades a service container needs.
type RepositoryProvider struct {
	Ledger       LedgerRepositoryFacade
	Loan         LoanRepositoryFacade
	Withdrawal   WithdrawalRepositoryFacade
	Group        GroupRepositoryFacade
	Notification NotificationRepositoryFacade
}
