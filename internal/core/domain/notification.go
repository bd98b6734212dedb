package domain

import "time"

// NotificationCategory classifies a notification for display grouping.
type NotificationCategory string

const (
	NotifyWithdrawalRequested NotificationCategory = "WITHDRAWAL_REQUESTED"
	NotifyWithdrawalApproved  NotificationCategory = "WITHDRAWAL_APPROVED"
	NotifyWithdrawalRejected  NotificationCategory = "WITHDRAWAL_REJECTED"
	NotifyWithdrawalCompleted NotificationCategory = "WITHDRAWAL_COMPLETED"
	NotifyLoanDisbursed       NotificationCategory = "LOAN_DISBURSED"
	NotifyLoanRepayment       NotificationCategory = "LOAN_REPAYMENT"
	NotifyContribution        NotificationCategory = "CONTRIBUTION"
)

// Notification is a message delivered to a member. Delivery is fire-and-forget:
// failures must never roll back ledger or vote state.
type Notification struct {
	NotificationID string               `json:"notificationID"` // Primary Key (UUID)
	MemberID       string               `json:"memberID"`
	GroupID        string               `json:"groupID"`
	Message        string               `json:"message"`
	Category       NotificationCategory `json:"category"`
	Read           bool                 `json:"read"`
	CreatedAt      time.Time            `json:"createdAt"`
}
