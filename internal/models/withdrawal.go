package models

// WithdrawalRequest mirrors the withdrawal_requests table.
type WithdrawalRequest struct {
	WithdrawalID      string
	GroupID           string
	EntryID           string
	Status            string
	Approvals         int
	Rejections        int
	ExternalReference *string
	AuditFields
}

// WithdrawalVote mirrors the withdrawal_votes table.
type WithdrawalVote struct {
	VoteID       string
	WithdrawalID string
	GroupID      string
	VoterID      string
	Choice       string
	AuditFields
}
