package domain

import (
	"errors"
	"fmt"
)

// WithdrawalStatus is the closed set of withdrawal request states.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalApproved  WithdrawalStatus = "APPROVED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
	WithdrawalCancelled WithdrawalStatus = "CANCELLED"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalFailed    WithdrawalStatus = "FAILED"
)

// ErrInvalidWithdrawalTransition is returned when a status change is not in
// the withdrawal transition table. No transition is reversible.
var ErrInvalidWithdrawalTransition = errors.New("invalid withdrawal status transition")

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected, WithdrawalCancelled},
	WithdrawalApproved: {WithdrawalCompleted, WithdrawalFailed},
}

// CountsTowardDebits reports whether a withdrawal in this status still claims
// group funds. FAILED and CANCELLED requests never moved money, so their DEBIT
// entries are excluded from cash-at-hand. PENDING requests are not yet
// authorized to move funds either.
func (s WithdrawalStatus) CountsTowardDebits() bool {
	return s == WithdrawalApproved || s == WithdrawalCompleted
}

// VoteChoice is a member's vote on a withdrawal request.
type VoteChoice string

const (
	VoteApprove VoteChoice = "APPROVE"
	VoteReject  VoteChoice = "REJECT"
)

// ValidVoteChoice reports whether c is a known vote choice.
func ValidVoteChoice(c VoteChoice) bool {
	return c == VoteApprove || c == VoteReject
}

// WithdrawalRequest gates an outbound group payment behind member consensus.
// It is bound 1:1 to the DEBIT ledger entry it authorizes. At most one pending
// request exists per group at any time.
type WithdrawalRequest struct {
	WithdrawalID      string           `json:"withdrawalID"` // Primary Key (UUID)
	GroupID           string           `json:"groupID"`
	EntryID           string           `json:"entryID"` // The DEBIT LedgerEntry this request authorizes
	Status            WithdrawalStatus `json:"status"`
	Approvals         int              `json:"approvals"`  // Cache of COUNT over votes, refreshed transactionally
	Rejections        int              `json:"rejections"` // Cache of COUNT over votes, refreshed transactionally
	ExternalReference *string          `json:"externalReference"`
	AuditFields
}

// CanTransition reports whether moving to the target status is permitted.
func (w *WithdrawalRequest) CanTransition(to WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[w.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the request to the target status or fails with
// ErrInvalidWithdrawalTransition.
func (w *WithdrawalRequest) Transition(to WithdrawalStatus) error {
	if !w.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidWithdrawalTransition, w.Status, to)
	}
	w.Status = to
	return nil
}

// QuorumReached reports whether count is a strict majority of totalMembers.
// Ties never reach quorum.
func QuorumReached(count, totalMembers int) bool {
	return count > totalMembers/2
}

// WithdrawalVote is one member's vote on one withdrawal request. Votes are
// append-only while the request is pending; (VoterID, WithdrawalID) is unique.
type WithdrawalVote struct {
	VoteID       string     `json:"voteID"` // Primary Key (UUID)
	WithdrawalID string     `json:"withdrawalID"`
	GroupID      string     `json:"groupID"`
	VoterID      string     `json:"voterID"`
	Choice       VoteChoice `json:"choice"`
	AuditFields
}
