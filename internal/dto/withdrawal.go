package dto

import (
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateWithdrawalRequest opens a withdrawal for group vote.
type CreateWithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

// CastVoteRequest records the caller's vote on a pending withdrawal.
type CastVoteRequest struct {
	Choice string `json:"choice" binding:"required,votechoice"`
}

// VoteResultResponse reports the tallies and status after a vote lands.
type VoteResultResponse struct {
	WithdrawalID string `json:"withdrawalID"`
	Status       string `json:"status"`
	Approvals    int    `json:"approvals"`
	Rejections   int    `json:"rejections"`
}

// WithdrawalResponse is the API view of a withdrawal request.
type WithdrawalResponse struct {
	WithdrawalID string          `json:"withdrawalID"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	Status       string          `json:"status"`
	Approvals    int             `json:"approvals"`
	Rejections   int             `json:"rejections"`
	RequestedBy  string          `json:"requestedBy"`
	RequestedAt  time.Time       `json:"requestedAt"`
}

// ToWithdrawalResponse builds the API view from a request and its DEBIT entry.
func ToWithdrawalResponse(w *domain.WithdrawalRequest, entry *domain.LedgerEntry) WithdrawalResponse {
	resp := WithdrawalResponse{
		WithdrawalID: w.WithdrawalID,
		Status:       string(w.Status),
		Approvals:    w.Approvals,
		Rejections:   w.Rejections,
		RequestedBy:  w.CreatedBy,
		RequestedAt:  w.CreatedAt,
	}
	if entry != nil {
		resp.Amount = entry.Amount
		resp.Reason = entry.Description
	}
	return resp
}
