package mapping

import (
	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/models"
)

// ToModelWithdrawalRequest converts a domain withdrawal request to its model form.
func ToModelWithdrawalRequest(w domain.WithdrawalRequest) models.WithdrawalRequest {
	return models.WithdrawalRequest{
		WithdrawalID:      w.WithdrawalID,
		GroupID:           w.GroupID,
		EntryID:           w.EntryID,
		Status:            string(w.Status),
		Approvals:         w.Approvals,
		Rejections:        w.Rejections,
		ExternalReference: w.ExternalReference,
		AuditFields:       ToModelAuditFields(w.AuditFields),
	}
}

// ToDomainWithdrawalRequest converts a model withdrawal request to its domain form.
func ToDomainWithdrawalRequest(m models.WithdrawalRequest) domain.WithdrawalRequest {
	return domain.WithdrawalRequest{
		WithdrawalID:      m.WithdrawalID,
		GroupID:           m.GroupID,
		EntryID:           m.EntryID,
		Status:            domain.WithdrawalStatus(m.Status),
		Approvals:         m.Approvals,
		Rejections:        m.Rejections,
		ExternalReference: m.ExternalReference,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelWithdrawalVote converts a domain vote to its model form.
func ToModelWithdrawalVote(v domain.WithdrawalVote) models.WithdrawalVote {
	return models.WithdrawalVote{
		VoteID:       v.VoteID,
		WithdrawalID: v.WithdrawalID,
		GroupID:      v.GroupID,
		VoterID:      v.VoterID,
		Choice:       string(v.Choice),
		AuditFields:  ToModelAuditFields(v.AuditFields),
	}
}

// ToDomainWithdrawalRequestSlice converts a slice of model requests.
func ToDomainWithdrawalRequestSlice(ms []models.WithdrawalRequest) []domain.WithdrawalRequest {
	out := make([]domain.WithdrawalRequest, len(ms))
	for i, m := range ms {
		out[i] = ToDomainWithdrawalRequest(m)
	}
	return out
}
