package mapping

import (
	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/models"
)

// ToModelLoan converts a domain loan to its model form.
func ToModelLoan(l domain.Loan) models.Loan {
	return models.Loan{
		LoanID:               l.LoanID,
		GroupID:              l.GroupID,
		BorrowerID:           l.BorrowerID,
		Principal:            l.Principal,
		OutstandingPrincipal: l.OutstandingPrincipal,
		InterestRate:         l.InterestRate,
		InterestFrequency:    string(l.InterestFrequency),
		Status:               string(l.Status),
		DisbursedAt:          l.DisbursedAt,
		ExternalReference:    l.ExternalReference,
		EntryID:              l.EntryID,
		AuditFields:          ToModelAuditFields(l.AuditFields),
	}
}

// ToDomainLoan converts a model loan to its domain form.
func ToDomainLoan(m models.Loan) domain.Loan {
	return domain.Loan{
		LoanID:               m.LoanID,
		GroupID:              m.GroupID,
		BorrowerID:           m.BorrowerID,
		Principal:            m.Principal,
		OutstandingPrincipal: m.OutstandingPrincipal,
		InterestRate:         m.InterestRate,
		InterestFrequency:    domain.InterestFrequency(m.InterestFrequency),
		Status:               domain.LoanStatus(m.Status),
		DisbursedAt:          m.DisbursedAt,
		ExternalReference:    m.ExternalReference,
		EntryID:              m.EntryID,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLoanSlice converts a slice of model loans.
func ToDomainLoanSlice(ms []models.Loan) []domain.Loan {
	out := make([]domain.Loan, len(ms))
	for i, m := range ms {
		out[i] = ToDomainLoan(m)
	}
	return out
}
