package mapping

import (
	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/models"
)

// ToDomainGroup converts a model group to its domain form.
func ToDomainGroup(m models.Group) domain.Group {
	return domain.Group{
		GroupID:               m.GroupID,
		Name:                  m.Name,
		AdminID:               m.AdminID,
		LoanInterestRate:      m.LoanInterestRate,
		LoanInterestFrequency: domain.InterestFrequency(m.LoanInterestFrequency),
		MpesaShortcode:        m.MpesaShortcode,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainMember converts a model member to its domain form.
func ToDomainMember(m models.Member) domain.Member {
	return domain.Member{
		MemberID: m.MemberID,
		GroupID:  m.GroupID,
		Name:     m.Name,
		Phone:    m.Phone,
		IsAdmin:  m.IsAdmin,
	}
}

// ToDomainNotification converts a model notification to its domain form.
func ToDomainNotification(m models.Notification) domain.Notification {
	return domain.Notification{
		NotificationID: m.NotificationID,
		MemberID:       m.MemberID,
		GroupID:        m.GroupID,
		Message:        m.Message,
		Category:       domain.NotificationCategory(m.Category),
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}
