package services_test

import (
	"context"
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerRepositoryFacade ---

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindEntryByReference(ctx context.Context, groupID string, reference string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, groupID, reference)
	var entry *domain.LedgerEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*domain.LedgerEntry)
	}
	return entry, args.Error(1)
}

func (m *MockLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	var entry *domain.LedgerEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*domain.LedgerEntry)
	}
	return entry, args.Error(1)
}

func (m *MockLedgerRepository) FindEntriesByIDs(ctx context.Context, entryIDs []string) (map[string]domain.LedgerEntry, error) {
	args := m.Called(ctx, entryIDs)
	var entries map[string]domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).(map[string]domain.LedgerEntry)
	}
	return entries, args.Error(1)
}

func (m *MockLedgerRepository) CashAtHand(ctx context.Context, groupID string) (decimal.Decimal, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) TotalContributions(ctx context.Context, groupID string) (decimal.Decimal, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) MemberContributions(ctx context.Context, groupID string, memberID string) (decimal.Decimal, error) {
	args := m.Called(ctx, groupID, memberID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) ListMemberEntries(ctx context.Context, groupID string, memberID string, reason *domain.EntryReason, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, groupID, memberID, reason, limit)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	return entries, args.Error(1)
}

func (m *MockLedgerRepository) ListGroupEntries(ctx context.Context, groupID string, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, groupID, limit)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	return entries, args.Error(1)
}

// --- Mock LoanRepositoryFacade ---

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	var loan *domain.Loan
	if args.Get(0) != nil {
		loan = args.Get(0).(*domain.Loan)
	}
	return loan, args.Error(1)
}

func (m *MockLoanRepository) FindLoanByReference(ctx context.Context, reference string) (*domain.Loan, error) {
	args := m.Called(ctx, reference)
	var loan *domain.Loan
	if args.Get(0) != nil {
		loan = args.Get(0).(*domain.Loan)
	}
	return loan, args.Error(1)
}

func (m *MockLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) MarkDisbursed(ctx context.Context, loan domain.Loan, entry domain.LedgerEntry, disbursedAt time.Time) error {
	args := m.Called(ctx, loan, entry, disbursedAt)
	return args.Error(0)
}

func (m *MockLoanRepository) ApplyRepayment(ctx context.Context, entry domain.LedgerEntry, asOf time.Time) (*domain.Loan, error) {
	args := m.Called(ctx, entry, asOf)
	var loan *domain.Loan
	if args.Get(0) != nil {
		loan = args.Get(0).(*domain.Loan)
	}
	return loan, args.Error(1)
}

func (m *MockLoanRepository) FindActiveLoanByBorrower(ctx context.Context, groupID string, borrowerID string) (*domain.Loan, error) {
	args := m.Called(ctx, groupID, borrowerID)
	var loan *domain.Loan
	if args.Get(0) != nil {
		loan = args.Get(0).(*domain.Loan)
	}
	return loan, args.Error(1)
}

func (m *MockLoanRepository) SumOutstandingByBorrower(ctx context.Context, groupID string, borrowerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, groupID, borrowerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLoanRepository) ListLoansByBorrower(ctx context.Context, groupID string, borrowerID string) ([]domain.Loan, error) {
	args := m.Called(ctx, groupID, borrowerID)
	var loans []domain.Loan
	if args.Get(0) != nil {
		loans = args.Get(0).([]domain.Loan)
	}
	return loans, args.Error(1)
}

// --- Mock WithdrawalRepositoryFacade ---

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) CreateRequestWithEntry(ctx context.Context, entry domain.LedgerEntry, request domain.WithdrawalRequest) error {
	args := m.Called(ctx, entry, request)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) RecordVote(ctx context.Context, vote domain.WithdrawalVote, totalMembers int) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, vote, totalMembers)
	var request *domain.WithdrawalRequest
	if args.Get(0) != nil {
		request = args.Get(0).(*domain.WithdrawalRequest)
	}
	return request, args.Error(1)
}

func (m *MockWithdrawalRepository) TransitionStatus(ctx context.Context, withdrawalID string, from, to domain.WithdrawalStatus, updatedBy string) error {
	args := m.Called(ctx, withdrawalID, from, to, updatedBy)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) SetExternalReference(ctx context.Context, withdrawalID string, reference string) error {
	args := m.Called(ctx, withdrawalID, reference)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) FindRequestByID(ctx context.Context, withdrawalID string) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, withdrawalID)
	var request *domain.WithdrawalRequest
	if args.Get(0) != nil {
		request = args.Get(0).(*domain.WithdrawalRequest)
	}
	return request, args.Error(1)
}

func (m *MockWithdrawalRepository) FindRequestByReference(ctx context.Context, reference string) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, reference)
	var request *domain.WithdrawalRequest
	if args.Get(0) != nil {
		request = args.Get(0).(*domain.WithdrawalRequest)
	}
	return request, args.Error(1)
}

func (m *MockWithdrawalRepository) FindPendingByGroup(ctx context.Context, groupID string) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, groupID)
	var request *domain.WithdrawalRequest
	if args.Get(0) != nil {
		request = args.Get(0).(*domain.WithdrawalRequest)
	}
	return request, args.Error(1)
}

func (m *MockWithdrawalRepository) ListRequestsByGroup(ctx context.Context, groupID string) ([]domain.WithdrawalRequest, error) {
	args := m.Called(ctx, groupID)
	var requests []domain.WithdrawalRequest
	if args.Get(0) != nil {
		requests = args.Get(0).([]domain.WithdrawalRequest)
	}
	return requests, args.Error(1)
}

// --- Mock GroupRepositoryFacade ---

type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	args := m.Called(ctx, groupID)
	var group *domain.Group
	if args.Get(0) != nil {
		group = args.Get(0).(*domain.Group)
	}
	return group, args.Error(1)
}

func (m *MockGroupRepository) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	args := m.Called(ctx, memberID)
	var member *domain.Member
	if args.Get(0) != nil {
		member = args.Get(0).(*domain.Member)
	}
	return member, args.Error(1)
}

func (m *MockGroupRepository) FindMemberByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	args := m.Called(ctx, phone)
	var member *domain.Member
	if args.Get(0) != nil {
		member = args.Get(0).(*domain.Member)
	}
	return member, args.Error(1)
}

func (m *MockGroupRepository) ListGroupMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	args := m.Called(ctx, groupID)
	var members []domain.Member
	if args.Get(0) != nil {
		members = args.Get(0).([]domain.Member)
	}
	return members, args.Error(1)
}

func (m *MockGroupRepository) CountGroupMembers(ctx context.Context, groupID string) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

// --- Mock NotificationRepositoryFacade ---

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) SaveNotifications(ctx context.Context, notifications []domain.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByMember(ctx context.Context, memberID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, memberID, unreadOnly, limit)
	var notifications []domain.Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]domain.Notification)
	}
	return notifications, args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, notificationID string, memberID string) error {
	args := m.Called(ctx, notificationID, memberID)
	return args.Error(0)
}

// --- Mock PaymentDispatcher ---

type MockPaymentDispatcher struct {
	mock.Mock
}

func (m *MockPaymentDispatcher) DispatchOutbound(ctx context.Context, groupID string, destination string, amount decimal.Decimal, reason domain.EntryReason, correlationID string) (string, error) {
	args := m.Called(ctx, groupID, destination, amount, reason, correlationID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentDispatcher) InitiateCollection(ctx context.Context, groupID string, phone string, amount decimal.Decimal, accountReference string) (string, error) {
	args := m.Called(ctx, groupID, phone, amount, accountReference)
	return args.String(0), args.Error(1)
}

// --- Mock EventPublisher ---

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, event any) error {
	args := m.Called(ctx, key, event)
	return args.Error(0)
}

// --- Stub notifier, delivery is fire-and-forget so tests only need a sink ---

type StubNotifier struct{}

func (s *StubNotifier) NotifyMember(ctx context.Context, memberID string, groupID string, message string, category domain.NotificationCategory) {
}

func (s *StubNotifier) NotifyGroup(ctx context.Context, groupID string, message string, category domain.NotificationCategory) {
}

func (s *StubNotifier) ListMemberNotifications(ctx context.Context, memberID string, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (s *StubNotifier) MarkRead(ctx context.Context, memberID string, notificationID string) error {
	return nil
}

// --- Mock GroupMembership ---

type MockGroupMembership struct {
	mock.Mock
}

func (m *MockGroupMembership) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

func (m *MockGroupMembership) TotalCount(ctx context.Context, groupID string) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}
