package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LoanServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	mockLoanRepo   *MockLoanRepository
	mockGroupRepo  *MockGroupRepository
	mockDispatcher *MockPaymentDispatcher
	mockPublisher  *MockEventPublisher
	service        *services.LoanService
}

func (suite *LoanServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockGroupRepo = new(MockGroupRepository)
	suite.mockDispatcher = new(MockPaymentDispatcher)
	suite.mockPublisher = new(MockEventPublisher)

	repos := &portsrepo.RepositoryProvider{
		Ledger: suite.mockLedgerRepo,
		Loan:   suite.mockLoanRepo,
		Group:  suite.mockGroupRepo,
	}
	ledgerSvc := services.NewLedgerService(repos, suite.mockDispatcher, decimal.RequireFromString("0.4"))
	suite.service = services.NewLoanService(repos, ledgerSvc, suite.mockDispatcher, suite.mockPublisher, &StubNotifier{})
}

func (suite *LoanServiceTestSuite) expectEntitlement(ctx context.Context, total, cash, member int64) {
	suite.mockLedgerRepo.On("TotalContributions", ctx, "grp-1").Return(decimal.NewFromInt(total), nil).Once()
	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.NewFromInt(cash), nil).Once()
	suite.mockLedgerRepo.On("MemberContributions", ctx, "grp-1", "m-1").Return(decimal.NewFromInt(member), nil).Once()
}

func (suite *LoanServiceTestSuite) TestRequestLoan_Success() {
	ctx := context.Background()
	group := &domain.Group{
		GroupID:               "grp-1",
		AdminID:               "m-9",
		LoanInterestRate:      decimal.RequireFromString("0.05"),
		LoanInterestFrequency: domain.FrequencyMonthly,
	}
	borrower := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(borrower, nil).Once()
	suite.expectEntitlement(ctx, 10000, 8000, 2500) // entitlement 800
	suite.mockLoanRepo.On("SumOutstandingByBorrower", ctx, "grp-1", "m-1").Return(decimal.Zero, nil).Once()
	suite.mockLoanRepo.On("SaveLoan", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.Status == domain.LoanApproved && l.Principal.Equal(decimal.NewFromInt(500))
	})).Return(nil).Once()
	suite.mockDispatcher.On("DispatchOutbound", ctx, "grp-1", "254700000001", decimal.NewFromInt(500), domain.ReasonLoanDisbursement, mock.AnythingOfType("string")).
		Return("B2C-REF-1", nil).Once()
	suite.mockLoanRepo.On("UpdateLoan", ctx, mock.MatchedBy(func(l domain.Loan) bool {
		return l.ExternalReference != nil && *l.ExternalReference == "B2C-REF-1"
	})).Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil).Once()

	resp, err := suite.service.RequestLoan(ctx, "grp-1", "m-1", decimal.NewFromInt(500))

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(string(domain.LoanApproved), resp.Status)
	suite.mockLoanRepo.AssertExpectations(suite.T())
	suite.mockDispatcher.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestRequestLoan_ExceedsCapacity() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", LoanInterestRate: decimal.RequireFromString("0.05"), LoanInterestFrequency: domain.FrequencyMonthly}
	borrower := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(borrower, nil).Once()
	suite.expectEntitlement(ctx, 10000, 8000, 2500) // entitlement 800
	suite.mockLoanRepo.On("SumOutstandingByBorrower", ctx, "grp-1", "m-1").Return(decimal.NewFromInt(600), nil).Once()

	_, err := suite.service.RequestLoan(ctx, "grp-1", "m-1", decimal.NewFromInt(300))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.mockLoanRepo.AssertNotCalled(suite.T(), "SaveLoan")
	suite.mockDispatcher.AssertNotCalled(suite.T(), "DispatchOutbound")
}

func (suite *LoanServiceTestSuite) TestRequestLoan_DispatchFailureKeepsLoan() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", LoanInterestRate: decimal.RequireFromString("0.05"), LoanInterestFrequency: domain.FrequencyMonthly}
	borrower := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(borrower, nil).Once()
	suite.expectEntitlement(ctx, 10000, 8000, 2500)
	suite.mockLoanRepo.On("SumOutstandingByBorrower", ctx, "grp-1", "m-1").Return(decimal.Zero, nil).Once()
	suite.mockLoanRepo.On("SaveLoan", ctx, mock.AnythingOfType("domain.Loan")).Return(nil).Once()
	suite.mockDispatcher.On("DispatchOutbound", ctx, "grp-1", "254700000001", decimal.NewFromInt(500), domain.ReasonLoanDisbursement, mock.AnythingOfType("string")).
		Return("", assert.AnError).Once()

	_, err := suite.service.RequestLoan(ctx, "grp-1", "m-1", decimal.NewFromInt(500))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrExternalGateway)
	suite.mockLoanRepo.AssertExpectations(suite.T())
	suite.mockLoanRepo.AssertNotCalled(suite.T(), "UpdateLoan")
}

func (suite *LoanServiceTestSuite) TestInitiateRepayment_CapsAtOutstandingBalance() {
	ctx := context.Background()
	member := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}
	disbursed := time.Now().Add(-10 * 24 * time.Hour)
	loan := &domain.Loan{
		LoanID:               "loan-1",
		GroupID:              "grp-1",
		BorrowerID:           "m-1",
		Principal:            decimal.NewFromInt(1000),
		OutstandingPrincipal: decimal.NewFromInt(1000),
		InterestRate:         decimal.RequireFromString("0.05"),
		InterestFrequency:    domain.FrequencyMonthly,
		Status:               domain.LoanDisbursed,
		DisbursedAt:          &disbursed,
	}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(member, nil).Once()
	suite.mockLoanRepo.On("FindActiveLoanByBorrower", ctx, "grp-1", "m-1").Return(loan, nil).Once()

	_, err := suite.service.InitiateRepayment(ctx, "m-1", decimal.NewFromInt(5000))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockDispatcher.AssertNotCalled(suite.T(), "InitiateCollection")
}

func (suite *LoanServiceTestSuite) TestInitiateRepayment_Success() {
	ctx := context.Background()
	member := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}
	disbursed := time.Now().Add(-10 * 24 * time.Hour)
	loan := &domain.Loan{
		LoanID:               "loan-1",
		GroupID:              "grp-1",
		BorrowerID:           "m-1",
		Principal:            decimal.NewFromInt(1000),
		OutstandingPrincipal: decimal.NewFromInt(1000),
		InterestRate:         decimal.RequireFromString("0.05"),
		InterestFrequency:    domain.FrequencyMonthly,
		Status:               domain.LoanDisbursed,
		DisbursedAt:          &disbursed,
	}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(member, nil).Once()
	suite.mockLoanRepo.On("FindActiveLoanByBorrower", ctx, "grp-1", "m-1").Return(loan, nil).Once()
	suite.mockDispatcher.On("InitiateCollection", ctx, "grp-1", "254700000001", decimal.NewFromInt(400), "REPAY-loan-1").
		Return("CHK-1", nil).Once()

	checkoutID, err := suite.service.InitiateRepayment(ctx, "m-1", decimal.NewFromInt(400))

	suite.Require().NoError(err)
	suite.Equal("CHK-1", checkoutID)
	suite.mockDispatcher.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestInitiateRepayment_NoActiveLoan() {
	ctx := context.Background()
	member := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(member, nil).Once()
	suite.mockLoanRepo.On("FindActiveLoanByBorrower", ctx, "grp-1", "m-1").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.InitiateRepayment(ctx, "m-1", decimal.NewFromInt(100))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestLoanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}
