package services_test

import (
	"context"
	"testing"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/core/services"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	mockLoanRepo   *MockLoanRepository
	mockGroupRepo  *MockGroupRepository
	mockDispatcher *MockPaymentDispatcher
	service        *services.LedgerService
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockGroupRepo = new(MockGroupRepository)
	suite.mockDispatcher = new(MockPaymentDispatcher)
	repos := &portsrepo.RepositoryProvider{
		Ledger: suite.mockLedgerRepo,
		Loan:   suite.mockLoanRepo,
		Group:  suite.mockGroupRepo,
	}
	suite.service = services.NewLedgerService(repos, suite.mockDispatcher, decimal.RequireFromString("0.4"))
}

func (suite *LedgerServiceTestSuite) TestMemberEntitlement() {
	ctx := context.Background()

	suite.mockLedgerRepo.On("TotalContributions", ctx, "grp-1").Return(decimal.NewFromInt(10000), nil).Once()
	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.NewFromInt(8000), nil).Once()
	suite.mockLedgerRepo.On("MemberContributions", ctx, "grp-1", "m-1").Return(decimal.NewFromInt(2500), nil).Once()

	entitlement, err := suite.service.MemberEntitlement(ctx, "grp-1", "m-1")

	suite.Require().NoError(err)
	suite.Equal("800.00", entitlement.StringFixed(2))
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestMemberEntitlement_NoContributions() {
	ctx := context.Background()

	suite.mockLedgerRepo.On("TotalContributions", ctx, "grp-1").Return(decimal.Zero, nil).Once()

	_, err := suite.service.MemberEntitlement(ctx, "grp-1", "m-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestMemberEntitlement_NoCash() {
	ctx := context.Background()

	suite.mockLedgerRepo.On("TotalContributions", ctx, "grp-1").Return(decimal.NewFromInt(10000), nil).Once()
	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.Zero, nil).Once()

	_, err := suite.service.MemberEntitlement(ctx, "grp-1", "m-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *LedgerServiceTestSuite) TestRecordEntry_Success() {
	ctx := context.Background()
	memberID := "m-1"

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(&domain.Group{GroupID: "grp-1"}, nil).Once()
	suite.mockLedgerRepo.On("SaveEntry", ctx, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.GroupID == "grp-1" && e.Reason == domain.ReasonContribution && e.EntryID != ""
	})).Return(nil).Once()

	entry, err := suite.service.RecordEntry(ctx, dto.RecordEntryRequest{
		GroupID:    "grp-1",
		MemberID:   &memberID,
		Amount:     decimal.NewFromInt(500),
		Direction:  domain.Credit,
		Reason:     domain.ReasonContribution,
		RecordedBy: memberID,
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.NotEmpty(entry.EntryID)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
	suite.mockGroupRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestRecordEntry_RejectsNonPositiveAmount() {
	ctx := context.Background()

	_, err := suite.service.RecordEntry(ctx, dto.RecordEntryRequest{
		GroupID:   "grp-1",
		Amount:    decimal.Zero,
		Direction: domain.Credit,
		Reason:    domain.ReasonContribution,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestRecordEntry_RejectsUnknownReason() {
	ctx := context.Background()

	_, err := suite.service.RecordEntry(ctx, dto.RecordEntryRequest{
		GroupID:   "grp-1",
		Amount:    decimal.NewFromInt(100),
		Direction: domain.Credit,
		Reason:    domain.EntryReason("GIFT"),
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestInitiateContribution_Success() {
	ctx := context.Background()
	member := &domain.Member{MemberID: "m-1", GroupID: "grp-1", Phone: "254700000001"}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(member, nil).Once()
	suite.mockDispatcher.On("InitiateCollection", ctx, "grp-1", "254700000001", decimal.NewFromInt(500), "CONTRIB-m-1").
		Return("ws_CO_1", nil).Once()

	checkoutID, err := suite.service.InitiateContribution(ctx, "grp-1", "m-1", decimal.NewFromInt(500))

	suite.Require().NoError(err)
	suite.Equal("ws_CO_1", checkoutID)
	suite.mockDispatcher.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestInitiateContribution_OutsiderForbidden() {
	ctx := context.Background()
	member := &domain.Member{MemberID: "m-1", GroupID: "grp-2", Phone: "254700000001"}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(member, nil).Once()

	_, err := suite.service.InitiateContribution(ctx, "grp-1", "m-1", decimal.NewFromInt(500))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockDispatcher.AssertNotCalled(suite.T(), "InitiateCollection", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestAccountSummary_ZeroEntitlementReportedAsZero() {
	ctx := context.Background()

	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.Zero, nil)
	suite.mockLedgerRepo.On("TotalContributions", ctx, "grp-1").Return(decimal.Zero, nil)
	suite.mockLedgerRepo.On("MemberContributions", ctx, "grp-1", "m-1").Return(decimal.Zero, nil)
	suite.mockLoanRepo.On("SumOutstandingByBorrower", ctx, "grp-1", "m-1").Return(decimal.Zero, nil).Once()

	summary, err := suite.service.AccountSummary(ctx, "grp-1", "m-1")

	suite.Require().NoError(err)
	suite.True(summary.Entitlement.IsZero())
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
