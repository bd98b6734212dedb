package services_test

import (
	"context"
	"testing"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type WithdrawalServiceTestSuite struct {
	suite.Suite
	mockWithdrawalRepo *MockWithdrawalRepository
	mockLedgerRepo     *MockLedgerRepository
	mockGroupRepo      *MockGroupRepository
	mockMembership     *MockGroupMembership
	mockDispatcher     *MockPaymentDispatcher
	mockPublisher      *MockEventPublisher
	service            *services.WithdrawalService
}

func (suite *WithdrawalServiceTestSuite) SetupTest() {
	suite.mockWithdrawalRepo = new(MockWithdrawalRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockGroupRepo = new(MockGroupRepository)
	suite.mockMembership = new(MockGroupMembership)
	suite.mockDispatcher = new(MockPaymentDispatcher)
	suite.mockPublisher = new(MockEventPublisher)

	repos := &portsrepo.RepositoryProvider{
		Withdrawal: suite.mockWithdrawalRepo,
		Ledger:     suite.mockLedgerRepo,
		Group:      suite.mockGroupRepo,
	}
	suite.service = services.NewWithdrawalService(repos, suite.mockMembership, suite.mockDispatcher, suite.mockPublisher, &StubNotifier{})
}

func (suite *WithdrawalServiceTestSuite) TestCreateRequest_Success() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.NewFromInt(8000), nil).Once()
	suite.mockWithdrawalRepo.On("CreateRequestWithEntry", ctx,
		mock.MatchedBy(func(e domain.LedgerEntry) bool {
			return e.Direction == domain.Debit && e.Reason == domain.ReasonWithdrawal && e.Amount.Equal(decimal.NewFromInt(3000))
		}),
		mock.MatchedBy(func(r domain.WithdrawalRequest) bool {
			return r.Status == domain.WithdrawalPending && r.GroupID == "grp-1"
		}),
	).Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil).Once()

	request, err := suite.service.CreateRequest(ctx, "grp-1", "m-admin", decimal.NewFromInt(3000), "School fees float")

	suite.Require().NoError(err)
	suite.Require().NotNil(request)
	suite.Equal(domain.WithdrawalPending, request.Status)
	suite.mockWithdrawalRepo.AssertExpectations(suite.T())
}

func (suite *WithdrawalServiceTestSuite) TestCreateRequest_NonAdminForbidden() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()

	_, err := suite.service.CreateRequest(ctx, "grp-1", "m-2", decimal.NewFromInt(100), "x")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockWithdrawalRepo.AssertNotCalled(suite.T(), "CreateRequestWithEntry")
}

func (suite *WithdrawalServiceTestSuite) TestCreateRequest_ExceedsCashAtHand() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.NewFromInt(1000), nil).Once()

	_, err := suite.service.CreateRequest(ctx, "grp-1", "m-admin", decimal.NewFromInt(3000), "x")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.mockWithdrawalRepo.AssertNotCalled(suite.T(), "CreateRequestWithEntry")
}

func (suite *WithdrawalServiceTestSuite) TestCreateRequest_SecondPendingConflicts() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockLedgerRepo.On("CashAtHand", ctx, "grp-1").Return(decimal.NewFromInt(8000), nil).Once()
	suite.mockWithdrawalRepo.On("CreateRequestWithEntry", ctx, mock.Anything, mock.Anything).
		Return(apperrors.ErrConflict).Once()

	_, err := suite.service.CreateRequest(ctx, "grp-1", "m-admin", decimal.NewFromInt(100), "x")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *WithdrawalServiceTestSuite) TestCastVote_QuorumApprovesAndDispatches() {
	ctx := context.Background()
	voter := &domain.Member{MemberID: "m-3", GroupID: "grp-1"}
	pending := &domain.WithdrawalRequest{WithdrawalID: "wd-1", GroupID: "grp-1", EntryID: "le-1", Status: domain.WithdrawalPending}
	approved := &domain.WithdrawalRequest{WithdrawalID: "wd-1", GroupID: "grp-1", EntryID: "le-1", Status: domain.WithdrawalApproved, Approvals: 3}
	entry := &domain.LedgerEntry{EntryID: "le-1", GroupID: "grp-1", Amount: decimal.NewFromInt(3000)}
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}
	admin := &domain.Member{MemberID: "m-admin", GroupID: "grp-1", Phone: "254700000009"}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-3").Return(voter, nil).Once()
	suite.mockWithdrawalRepo.On("FindRequestByID", ctx, "wd-1").Return(pending, nil).Once()
	suite.mockMembership.On("TotalCount", ctx, "grp-1").Return(5, nil).Once()
	suite.mockWithdrawalRepo.On("RecordVote", ctx, mock.MatchedBy(func(v domain.WithdrawalVote) bool {
		return v.WithdrawalID == "wd-1" && v.VoterID == "m-3" && v.Choice == domain.VoteApprove
	}), 5).Return(approved, nil).Once()
	suite.mockLedgerRepo.On("FindEntryByID", ctx, "le-1").Return(entry, nil).Once()
	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-admin").Return(admin, nil).Once()
	suite.mockDispatcher.On("DispatchOutbound", ctx, "grp-1", "254700000009", decimal.NewFromInt(3000), domain.ReasonWithdrawal, "wd-1").
		Return("B2C-REF-9", nil).Once()
	suite.mockWithdrawalRepo.On("SetExternalReference", ctx, "wd-1", "B2C-REF-9").Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, "wd-1", mock.Anything).Return(nil).Once()

	result, err := suite.service.CastVote(ctx, "grp-1", "wd-1", "m-3", domain.VoteApprove)

	suite.Require().NoError(err)
	suite.Equal(string(domain.WithdrawalApproved), result.Status)
	suite.Equal(3, result.Approvals)
	suite.mockDispatcher.AssertExpectations(suite.T())
	suite.mockWithdrawalRepo.AssertExpectations(suite.T())
}

func (suite *WithdrawalServiceTestSuite) TestCastVote_BelowQuorumNoDispatch() {
	ctx := context.Background()
	voter := &domain.Member{MemberID: "m-2", GroupID: "grp-1"}
	pending := &domain.WithdrawalRequest{WithdrawalID: "wd-1", GroupID: "grp-1", EntryID: "le-1", Status: domain.WithdrawalPending}
	stillPending := &domain.WithdrawalRequest{WithdrawalID: "wd-1", GroupID: "grp-1", EntryID: "le-1", Status: domain.WithdrawalPending, Approvals: 2}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-2").Return(voter, nil).Once()
	suite.mockWithdrawalRepo.On("FindRequestByID", ctx, "wd-1").Return(pending, nil).Once()
	suite.mockMembership.On("TotalCount", ctx, "grp-1").Return(5, nil).Once()
	suite.mockWithdrawalRepo.On("RecordVote", ctx, mock.AnythingOfType("domain.WithdrawalVote"), 5).
		Return(stillPending, nil).Once()

	result, err := suite.service.CastVote(ctx, "grp-1", "wd-1", "m-2", domain.VoteApprove)

	suite.Require().NoError(err)
	suite.Equal(string(domain.WithdrawalPending), result.Status)
	suite.mockDispatcher.AssertNotCalled(suite.T(), "DispatchOutbound")
}

func (suite *WithdrawalServiceTestSuite) TestCastVote_RepeatVoteDuplicates() {
	ctx := context.Background()
	voter := &domain.Member{MemberID: "m-1", GroupID: "grp-1"}
	pending := &domain.WithdrawalRequest{WithdrawalID: "wd-1", GroupID: "grp-1", EntryID: "le-1", Status: domain.WithdrawalPending}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-1").Return(voter, nil).Once()
	suite.mockWithdrawalRepo.On("FindRequestByID", ctx, "wd-1").Return(pending, nil).Once()
	suite.mockMembership.On("TotalCount", ctx, "grp-1").Return(5, nil).Once()
	suite.mockWithdrawalRepo.On("RecordVote", ctx, mock.AnythingOfType("domain.WithdrawalVote"), 5).
		Return(nil, apperrors.ErrDuplicate).Once()

	_, err := suite.service.CastVote(ctx, "grp-1", "wd-1", "m-1", domain.VoteApprove)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *WithdrawalServiceTestSuite) TestCastVote_OutsiderForbidden() {
	ctx := context.Background()
	outsider := &domain.Member{MemberID: "m-x", GroupID: "grp-2"}

	suite.mockGroupRepo.On("FindMemberByID", ctx, "m-x").Return(outsider, nil).Once()

	_, err := suite.service.CastVote(ctx, "grp-1", "wd-1", "m-x", domain.VoteApprove)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockWithdrawalRepo.AssertNotCalled(suite.T(), "RecordVote")
}

func (suite *WithdrawalServiceTestSuite) TestCancel_AdminOnly() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()

	err := suite.service.Cancel(ctx, "grp-1", "wd-1", "m-2")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockWithdrawalRepo.AssertNotCalled(suite.T(), "TransitionStatus")
}

func (suite *WithdrawalServiceTestSuite) TestCancel_Success() {
	ctx := context.Background()
	group := &domain.Group{GroupID: "grp-1", AdminID: "m-admin"}
	pending := &domain.WithdrawalRequest{WithdrawalID: "wd-1", GroupID: "grp-1", Status: domain.WithdrawalPending}

	suite.mockGroupRepo.On("FindGroupByID", ctx, "grp-1").Return(group, nil).Once()
	suite.mockWithdrawalRepo.On("FindRequestByID", ctx, "wd-1").Return(pending, nil).Once()
	suite.mockWithdrawalRepo.On("TransitionStatus", ctx, "wd-1", domain.WithdrawalPending, domain.WithdrawalCancelled, "m-admin").
		Return(nil).Once()

	err := suite.service.Cancel(ctx, "grp-1", "wd-1", "m-admin")

	suite.Require().NoError(err)
	suite.mockWithdrawalRepo.AssertExpectations(suite.T())
}

func TestWithdrawalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WithdrawalServiceTestSuite))
}
