package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

type mockWithdrawalRepo struct {
	mock.Mock
}

func (m *mockWithdrawalRepo) Create(ctx context.Context, freelancerID uuid.UUID, amount float64, bank models.BankDetails) (*models.Withdrawal, error) {
	args := m.Called(ctx, freelancerID, amount, bank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, id, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Withdrawal, error) {
	args := m.Called(ctx, id, adminID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

type mockBalanceReader struct {
	mock.Mock
}

func (m *mockBalanceReader) GetBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func TestWithdrawalService_Create_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)
	ctx := context.Background()

	freelancer := Actor{ID: uuid.New(), Role: models.RoleFreelancer}
	bank := models.BankDetails{BankCode: "MAYBANK", AccountNumber: "1234567890"}
	created := &models.Withdrawal{ID: uuid.New(), FreelancerID: freelancer.ID, Amount: 200, Status: models.WithdrawalStatusPending}

	repo.On("Create", ctx, freelancer.ID, float64(200), bank).Return(created, nil)

	w, err := svc.CreateWithdrawal(ctx, freelancer, 200, bank)

	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)
	repo.AssertExpectations(t)
}

func TestWithdrawalService_Create_NormalizesBankCode(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)
	ctx := context.Background()

	freelancer := Actor{ID: uuid.New(), Role: models.RoleFreelancer}
	normalized := models.BankDetails{BankCode: "CIMB", AccountNumber: "987654"}

	repo.On("Create", ctx, freelancer.ID, float64(50), normalized).
		Return(&models.Withdrawal{ID: uuid.New(), FreelancerID: freelancer.ID, Amount: 50, Status: models.WithdrawalStatusPending}, nil)

	_, err := svc.CreateWithdrawal(ctx, freelancer, 50, models.BankDetails{BankCode: " cimb ", AccountNumber: " 987654 "})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestWithdrawalService_Create_OnlyFreelancer(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockBalanceReader), nil)

	_, err := svc.CreateWithdrawal(context.Background(), Actor{ID: uuid.New(), Role: models.RoleClient}, 100,
		models.BankDetails{BankCode: "MAYBANK", AccountNumber: "123"})

	assert.True(t, apperror.IsForbidden(err))
}

func TestWithdrawalService_Create_NonPositiveAmount(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockBalanceReader), nil)
	freelancer := Actor{ID: uuid.New(), Role: models.RoleFreelancer}

	_, err := svc.CreateWithdrawal(context.Background(), freelancer, 0,
		models.BankDetails{BankCode: "MAYBANK", AccountNumber: "123"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateWithdrawal(context.Background(), freelancer, -10,
		models.BankDetails{BankCode: "MAYBANK", AccountNumber: "123"})
	assert.True(t, apperror.IsValidation(err))
}

func TestWithdrawalService_Create_UnknownBankCode(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockBalanceReader), nil)

	_, err := svc.CreateWithdrawal(context.Background(), Actor{ID: uuid.New(), Role: models.RoleFreelancer}, 100,
		models.BankDetails{BankCode: "UNKNOWN", AccountNumber: "123"})

	assert.True(t, apperror.IsValidation(err))
}

func TestWithdrawalService_Create_EmptyAccountNumber(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockBalanceReader), nil)

	_, err := svc.CreateWithdrawal(context.Background(), Actor{ID: uuid.New(), Role: models.RoleFreelancer}, 100,
		models.BankDetails{BankCode: "MAYBANK", AccountNumber: "   "})

	assert.True(t, apperror.IsValidation(err))
}

func TestWithdrawalService_Get_OwnerOrAdmin(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)
	ctx := context.Background()

	owner := uuid.New()
	id := uuid.New()
	w := &models.Withdrawal{ID: id, FreelancerID: owner, Amount: 100, Status: models.WithdrawalStatusPending}
	repo.On("GetByID", ctx, id).Return(w, nil)

	_, err := svc.GetWithdrawal(ctx, Actor{ID: owner, Role: models.RoleFreelancer}, id)
	assert.NoError(t, err)

	_, err = svc.GetWithdrawal(ctx, Actor{ID: uuid.New(), Role: models.RoleAdmin}, id)
	assert.NoError(t, err)

	_, err = svc.GetWithdrawal(ctx, Actor{ID: uuid.New(), Role: models.RoleFreelancer}, id)
	assert.True(t, apperror.IsForbidden(err))
}

func TestWithdrawalService_ListPending_AdminOnly(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)

	_, err := svc.ListPending(context.Background(), Actor{ID: uuid.New(), Role: models.RoleFreelancer}, 20, 0)

	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "ListPending")
}

func TestWithdrawalService_Approve_AdminOnly(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)

	_, err := svc.ApproveWithdrawal(context.Background(), Actor{ID: uuid.New(), Role: models.RoleFreelancer}, uuid.New())

	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Approve")
}

func TestWithdrawalService_Approve_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)
	ctx := context.Background()

	id := uuid.New()
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	approved := &models.Withdrawal{ID: id, FreelancerID: uuid.New(), Amount: 100, Status: models.WithdrawalStatusApproved}

	repo.On("Approve", ctx, id, admin.ID).Return(approved, nil)

	w, err := svc.ApproveWithdrawal(ctx, admin, id)

	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, w.Status)
}

func TestWithdrawalService_Reject_RequiresReason(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)

	_, err := svc.RejectWithdrawal(context.Background(), Actor{ID: uuid.New(), Role: models.RoleAdmin}, uuid.New(), "  ")

	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Reject")
}

func TestWithdrawalService_Reject_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := NewWithdrawalService(repo, new(mockBalanceReader), nil)
	ctx := context.Background()

	id := uuid.New()
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	rejected := &models.Withdrawal{ID: id, FreelancerID: uuid.New(), Amount: 100, Status: models.WithdrawalStatusRejected}

	repo.On("Reject", ctx, id, admin.ID, "реквизиты не прошли проверку").Return(rejected, nil)

	w, err := svc.RejectWithdrawal(ctx, admin, id, "реквизиты не прошли проверку")

	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, w.Status)
}

func TestWithdrawalService_GetBalance(t *testing.T) {
	balances := new(mockBalanceReader)
	svc := NewWithdrawalService(new(mockWithdrawalRepo), balances, nil)
	ctx := context.Background()

	freelancer := Actor{ID: uuid.New(), Role: models.RoleFreelancer}
	balances.On("GetBalance", ctx, freelancer.ID).Return(350.5, nil)

	balance, err := svc.GetBalance(ctx, freelancer)

	assert.NoError(t, err)
	assert.Equal(t, 350.5, balance)
}
