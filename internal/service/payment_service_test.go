package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/billing"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/repository"
)

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) CreatePayment(ctx context.Context, jobID uuid.UUID, amount float64, gateway, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, jobID, amount, gateway, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) GetPaymentByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) MarkPaymentCompleted(ctx context.Context, transactionID string) (*models.Payment, bool, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Payment), args.Bool(1), args.Error(2)
}

func (m *mockPaymentRepo) MarkPaymentFailed(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *mockPaymentRepo) DeletePendingPayment(ctx context.Context, paymentID uuid.UUID) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateBill(ctx context.Context, in billing.CreateBillInput) (*billing.Bill, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *mockGateway) GetBill(ctx context.Context, billID string) (*billing.Bill, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *mockGateway) VerifySignature(p billing.WebhookPayload) bool {
	args := m.Called(p)
	return args.Bool(0)
}

type mockEscrowRepo struct {
	mock.Mock
}

func (m *mockEscrowRepo) EnsureEscrow(ctx context.Context, jobID uuid.UUID, amount float64) (*models.Escrow, error) {
	args := m.Called(ctx, jobID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) GetEscrowByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) HoldEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) ReleaseEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) RefundEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type paymentFixture struct {
	payments *mockPaymentRepo
	jobs     *mockJobRepo
	users    *mockUserReader
	gateway  *mockGateway
	escrow   *mockEscrowRepo
	svc      *PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		payments: new(mockPaymentRepo),
		jobs:     new(mockJobRepo),
		users:    new(mockUserReader),
		gateway:  new(mockGateway),
		escrow:   new(mockEscrowRepo),
	}
	f.svc = NewPaymentService(f.payments, f.jobs, f.users, f.gateway, NewEscrowService(f.escrow, nil), nil, PaymentURLs{
		CallbackURL: "https://app/payments/webhook",
		RedirectURL: "https://app/payments/redirect",
	})
	return f
}

func paidPayload(txnID string) billing.WebhookPayload {
	return billing.WebhookPayload{
		ID:    txnID,
		Paid:  "true",
		State: billing.BillStatePaid,
	}
}

func TestPaymentService_CreateBill_Success(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Amount: 150, Status: models.JobStatusAccepted}
	payment := &models.Payment{ID: uuid.New(), JobID: jobID, Amount: 150, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.payments.On("GetPaymentByJobID", ctx, jobID).Return(nil, apperror.ErrPaymentNotFound)
	f.users.On("GetByID", ctx, client.ID).Return(&models.User{ID: client.ID, Email: "client@example.com", Username: "client"}, nil)
	f.escrow.On("EnsureEscrow", ctx, jobID, float64(150)).Return(&models.Escrow{JobID: jobID, Amount: 150, Status: models.EscrowStatusPending}, nil)
	f.gateway.On("CreateBill", ctx, mock.MatchedBy(func(in billing.CreateBillInput) bool {
		return in.Amount == 15000 && in.Email == "client@example.com"
	})).Return(&billing.Bill{ID: "bill_abc", URL: "https://gateway/bills/bill_abc"}, nil)
	f.payments.On("CreatePayment", ctx, jobID, float64(150), billing.GatewayName, "bill_abc").Return(payment, nil)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAccepted, models.JobStatusAwaitingPayment).
		Return(&models.Job{ID: jobID, Status: models.JobStatusAwaitingPayment}, nil)

	created, err := f.svc.CreateBill(ctx, client, jobID)

	assert.NoError(t, err)
	assert.Equal(t, "https://gateway/bills/bill_abc", created.PayURL)
	assert.Equal(t, payment, created.Payment)
	f.payments.AssertExpectations(t)
	f.jobs.AssertExpectations(t)
}

func TestPaymentService_CreateBill_NotClient(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	job := &models.Job{ID: jobID, ClientID: uuid.New(), FreelancerID: uuid.New(), Status: models.JobStatusAccepted}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := f.svc.CreateBill(ctx, Actor{ID: job.FreelancerID, Role: models.RoleFreelancer}, jobID)

	assert.True(t, apperror.IsForbidden(err))
}

func TestPaymentService_CreateBill_WrongStatus(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Status: models.JobStatusPending}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.payments.On("GetPaymentByJobID", ctx, jobID).Return(nil, apperror.ErrPaymentNotFound)

	_, err := f.svc.CreateBill(ctx, client, jobID)

	assert.True(t, apperror.IsConflict(err))
	f.gateway.AssertNotCalled(t, "CreateBill")
}

func TestPaymentService_CreateBill_AlreadyPaid(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Status: models.JobStatusInProgress}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.payments.On("GetPaymentByJobID", ctx, jobID).
		Return(&models.Payment{JobID: jobID, Status: models.PaymentStatusCompleted}, nil)

	_, err := f.svc.CreateBill(ctx, client, jobID)

	assert.True(t, apperror.IsConflict(err))
}

func TestPaymentService_CreateBill_ReturnsExistingBill(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Status: models.JobStatusAwaitingPayment}
	existing := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.payments.On("GetPaymentByJobID", ctx, jobID).Return(existing, nil)
	f.gateway.On("GetBill", ctx, "bill_abc").Return(&billing.Bill{ID: "bill_abc", URL: "https://gateway/bills/bill_abc"}, nil)

	created, err := f.svc.CreateBill(ctx, client, jobID)

	assert.NoError(t, err)
	assert.Equal(t, existing, created.Payment)
	assert.Equal(t, "https://gateway/bills/bill_abc", created.PayURL)
	f.gateway.AssertNotCalled(t, "CreateBill")
	f.payments.AssertNotCalled(t, "CreatePayment")
}

func TestPaymentService_CreateBill_GatewayFails(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Amount: 100, Status: models.JobStatusAccepted}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.payments.On("GetPaymentByJobID", ctx, jobID).Return(nil, apperror.ErrPaymentNotFound)
	f.users.On("GetByID", ctx, client.ID).Return(&models.User{ID: client.ID, Email: "c@example.com", Username: "c"}, nil)
	f.escrow.On("EnsureEscrow", ctx, jobID, float64(100)).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusPending}, nil)
	f.gateway.On("CreateBill", ctx, mock.Anything).
		Return(nil, apperror.New(apperror.ErrCodeExternalService, "шлюз недоступен"))

	_, err := f.svc.CreateBill(ctx, client, jobID)

	// Ошибка шлюза не должна оставлять строку платежа.
	assert.True(t, apperror.IsExternalService(err))
	f.payments.AssertNotCalled(t, "CreatePayment")
	f.jobs.AssertNotCalled(t, "UpdateStatus")
}

func TestPaymentService_CreateBill_JobCancelledMeanwhile(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Amount: 100, Status: models.JobStatusAccepted}
	payment := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_x"}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.payments.On("GetPaymentByJobID", ctx, jobID).Return(nil, apperror.ErrPaymentNotFound)
	f.users.On("GetByID", ctx, client.ID).Return(&models.User{ID: client.ID, Email: "c@example.com", Username: "c"}, nil)
	f.escrow.On("EnsureEscrow", ctx, jobID, float64(100)).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusPending}, nil)
	f.gateway.On("CreateBill", ctx, mock.Anything).Return(&billing.Bill{ID: "bill_x", URL: "https://gateway/bills/bill_x"}, nil)
	f.payments.On("CreatePayment", ctx, jobID, float64(100), billing.GatewayName, "bill_x").Return(payment, nil)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAccepted, models.JobStatusAwaitingPayment).
		Return(nil, repository.ErrJobStatusChanged)
	f.payments.On("DeletePendingPayment", ctx, payment.ID).Return(nil)

	_, err := f.svc.CreateBill(ctx, client, jobID)

	// Задание успели отменить: висячий платёж удаляется.
	assert.True(t, apperror.IsConflict(err))
	f.payments.AssertCalled(t, "DeletePendingPayment", ctx, payment.ID)
}

func TestPaymentService_HandleWebhook_InvalidSignature(t *testing.T) {
	f := newPaymentFixture()

	payload := paidPayload("bill_abc")
	f.gateway.On("VerifySignature", payload).Return(false)

	ok := f.svc.HandleWebhook(context.Background(), payload)

	assert.False(t, ok)
	f.payments.AssertNotCalled(t, "GetPaymentByTransactionID")
}

func TestPaymentService_HandleWebhook_UnknownTransaction(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	payload := paidPayload("bill_unknown")
	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_unknown").Return(nil, apperror.ErrPaymentNotFound)

	ok := f.svc.HandleWebhook(ctx, payload)

	assert.False(t, ok)
	f.payments.AssertNotCalled(t, "MarkPaymentCompleted")
}

func TestPaymentService_HandleWebhook_Paid(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	payload := paidPayload("bill_abc")
	payment := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(payment, nil)
	f.payments.On("MarkPaymentCompleted", ctx, "bill_abc").
		Return(&models.Payment{ID: payment.ID, JobID: jobID, Status: models.PaymentStatusCompleted}, true, nil)
	f.escrow.On("HoldEscrow", ctx, jobID).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusHeld}, nil)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress).
		Return(&models.Job{ID: jobID, Status: models.JobStatusInProgress}, nil)

	ok := f.svc.HandleWebhook(ctx, payload)

	assert.True(t, ok)
	f.escrow.AssertCalled(t, "HoldEscrow", ctx, jobID)
	f.jobs.AssertCalled(t, "UpdateStatus", ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress)
}

func TestPaymentService_HandleWebhook_DuplicateDelivery(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	payload := paidPayload("bill_abc")
	completed := &models.Payment{ID: uuid.New(), JobID: uuid.New(), Status: models.PaymentStatusCompleted, TransactionID: "bill_abc"}

	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(completed, nil)

	// Повторная доставка уже завершённого платежа — no-op с ответом success.
	ok := f.svc.HandleWebhook(ctx, payload)

	assert.True(t, ok)
	f.payments.AssertNotCalled(t, "MarkPaymentCompleted")
	f.escrow.AssertNotCalled(t, "HoldEscrow")
}

func TestPaymentService_HandleWebhook_PaidAfterCancel(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	payload := paidPayload("bill_abc")
	payment := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}
	cancelled := &models.Job{ID: jobID, ClientID: clientID, FreelancerID: uuid.New(), Status: models.JobStatusCancelled}

	// Клиент отменил задание, пока оплата шла через шлюз: webhook
	// подтверждает платёж, но деньги должны вернуться плательщику,
	// а не остаться удержанными по отменённому заданию.
	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(payment, nil)
	f.payments.On("MarkPaymentCompleted", ctx, "bill_abc").
		Return(&models.Payment{ID: payment.ID, JobID: jobID, Status: models.PaymentStatusCompleted}, true, nil)
	f.escrow.On("HoldEscrow", ctx, jobID).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusHeld}, nil)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress).
		Return(nil, repository.ErrJobStatusChanged)
	f.jobs.On("GetByID", ctx, jobID).Return(cancelled, nil)
	f.escrow.On("RefundEscrow", ctx, jobID).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusRefunded}, nil)

	ok := f.svc.HandleWebhook(ctx, payload)

	assert.True(t, ok)
	f.escrow.AssertCalled(t, "RefundEscrow", ctx, jobID)
}

func TestPaymentService_HandleWebhook_ConflictWithoutCancelNoRefund(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	payload := paidPayload("bill_abc")
	payment := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	// Конфликт перехода из-за гонки двух доставок webhook: задание уже
	// в работе, возврат не нужен.
	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(payment, nil)
	f.payments.On("MarkPaymentCompleted", ctx, "bill_abc").
		Return(&models.Payment{ID: payment.ID, JobID: jobID, Status: models.PaymentStatusCompleted}, true, nil)
	f.escrow.On("HoldEscrow", ctx, jobID).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusHeld}, nil)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress).
		Return(nil, repository.ErrJobStatusChanged)
	f.jobs.On("GetByID", ctx, jobID).
		Return(&models.Job{ID: jobID, ClientID: uuid.New(), FreelancerID: uuid.New(), Status: models.JobStatusInProgress}, nil)

	ok := f.svc.HandleWebhook(ctx, payload)

	assert.True(t, ok)
	f.escrow.AssertNotCalled(t, "RefundEscrow")
}

func TestPaymentService_HandleWebhook_NotPaid(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	payload := billing.WebhookPayload{ID: "bill_abc", Paid: "false", State: "due"}
	pending := &models.Payment{ID: uuid.New(), JobID: uuid.New(), Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(pending, nil)

	ok := f.svc.HandleWebhook(ctx, payload)

	assert.True(t, ok)
	f.payments.AssertNotCalled(t, "MarkPaymentCompleted")
}

func TestPaymentService_HandleWebhook_EscrowHoldFailureStillSuccess(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	payload := paidPayload("bill_abc")
	payment := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	f.gateway.On("VerifySignature", payload).Return(true)
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(payment, nil)
	f.payments.On("MarkPaymentCompleted", ctx, "bill_abc").
		Return(&models.Payment{ID: payment.ID, JobID: jobID, Status: models.PaymentStatusCompleted}, true, nil)
	f.escrow.On("HoldEscrow", ctx, jobID).Return(nil, apperror.ErrEscrowNotFound)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress).
		Return(&models.Job{ID: jobID, Status: models.JobStatusInProgress}, nil)

	// Сбой пост-обработки не должен провоцировать ретраи шлюза.
	ok := f.svc.HandleWebhook(ctx, payload)

	assert.True(t, ok)
}

func TestPaymentService_ConfirmRedirect_Paid(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	pending := &models.Payment{ID: uuid.New(), JobID: jobID, Status: models.PaymentStatusPending, TransactionID: "bill_abc"}

	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(pending, nil)
	f.gateway.On("GetBill", ctx, "bill_abc").Return(&billing.Bill{ID: "bill_abc", State: billing.BillStatePaid, Paid: true}, nil)
	f.payments.On("MarkPaymentCompleted", ctx, "bill_abc").
		Return(&models.Payment{ID: pending.ID, JobID: jobID, Status: models.PaymentStatusCompleted}, true, nil)
	f.escrow.On("HoldEscrow", ctx, jobID).Return(&models.Escrow{JobID: jobID, Status: models.EscrowStatusHeld}, nil)
	f.jobs.On("UpdateStatus", ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress).
		Return(&models.Job{ID: jobID, Status: models.JobStatusInProgress}, nil)

	payment, err := f.svc.ConfirmRedirect(ctx, "bill_abc")

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
}

func TestPaymentService_ConfirmRedirect_AlreadyCompleted(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	completed := &models.Payment{ID: uuid.New(), JobID: uuid.New(), Status: models.PaymentStatusCompleted, TransactionID: "bill_abc"}
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(completed, nil)

	payment, err := f.svc.ConfirmRedirect(ctx, "bill_abc")

	assert.NoError(t, err)
	assert.Equal(t, completed, payment)
	f.gateway.AssertNotCalled(t, "GetBill")
}

func TestPaymentService_ConfirmRedirect_BillNotPaidYet(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	pending := &models.Payment{ID: uuid.New(), JobID: uuid.New(), Status: models.PaymentStatusPending, TransactionID: "bill_abc"}
	f.payments.On("GetPaymentByTransactionID", ctx, "bill_abc").Return(pending, nil)
	f.gateway.On("GetBill", ctx, "bill_abc").Return(&billing.Bill{ID: "bill_abc", State: "due", Paid: false}, nil)

	payment, err := f.svc.ConfirmRedirect(ctx, "bill_abc")

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	f.payments.AssertNotCalled(t, "MarkPaymentCompleted")
}

func TestPaymentService_GetEscrowByJob_Participant(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	client := Actor{ID: uuid.New(), Role: models.RoleClient}
	job := &models.Job{ID: jobID, ClientID: client.ID, FreelancerID: uuid.New(), Status: models.JobStatusInProgress}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)
	f.escrow.On("GetEscrowByJobID", ctx, jobID).Return(&models.Escrow{JobID: jobID, Amount: 150, Status: models.EscrowStatusHeld}, nil)

	escrow, err := f.svc.GetEscrowByJob(ctx, client, jobID)

	assert.NoError(t, err)
	assert.Equal(t, models.EscrowStatusHeld, escrow.Status)
}

func TestPaymentService_GetEscrowByJob_NotParticipant(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	jobID := uuid.New()
	job := &models.Job{ID: jobID, ClientID: uuid.New(), FreelancerID: uuid.New(), Status: models.JobStatusInProgress}

	f.jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := f.svc.GetEscrowByJob(ctx, Actor{ID: uuid.New(), Role: models.RoleClient}, jobID)

	assert.True(t, apperror.IsForbidden(err))
	f.escrow.AssertNotCalled(t, "GetEscrowByJobID")
}
