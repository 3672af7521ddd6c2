package service

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/billing"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/logger"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

// PaymentRepository описывает взаимодействие сервиса с хранилищем платежей.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, jobID uuid.UUID, amount float64, gateway, transactionID string) (*models.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	GetPaymentByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error)
	MarkPaymentCompleted(ctx context.Context, transactionID string) (*models.Payment, bool, error)
	MarkPaymentFailed(ctx context.Context, transactionID string) error
	DeletePendingPayment(ctx context.Context, paymentID uuid.UUID) error
}

// BillingGateway описывает контракт с платёжным шлюзом.
type BillingGateway interface {
	CreateBill(ctx context.Context, in billing.CreateBillInput) (*billing.Bill, error)
	GetBill(ctx context.Context, billID string) (*billing.Bill, error)
	VerifySignature(p billing.WebhookPayload) bool
}

// PaymentUserReader читает данные плательщика для выставления счёта.
type PaymentUserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PaymentURLs адреса для callback и возврата пользователя из шлюза.
type PaymentURLs struct {
	CallbackURL string
	RedirectURL string
}

// PaymentService связывает задания с внешним платёжным шлюзом.
type PaymentService struct {
	payments      PaymentRepository
	jobs          JobRepository
	users         PaymentUserReader
	gateway       BillingGateway
	escrow        *EscrowService
	notifications *NotificationService
	urls          PaymentURLs
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(payments PaymentRepository, jobs JobRepository, users PaymentUserReader, gateway BillingGateway, escrow *EscrowService, notifications *NotificationService, urls PaymentURLs) *PaymentService {
	return &PaymentService{
		payments:      payments,
		jobs:          jobs,
		users:         users,
		gateway:       gateway,
		escrow:        escrow,
		notifications: notifications,
		urls:          urls,
	}
}

// CreatedBill результат выставления счёта.
type CreatedBill struct {
	Payment *models.Payment `json:"payment"`
	PayURL  string          `json:"pay_url"`
}

// CreateBill выставляет счёт на оплату задания. Доступно только клиенту
// задания в статусе ACCEPTED. Счёт создаётся на стороне шлюза до записи
// платежа: ошибка шлюза не оставляет висячих строк. После успешного
// выставления задание переходит в AWAITING_PAYMENT.
func (s *PaymentService) CreateBill(ctx context.Context, actor Actor, jobID uuid.UUID) (*CreatedBill, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	// Повторный запрос при уже выставленном счёте возвращает тот же счёт.
	if existing, err := s.payments.GetPaymentByJobID(ctx, jobID); err == nil {
		if existing.Status == models.PaymentStatusCompleted {
			return nil, apperror.New(apperror.ErrCodeConflict, "задание уже оплачено")
		}
		bill, err := s.gateway.GetBill(ctx, existing.TransactionID)
		if err != nil {
			return nil, err
		}
		return &CreatedBill{Payment: existing, PayURL: bill.URL}, nil
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	if job.Status != models.JobStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeConflict, "счёт можно выставить только по принятому заданию")
	}

	client, err := s.users.GetByID(ctx, job.ClientID)
	if err != nil {
		return nil, err
	}

	// Escrow создаётся заранее в PENDING: webhook переведёт его в HELD.
	if _, err := s.escrow.ensure(ctx, jobID, job.Amount); err != nil {
		return nil, err
	}

	bill, err := s.gateway.CreateBill(ctx, billing.CreateBillInput{
		Amount:      toMinorUnits(job.Amount),
		Email:       client.Email,
		Name:        client.Username,
		Description: "Оплата задания " + job.ID.String(),
		CallbackURL: s.urls.CallbackURL,
		RedirectURL: s.urls.RedirectURL,
	})
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.CreatePayment(ctx, jobID, job.Amount, billing.GatewayName, bill.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.jobs.UpdateStatus(ctx, jobID, models.JobStatusAccepted, models.JobStatusAwaitingPayment); err != nil {
		// Задание успели отменить, пока выставлялся счёт. Платёж не нужен.
		if delErr := s.payments.DeletePendingPayment(ctx, payment.ID); delErr != nil {
			logger.Log.WithError(delErr).WithField("payment_id", payment.ID).Error("payment service: висячий платёж не удалён")
		}
		return nil, err
	}

	return &CreatedBill{Payment: payment, PayURL: bill.URL}, nil
}

// GetByJob возвращает платёж задания (стороны задания и администратор).
func (s *PaymentService) GetByJob(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Payment, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && !job.IsParticipant(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return s.payments.GetPaymentByJobID(ctx, jobID)
}

// GetEscrowByJob возвращает escrow задания (стороны задания и администратор).
func (s *PaymentService) GetEscrowByJob(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Escrow, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && !job.IsParticipant(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return s.escrow.Get(ctx, jobID)
}

// HandleWebhook обрабатывает server-to-server уведомление шлюза.
// Доставка at-least-once, порядок не гарантирован; корректность держится
// на идемпотентности: платёж ищется по transaction_id, повторная доставка
// уже завершённого платежа — no-op с ответом success. Возвращает true,
// если шлюзу нужно ответить success.
//
// Ошибки пост-обработки (hold escrow, перевод задания в IN_PROGRESS)
// логируются, но НЕ превращают ответ в failed: ретраи шлюза не должны
// управляться внутренними сбоями, а повторную сверку даёт redirect-путь.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload billing.WebhookPayload) bool {
	if !s.gateway.VerifySignature(payload) {
		logger.Log.WithField("transaction_id", payload.ID).Warn("payment service: webhook с неверной подписью отклонён")
		return false
	}

	payment, err := s.payments.GetPaymentByTransactionID(ctx, payload.ID)
	if err != nil {
		// Неизвестный счёт: не угадываем, отвечаем failed.
		logger.Log.WithError(err).WithField("transaction_id", payload.ID).Warn("payment service: webhook по неизвестному платежу")
		return false
	}

	if payment.Status == models.PaymentStatusCompleted {
		return true
	}

	if payload.Paid != "true" || payload.State != billing.BillStatePaid {
		// Счёт не оплачен (due/deleted): подтверждаем получение без изменений.
		return true
	}

	_, completedNow, err := s.payments.MarkPaymentCompleted(ctx, payload.ID)
	if err != nil {
		logger.Log.WithError(err).WithField("transaction_id", payload.ID).Error("payment service: платёж не помечен завершённым")
		return false
	}
	if completedNow {
		s.finalizePaid(ctx, payment.JobID)
	}
	return true
}

// ConfirmRedirect — браузерный путь возврата из шлюза. Статус счёта
// перепроверяется у шлюза напрямую: это резервный канал подтверждения
// для окружений, где webhook недоступен, а не второй источник истины.
func (s *PaymentService) ConfirmRedirect(ctx context.Context, billID string) (*models.Payment, error) {
	payment, err := s.payments.GetPaymentByTransactionID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusCompleted {
		return payment, nil
	}

	bill, err := s.gateway.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !bill.Paid || bill.State != billing.BillStatePaid {
		return payment, nil
	}

	payment, completedNow, err := s.payments.MarkPaymentCompleted(ctx, billID)
	if err != nil {
		return nil, err
	}
	if completedNow {
		s.finalizePaid(ctx, payment.JobID)
	}
	return payment, nil
}

// finalizePaid — пост-обработка оплаченного счёта: удержание escrow и
// старт работ. Сбои здесь не откатывают завершение платежа; их добирает
// повторная сверка через redirect.
func (s *PaymentService) finalizePaid(ctx context.Context, jobID uuid.UUID) {
	if _, err := s.escrow.holdInternal(ctx, jobID); err != nil && !apperror.IsConflict(err) {
		logger.Log.WithError(err).WithField("job_id", jobID).Error("payment service: escrow не переведён в HELD")
	}

	job, err := s.jobs.UpdateStatus(ctx, jobID, models.JobStatusAwaitingPayment, models.JobStatusInProgress)
	if err != nil {
		if !apperror.IsConflict(err) {
			logger.Log.WithError(err).WithField("job_id", jobID).Error("payment service: задание не переведено в IN_PROGRESS")
			return
		}
		// Конфликт: задание уже не в AWAITING_PAYMENT. Если его успели
		// отменить, удержанные деньги возвращаются плательщику.
		s.refundIfCancelled(ctx, jobID)
		return
	}

	s.notifications.notify(ctx, job.FreelancerID, "payment.completed", job)
	s.notifications.notify(ctx, job.ClientID, "payment.completed", job)
}

// refundIfCancelled разбирает поздний webhook по отменённому заданию:
// оплата пришла, когда клиент уже отменил работу, поэтому escrow
// возвращается плательщику, а не остаётся удержанным.
func (s *PaymentService) refundIfCancelled(ctx context.Context, jobID uuid.UUID) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		logger.Log.WithError(err).WithField("job_id", jobID).Error("payment service: задание не прочитано после конфликта оплаты")
		return
	}
	if job.Status != models.JobStatusCancelled {
		return
	}

	if _, err := s.escrow.refundInternal(ctx, jobID); err != nil {
		if !apperror.IsConflict(err) {
			logger.Log.WithError(err).WithField("job_id", jobID).Error("payment service: escrow отменённого задания не возвращён")
		}
		return
	}

	s.notifications.notify(ctx, job.ClientID, "payment.refunded", job)
}

// toMinorUnits переводит сумму в минимальные единицы валюты для шлюза.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
