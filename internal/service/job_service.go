package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/logger"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

// JobRepository описывает взаимодействие сервиса с хранилищем заданий.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Job, error)
	UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to models.JobStatus) (*models.Job, error)
	MarkDisputed(ctx context.Context, jobID uuid.UUID, from models.JobStatus, reason string) (*models.Job, error)
	SetPayoutHold(ctx context.Context, jobID uuid.UUID, from models.JobStatus, reason string) (*models.Job, error)
	ClearPayoutHold(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
}

// CatalogRepository описывает чтение каталога услуг.
type CatalogRepository interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error)
}

// JobCompleter атомарно завершает задание вместе с релизом escrow.
type JobCompleter interface {
	CompleteJobAndRelease(ctx context.Context, jobID uuid.UUID, from models.JobStatus) (*models.Job, error)
}

// PaymentVoider аннулирует неоплаченный счёт и escrow отменённого задания.
type PaymentVoider interface {
	VoidPendingPayment(ctx context.Context, jobID uuid.UUID) error
}

// JobService содержит бизнес-логику жизненного цикла задания.
// Каждая операция сначала проверяет права инициатора, затем допустимость
// перехода; запрещённый переход — конфликт, состояние не меняется.
type JobService struct {
	repo          JobRepository
	catalog       CatalogRepository
	completer     JobCompleter
	voider        PaymentVoider
	audit         *AuditService
	notifications *NotificationService
}

// NewJobService создаёт сервис заданий.
func NewJobService(repo JobRepository, catalog CatalogRepository, completer JobCompleter, voider PaymentVoider, audit *AuditService, notifications *NotificationService) *JobService {
	return &JobService{
		repo:          repo,
		catalog:       catalog,
		completer:     completer,
		voider:        voider,
		audit:         audit,
		notifications: notifications,
	}
}

// CreateJobInput входные данные создания задания.
type CreateJobInput struct {
	ServiceID   uuid.UUID
	Description string
	Amount      *float64
}

// Create создаёт задание по услуге каталога. Только клиент; сумма по
// умолчанию равна цене услуги; заказать собственную услугу нельзя.
func (s *JobService) Create(ctx context.Context, actor Actor, in CreateJobInput) (*models.Job, error) {
	if err := requireRole(actor, models.RoleClient); err != nil {
		return nil, err
	}

	offering, err := s.catalog.GetServiceByID(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !offering.IsActive {
		return nil, apperror.New(apperror.ErrCodeValidation, "услуга недоступна для заказа")
	}
	if offering.FreelancerID == actor.ID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя заказать собственную услугу")
	}

	amount := offering.Price
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "сумма задания должна быть положительной")
		}
		amount = *in.Amount
	}

	job := &models.Job{
		ServiceID:    offering.ID,
		ClientID:     actor.ID,
		FreelancerID: offering.FreelancerID,
		Description:  strings.TrimSpace(in.Description),
		Amount:       amount,
		Status:       models.JobStatusPending,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	s.notifications.notify(ctx, job.FreelancerID, "job.created", job)
	return job, nil
}

// Get возвращает задание. Стороны видят своё задание, администратор — любое.
func (s *JobService) Get(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && !job.IsParticipant(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return job, nil
}

// List возвращает задания пользователя.
func (s *JobService) List(ctx context.Context, actor Actor, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, actor.ID, limit, offset)
}

// Accept — исполнитель берёт задание в работу: PENDING -> ACCEPTED.
// Оплата и старт работ идут дальше через выставление счёта.
func (s *JobService) Accept(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.transitionBy(ctx, actor, jobID, roleFreelancer, models.JobStatusPending, models.JobStatusAccepted)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.ClientID, "job.accepted", job)
	return job, nil
}

// Reject — исполнитель отклоняет задание: PENDING -> REJECTED.
func (s *JobService) Reject(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.transitionBy(ctx, actor, jobID, roleFreelancer, models.JobStatusPending, models.JobStatusRejected)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.ClientID, "job.rejected", job)
	return job, nil
}

// Cancel — клиент отменяет задание до оплаты: из ACCEPTED или
// AWAITING_PAYMENT. После того как средства удержаны, отмена возможна
// только через спор.
func (s *JobService) Cancel(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.getForParticipant(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusAccepted && job.Status != models.JobStatusAwaitingPayment {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание нельзя отменить в текущем статусе")
	}

	job, err = s.repo.UpdateStatus(ctx, jobID, job.Status, models.JobStatusCancelled)
	if err != nil {
		return nil, err
	}

	// Выставленный, но не оплаченный счёт аннулируется вместе с escrow,
	// чтобы поздний webhook не удержал деньги по отменённому заданию.
	if s.voider != nil {
		if voidErr := s.voider.VoidPendingPayment(ctx, jobID); voidErr != nil {
			logger.Log.WithError(voidErr).WithField("job_id", jobID).Error("job service: счёт отменённого задания не аннулирован")
		}
	}

	s.notifications.notify(ctx, job.FreelancerID, "job.cancelled", job)
	return job, nil
}

// Submit — исполнитель сдаёт работу: IN_PROGRESS -> SUBMITTED.
func (s *JobService) Submit(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.transitionBy(ctx, actor, jobID, roleFreelancer, models.JobStatusInProgress, models.JobStatusSubmitted)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.ClientID, "job.submitted", job)
	return job, nil
}

// StartReview — клиент начинает приёмку: SUBMITTED -> IN_REVIEW.
func (s *JobService) StartReview(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	return s.transitionBy(ctx, actor, jobID, roleClient, models.JobStatusSubmitted, models.JobStatusInReview)
}

// RequestChanges — клиент возвращает работу на доработку: IN_REVIEW -> IN_REVISION.
func (s *JobService) RequestChanges(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.transitionBy(ctx, actor, jobID, roleClient, models.JobStatusInReview, models.JobStatusInRevision)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.FreelancerID, "job.changes_requested", job)
	return job, nil
}

// Resubmit — исполнитель сдаёт доработку: IN_REVISION -> SUBMITTED.
func (s *JobService) Resubmit(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.transitionBy(ctx, actor, jobID, roleFreelancer, models.JobStatusInRevision, models.JobStatusSubmitted)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.ClientID, "job.submitted", job)
	return job, nil
}

// Approve — клиент принимает работу после приёмки: IN_REVIEW -> COMPLETED.
// Релиз escrow и зачисление баланса исполнителю происходят в одной
// транзакции со сменой статуса.
func (s *JobService) Approve(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.getForParticipant(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	return s.completeAndRelease(ctx, jobID, models.JobStatusInReview, job)
}

// Complete — любая из сторон завершает задание напрямую:
// IN_PROGRESS -> COMPLETED, с релизом escrow в той же транзакции.
func (s *JobService) Complete(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.getForParticipant(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	return s.completeAndRelease(ctx, jobID, models.JobStatusInProgress, job)
}

// Dispute — любая из сторон открывает спор. Допустимо из IN_PROGRESS,
// SUBMITTED, IN_REVIEW и COMPLETED (позднее окно спора); причина
// обязательна и не короче минимальной длины.
func (s *JobService) Dispute(ctx context.Context, actor Actor, jobID uuid.UUID, reason string) (*models.Job, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < models.MinDisputeReasonLen {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина спора слишком короткая")
	}

	job, err := s.getForParticipant(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(models.JobStatusDisputed) {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор нельзя открыть в текущем статусе задания")
	}

	job, err = s.repo.MarkDisputed(ctx, jobID, job.Status, reason)
	if err != nil {
		return nil, err
	}

	counterparty := job.ClientID
	if actor.ID == job.ClientID {
		counterparty = job.FreelancerID
	}
	s.notifications.notify(ctx, counterparty, "job.disputed", job)
	return job, nil
}

// StartPayout — администратор запускает выплату: COMPLETED -> PAYOUT_PROCESSING.
func (s *JobService) StartPayout(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	return s.payoutTransition(ctx, actor, jobID, models.JobStatusCompleted, models.JobStatusPayoutProcessing, "start_payout")
}

// HoldPayout — администратор приостанавливает выплату с причиной:
// PAYOUT_PROCESSING -> PAYOUT_HOLD.
func (s *JobService) HoldPayout(ctx context.Context, actor Actor, jobID uuid.UUID, reason string) (*models.Job, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина удержания выплаты обязательна")
	}

	job, err := s.repo.SetPayoutHold(ctx, jobID, models.JobStatusPayoutProcessing, reason)
	if err != nil {
		return nil, err
	}
	s.recordPayoutAction(ctx, actor.ID, "hold_payout", job, reason)
	return job, nil
}

// ResumePayout — администратор снимает удержание: PAYOUT_HOLD -> PAYOUT_PROCESSING.
func (s *JobService) ResumePayout(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	job, err := s.repo.ClearPayoutHold(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.recordPayoutAction(ctx, actor.ID, "resume_payout", job, "")
	return job, nil
}

// MarkPaidOut — выплата прошла: PAYOUT_PROCESSING -> PAID_OUT (терминальный).
func (s *JobService) MarkPaidOut(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.payoutTransition(ctx, actor, jobID, models.JobStatusPayoutProcessing, models.JobStatusPaidOut, "mark_paid_out")
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.FreelancerID, "job.paid_out", job)
	return job, nil
}

// MarkPayoutFailed — выплата не прошла: PAYOUT_PROCESSING -> PAYOUT_FAILED.
func (s *JobService) MarkPayoutFailed(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	return s.payoutTransition(ctx, actor, jobID, models.JobStatusPayoutProcessing, models.JobStatusPayoutFailed, "mark_payout_failed")
}

// RetryPayout — повторная попытка: PAYOUT_FAILED -> PAYOUT_PROCESSING.
func (s *JobService) RetryPayout(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	return s.payoutTransition(ctx, actor, jobID, models.JobStatusPayoutFailed, models.JobStatusPayoutProcessing, "retry_payout")
}

// EscalatePayout — выплата требует ручного вмешательства:
// PAYOUT_FAILED -> PAYOUT_FAILED_MANUAL (терминальный).
func (s *JobService) EscalatePayout(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	return s.payoutTransition(ctx, actor, jobID, models.JobStatusPayoutFailed, models.JobStatusPayoutFailedManual, "escalate_payout")
}

type participantRole int

const (
	roleClient participantRole = iota
	roleFreelancer
)

// transitionBy выполняет guarded-переход от имени конкретной стороны задания.
func (s *JobService) transitionBy(ctx context.Context, actor Actor, jobID uuid.UUID, side participantRole, from, to models.JobStatus) (*models.Job, error) {
	job, err := s.getForParticipant(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}

	switch side {
	case roleClient:
		if job.ClientID != actor.ID {
			return nil, apperror.ErrForbidden
		}
	case roleFreelancer:
		if job.FreelancerID != actor.ID {
			return nil, apperror.ErrForbidden
		}
	}

	return s.repo.UpdateStatus(ctx, jobID, from, to)
}

// getForParticipant возвращает задание, проверяя что инициатор — его сторона.
func (s *JobService) getForParticipant(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsParticipant(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return job, nil
}

// completeAndRelease завершает задание с атомарным релизом escrow и
// уведомляет исполнителя о зачислении.
func (s *JobService) completeAndRelease(ctx context.Context, jobID uuid.UUID, from models.JobStatus, prev *models.Job) (*models.Job, error) {
	if prev.Status != from {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание нельзя завершить в текущем статусе")
	}

	job, err := s.completer.CompleteJobAndRelease(ctx, jobID, from)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, job.FreelancerID, "job.completed", job)
	return job, nil
}

// payoutTransition — общий путь административных переходов выплат:
// проверка роли, guarded-переход, запись в журнал.
func (s *JobService) payoutTransition(ctx context.Context, actor Actor, jobID uuid.UUID, from, to models.JobStatus, action string) (*models.Job, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	job, err := s.repo.UpdateStatus(ctx, jobID, from, to)
	if err != nil {
		return nil, err
	}
	s.recordPayoutAction(ctx, actor.ID, action, job, "")
	return job, nil
}

func (s *JobService) recordPayoutAction(ctx context.Context, adminID uuid.UUID, action string, job *models.Job, reason string) {
	if s.audit == nil {
		return
	}
	details := map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
		"amount": job.Amount,
	}
	if reason != "" {
		details["reason"] = reason
	}
	if _, err := s.audit.Record(ctx, adminID, action, "job:"+job.ID.String(), details); err != nil {
		logger.Log.WithError(err).WithField("action", action).Error("job service: запись в журнал не создана")
	}
}
