package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/logger"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
)

// EscrowRepository описывает взаимодействие с хранилищем escrow.
type EscrowRepository interface {
	EnsureEscrow(ctx context.Context, jobID uuid.UUID, amount float64) (*models.Escrow, error)
	GetEscrowByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
	HoldEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
	ReleaseEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
	RefundEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
}

// EscrowService управляет удержанием средств по заданию.
// Экспортированные Hold/Release/Refund — административные операции с
// проверкой роли и записью в журнал. Неэкспортированные варианты без
// проверки роли доступны только внутри пакета service: их вызывают
// обработчик платёжного webhook и завершение задания, но никогда —
// пользовательский endpoint напрямую.
type EscrowService struct {
	repo  EscrowRepository
	audit *AuditService
}

// NewEscrowService создаёт сервис escrow.
func NewEscrowService(repo EscrowRepository, audit *AuditService) *EscrowService {
	return &EscrowService{repo: repo, audit: audit}
}

// Get возвращает escrow задания.
func (s *EscrowService) Get(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	return s.repo.GetEscrowByJobID(ctx, jobID)
}

// Hold переводит escrow PENDING -> HELD (только администратор).
func (s *EscrowService) Hold(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Escrow, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	escrow, err := s.repo.HoldEscrow(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.recordAction(ctx, actor.ID, "hold_escrow", escrow)
	return escrow, nil
}

// Release переводит escrow HELD -> RELEASED с зачислением баланса
// исполнителю (только администратор).
func (s *EscrowService) Release(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Escrow, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	escrow, err := s.repo.ReleaseEscrow(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.recordAction(ctx, actor.ID, "release_escrow", escrow)
	return escrow, nil
}

// Refund переводит escrow HELD -> REFUNDED без зачисления баланса
// (только администратор). Возврат денег плательщику идёт через шлюз,
// вне внутреннего леджера.
func (s *EscrowService) Refund(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Escrow, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	escrow, err := s.repo.RefundEscrow(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.recordAction(ctx, actor.ID, "refund_escrow", escrow)
	return escrow, nil
}

// ensure — идемпотентное создание escrow PENDING. Системный путь.
func (s *EscrowService) ensure(ctx context.Context, jobID uuid.UUID, amount float64) (*models.Escrow, error) {
	return s.repo.EnsureEscrow(ctx, jobID, amount)
}

// holdInternal — системный переход PENDING -> HELD из обработки webhook.
func (s *EscrowService) holdInternal(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	return s.repo.HoldEscrow(ctx, jobID)
}

// refundInternal — системный переход HELD -> REFUNDED (отмена оплаченного задания).
func (s *EscrowService) refundInternal(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	return s.repo.RefundEscrow(ctx, jobID)
}

func (s *EscrowService) recordAction(ctx context.Context, adminID uuid.UUID, action string, escrow *models.Escrow) {
	if s.audit == nil {
		return
	}
	_, err := s.audit.Record(ctx, adminID, action, "escrow:"+escrow.JobID.String(), map[string]interface{}{
		"job_id": escrow.JobID,
		"amount": escrow.Amount,
		"status": escrow.Status,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("action", action).Error("escrow service: запись в журнал не создана")
	}
}
