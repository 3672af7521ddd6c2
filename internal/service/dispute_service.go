package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/repository"
)

// DisputeRepository выполняет решение по спору одной транзакцией.
type DisputeRepository interface {
	ResolveDispute(ctx context.Context, res repository.DisputeResolution) (*models.Job, error)
}

// DisputeService — разбор споров администратором.
type DisputeService struct {
	repo          DisputeRepository
	notifications *NotificationService
}

// NewDisputeService создаёт сервис разбора споров.
func NewDisputeService(repo DisputeRepository, notifications *NotificationService) *DisputeService {
	return &DisputeService{repo: repo, notifications: notifications}
}

// ResolveInput решение администратора по спору.
type ResolveInput struct {
	JobID        uuid.UUID
	Resolution   string
	RefundAmount *float64
	Notes        string
}

// Resolve применяет решение по спору. Только администратор; задание должно
// быть в DISPUTED. Статус задания, escrow, баланс исполнителя и запись
// журнала меняются в одной транзакции репозитория: частичное применение
// невозможно.
func (s *DisputeService) Resolve(ctx context.Context, actor Actor, in ResolveInput) (*models.Job, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if _, ok := models.ValidResolutions[in.Resolution]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный вариант решения спора")
	}

	job, err := s.repo.ResolveDispute(ctx, repository.DisputeResolution{
		JobID:        in.JobID,
		Resolution:   in.Resolution,
		RefundAmount: in.RefundAmount,
		Notes:        in.Notes,
		AdminID:      actor.ID,
	})
	if err != nil {
		return nil, err
	}

	s.notifications.notify(ctx, job.ClientID, "dispute.resolved", job)
	s.notifications.notify(ctx, job.FreelancerID, "dispute.resolved", job)
	return job, nil
}
