package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
)

// AuditRepository описывает взаимодействие с журналом привилегированных действий.
type AuditRepository interface {
	Record(ctx context.Context, adminID uuid.UUID, action, resource string, details interface{}) (*models.AdminLog, error)
	List(ctx context.Context, limit, offset int) ([]models.AdminLog, error)
}

// AuditService — тонкая обёртка над append-only журналом admin_logs.
// Денежные операции (разбор споров, решения по выводам) пишут журнал
// внутри своих транзакций в репозиториях; сервис используется для
// остальных административных действий и для чтения журнала.
type AuditService struct {
	repo AuditRepository
}

// NewAuditService создаёт сервис журнала.
func NewAuditService(repo AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record добавляет запись журнала.
func (s *AuditService) Record(ctx context.Context, adminID uuid.UUID, action, resource string, details interface{}) (*models.AdminLog, error) {
	return s.repo.Record(ctx, adminID, action, resource, details)
}

// List возвращает записи журнала (только для администратора).
func (s *AuditService) List(ctx context.Context, actor Actor, limit, offset int) ([]models.AdminLog, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
