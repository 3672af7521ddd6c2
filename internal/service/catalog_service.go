package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
)

// CatalogReader читает каталог услуг.
type CatalogReader interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error)
	ListActiveServices(ctx context.Context, limit, offset int) ([]models.ServiceOffering, error)
}

// CatalogService — публичный каталог услуг фрилансеров.
type CatalogService struct {
	repo CatalogReader
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(repo CatalogReader) *CatalogService {
	return &CatalogService{repo: repo}
}

// GetService возвращает услугу по идентификатору.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error) {
	return s.repo.GetServiceByID(ctx, id)
}

// ListServices возвращает активные услуги каталога.
func (s *CatalogService) ListServices(ctx context.Context, limit, offset int) ([]models.ServiceOffering, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListActiveServices(ctx, limit, offset)
}
