package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetServiceByID возвращает услугу каталога по идентификатору.
func (r *CatalogRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error) {
	var svc models.ServiceOffering
	err := r.db.GetContext(ctx, &svc, `
		SELECT id, freelancer_id, title, description, price, is_active, created_at, updated_at
		FROM services WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog repository: get service: %w", err)
	}
	return &svc, nil
}

// ListActiveServices возвращает активные услуги каталога.
func (r *CatalogRepository) ListActiveServices(ctx context.Context, limit, offset int) ([]models.ServiceOffering, error) {
	var services []models.ServiceOffering
	err := r.db.SelectContext(ctx, &services, `
		SELECT id, freelancer_id, title, description, price, is_active, created_at, updated_at
		FROM services WHERE is_active = TRUE
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list services: %w", err)
	}
	return services, nil
}
