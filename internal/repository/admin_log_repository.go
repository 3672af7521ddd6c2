package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
)

// AdminLogRepository пишет и читает журнал привилегированных действий.
// Таблица admin_logs append-only: UPDATE и DELETE по ней не выполняются.
type AdminLogRepository struct {
	db *sqlx.DB
}

func NewAdminLogRepository(db *sqlx.DB) *AdminLogRepository {
	return &AdminLogRepository{db: db}
}

// Record добавляет запись журнала.
func (r *AdminLogRepository) Record(ctx context.Context, adminID uuid.UUID, action, resource string, details interface{}) (*models.AdminLog, error) {
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("admin log repository: marshal details: %w", err)
	}

	var entry models.AdminLog
	err = r.db.GetContext(ctx, &entry, `
		INSERT INTO admin_logs (admin_id, action, resource, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, admin_id, action, resource, details, created_at
	`, adminID, action, resource, payload)
	if err != nil {
		return nil, fmt.Errorf("admin log repository: record: %w", err)
	}
	return &entry, nil
}

// List возвращает записи журнала, новые первыми.
func (r *AdminLogRepository) List(ctx context.Context, limit, offset int) ([]models.AdminLog, error) {
	var entries []models.AdminLog
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, admin_id, action, resource, details, created_at
		FROM admin_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("admin log repository: list: %w", err)
	}
	return entries, nil
}
