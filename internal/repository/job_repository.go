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

// ErrJobStatusChanged возвращается, когда guarded-обновление не нашло строку
// в ожидаемом статусе: параллельный запрос успел изменить задание первым.
var ErrJobStatusChanged = apperror.New(apperror.ErrCodeConflict, "статус задания уже изменился, операция недоступна")

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, service_id, client_id, freelancer_id, description, amount, status,
	dispute_reason, payout_hold_reason, created_at, updated_at, started_at`

// Create сохраняет новое задание.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	err := r.db.GetContext(ctx, job, `
		INSERT INTO jobs (service_id, client_id, freelancer_id, description, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+jobColumns+`
	`, job.ServiceID, job.ClientID, job.FreelancerID, job.Description, job.Amount, job.Status)
	if err != nil {
		return fmt.Errorf("job repository: create: %w", err)
	}
	return nil
}

// GetByID возвращает задание по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id: %w", err)
	}
	return &job, nil
}

// ListByUser возвращает задания, где пользователь — клиент или исполнитель.
func (r *JobRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT `+jobColumns+` FROM jobs
		WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("job repository: list by user: %w", err)
	}
	return jobs, nil
}

// UpdateStatus выполняет guarded-переход: строка обновляется только если
// задание всё ещё в статусе from. Проигравший гонку запрос получает конфликт,
// а не молча перезаписывает чужой переход. started_at проставляется при
// первом входе в IN_PROGRESS.
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to models.JobStatus) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `
		UPDATE jobs
		SET status = $3,
			updated_at = NOW(),
			started_at = CASE WHEN $3 = 'IN_PROGRESS' AND started_at IS NULL THEN NOW() ELSE started_at END
		WHERE id = $1 AND status = $2
		RETURNING `+jobColumns+`
	`, jobID, from, to)
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job repository: update status: %w", err)
	}

	// Строка не обновилась: либо задания нет, либо статус уже другой.
	if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrJobStatusChanged
}

// MarkDisputed переводит задание в DISPUTED с фиксацией причины.
func (r *JobRepository) MarkDisputed(ctx context.Context, jobID uuid.UUID, from models.JobStatus, reason string) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `
		UPDATE jobs SET status = 'DISPUTED', dispute_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+jobColumns+`
	`, jobID, from, reason)
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job repository: mark disputed: %w", err)
	}
	if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrJobStatusChanged
}

// SetPayoutHold переводит задание в PAYOUT_HOLD с причиной удержания.
func (r *JobRepository) SetPayoutHold(ctx context.Context, jobID uuid.UUID, from models.JobStatus, reason string) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `
		UPDATE jobs SET status = 'PAYOUT_HOLD', payout_hold_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+jobColumns+`
	`, jobID, from, reason)
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job repository: set payout hold: %w", err)
	}
	if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrJobStatusChanged
}

// ClearPayoutHold возвращает задание из PAYOUT_HOLD в PAYOUT_PROCESSING.
func (r *JobRepository) ClearPayoutHold(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `
		UPDATE jobs SET status = 'PAYOUT_PROCESSING', payout_hold_reason = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'PAYOUT_HOLD'
		RETURNING `+jobColumns+`
	`, jobID)
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job repository: clear payout hold: %w", err)
	}
	if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrJobStatusChanged
}
