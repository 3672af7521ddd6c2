package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

var (
	ErrInsufficientFunds = apperror.New(apperror.ErrCodeConflict, "недостаточно средств на балансе")
	// ErrWithdrawalNotPending — заявка уже обработана другим администратором.
	ErrWithdrawalNotPending = apperror.New(apperror.ErrCodeConflict, "заявка на вывод уже обработана")
)

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `id, freelancer_id, amount, status, bank_code, account_number,
	rejection_reason, processed_by, processed_at, created_at`

// Create создаёт заявку PENDING и резервирует средства: баланс проверяется
// под блокировкой и списывается в той же транзакции, что и вставка заявки.
// Две конкурирующие заявки не смогут зарезервировать одни и те же деньги.
func (r *WithdrawalRepository) Create(ctx context.Context, freelancerID uuid.UUID, amount float64, bank models.BankDetails) (*models.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance float64
	err = tx.GetContext(ctx, &balance, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: lock balance: %w", err)
	}
	if balance < amount {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, freelancerID, amount)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: reserve funds: %w", err)
	}

	var w models.Withdrawal
	err = tx.GetContext(ctx, &w, `
		INSERT INTO withdrawals (freelancer_id, amount, status, bank_code, account_number)
		VALUES ($1, $2, 'PENDING', $3, $4)
		RETURNING `+withdrawalColumns+`
	`, freelancerID, amount, bank.BankCode, bank.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: create: %w", err)
	}

	return &w, tx.Commit()
}

// GetByID возвращает заявку по идентификатору.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: get by id: %w", err)
	}
	return &w, nil
}

// ListByFreelancer возвращает заявки фрилансера.
func (r *WithdrawalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by freelancer: %w", err)
	}
	return withdrawals, nil
}

// ListPending возвращает необработанные заявки (для администратора).
func (r *WithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE status = 'PENDING' ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list pending: %w", err)
	}
	return withdrawals, nil
}

// Approve помечает PENDING заявку одобренной. Средства зарезервированы при
// создании, поэтому баланс здесь не трогаем; статус меняется под блокировкой,
// конкурирующее одобрение/отклонение получает конфликт. Решение журналируется
// в той же транзакции.
func (r *WithdrawalRepository) Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := lockPendingWithdrawal(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, w, `
		UPDATE withdrawals SET status = 'APPROVED', processed_by = $2, processed_at = NOW()
		WHERE id = $1
		RETURNING `+withdrawalColumns+`
	`, id, adminID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: approve: %w", err)
	}

	if err := auditWithdrawalTx(ctx, tx, adminID, "approve_withdrawal", w, nil); err != nil {
		return nil, err
	}

	return w, tx.Commit()
}

// Reject отклоняет PENDING заявку и возвращает зарезервированную сумму на
// баланс фрилансера в одной транзакции.
func (r *WithdrawalRepository) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := lockPendingWithdrawal(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, w.FreelancerID, w.Amount)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: restore funds: %w", err)
	}

	err = tx.GetContext(ctx, w, `
		UPDATE withdrawals
		SET status = 'REJECTED', rejection_reason = $2, processed_by = $3, processed_at = NOW()
		WHERE id = $1
		RETURNING `+withdrawalColumns+`
	`, id, reason, adminID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: reject: %w", err)
	}

	if err := auditWithdrawalTx(ctx, tx, adminID, "reject_withdrawal", w, &reason); err != nil {
		return nil, err
	}

	return w, tx.Commit()
}

// lockPendingWithdrawal блокирует заявку и проверяет, что она ещё PENDING.
func lockPendingWithdrawal(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := tx.GetContext(ctx, &w, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: lock withdrawal: %w", err)
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrWithdrawalNotPending
	}
	return &w, nil
}

// auditWithdrawalTx пишет запись журнала о решении администратора.
func auditWithdrawalTx(ctx context.Context, tx *sqlx.Tx, adminID uuid.UUID, action string, w *models.Withdrawal, reason *string) error {
	details, err := json.Marshal(map[string]interface{}{
		"withdrawal_id": w.ID,
		"freelancer_id": w.FreelancerID,
		"amount":        w.Amount,
		"reason":        reason,
	})
	if err != nil {
		return fmt.Errorf("withdrawal repository: marshal audit details: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, resource, details)
		VALUES ($1, $2, $3, $4)
	`, adminID, action, "withdrawal:"+w.ID.String(), details)
	if err != nil {
		return fmt.Errorf("withdrawal repository: audit: %w", err)
	}
	return nil
}
