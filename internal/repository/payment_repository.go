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
	// ErrEscrowStatusConflict — попытка перевести escrow через закрытый шлюз
	// (hold не из PENDING, release/refund не из HELD).
	ErrEscrowStatusConflict = apperror.New(apperror.ErrCodeConflict, "недопустимый переход статуса escrow")
	// ErrPaymentStatusConflict — платёж не в том статусе для операции.
	ErrPaymentStatusConflict = apperror.New(apperror.ErrCodeConflict, "недопустимый переход статуса платежа")
)

// PaymentRepository владеет строками payments и escrow и всеми денежными
// мутациями. Любое движение денег — одна транзакция с блокировкой строк:
// статус, баланс и журнал меняются все вместе или никак.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, job_id, amount, status, payment_gateway, transaction_id, created_at, updated_at`
const escrowColumns = `id, job_id, amount, status, created_at, released_at`

// CreatePayment сохраняет платёж PENDING по выставленному счёту.
func (r *PaymentRepository) CreatePayment(ctx context.Context, jobID uuid.UUID, amount float64, gateway, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, `
		INSERT INTO payments (job_id, amount, status, payment_gateway, transaction_id)
		VALUES ($1, $2, 'PENDING', $3, $4)
		RETURNING `+paymentColumns+`
	`, jobID, amount, gateway, transactionID)
	if err != nil {
		return nil, fmt.Errorf("payment repository: create payment: %w", err)
	}
	return &payment, nil
}

// GetPaymentByTransactionID возвращает платёж по внешнему идентификатору счёта.
func (r *PaymentRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, `
		SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1
	`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by transaction id: %w", err)
	}
	return &payment, nil
}

// GetPaymentByJobID возвращает платёж задания.
func (r *PaymentRepository) GetPaymentByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, `
		SELECT `+paymentColumns+` FROM payments WHERE job_id = $1
	`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by job id: %w", err)
	}
	return &payment, nil
}

// MarkPaymentCompleted идемпотентно помечает платёж оплаченным.
// Возвращает (платёж, был ли он помечен именно сейчас). Повторный вызов
// для уже COMPLETED платежа — no-op: это ключ защиты от дублей webhook.
func (r *PaymentRepository) MarkPaymentCompleted(ctx context.Context, transactionID string) (*models.Payment, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var payment models.Payment
	err = tx.GetContext(ctx, &payment, `
		SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1 FOR UPDATE
	`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, apperror.ErrPaymentNotFound
		}
		return nil, false, fmt.Errorf("payment repository: lock payment: %w", err)
	}

	if payment.Status == models.PaymentStatusCompleted {
		return &payment, false, tx.Commit()
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, false, ErrPaymentStatusConflict
	}

	err = tx.GetContext(ctx, &payment, `
		UPDATE payments SET status = 'COMPLETED', updated_at = NOW()
		WHERE transaction_id = $1
		RETURNING `+paymentColumns+`
	`, transactionID)
	if err != nil {
		return nil, false, fmt.Errorf("payment repository: mark completed: %w", err)
	}

	return &payment, true, tx.Commit()
}

// MarkPaymentFailed помечает PENDING платёж неуспешным.
func (r *PaymentRepository) MarkPaymentFailed(ctx context.Context, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = 'FAILED', updated_at = NOW()
		WHERE transaction_id = $1 AND status = 'PENDING'
	`, transactionID)
	if err != nil {
		return fmt.Errorf("payment repository: mark failed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrPaymentStatusConflict
	}
	return nil
}

// DeletePendingPayment удаляет платёж, для которого не удалось выставить счёт.
// Применим только к PENDING: оплаченные платежи не удаляются никогда.
func (r *PaymentRepository) DeletePendingPayment(ctx context.Context, paymentID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND status = 'PENDING'`, paymentID)
	if err != nil {
		return fmt.Errorf("payment repository: delete pending payment: %w", err)
	}
	return nil
}

// VoidPendingPayment аннулирует неоплаченный счёт отменённого задания:
// PENDING-платёж и PENDING-escrow удаляются в одной транзакции. Поздний
// webhook по удалённому счёту не найдёт платёж и получит ответ failed.
// Платежи и escrow в любом другом статусе не трогаются.
func (r *PaymentRepository) VoidPendingPayment(ctx context.Context, jobID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM payments WHERE job_id = $1 AND status = 'PENDING'`, jobID)
	if err != nil {
		return fmt.Errorf("payment repository: void pending payment: %w", err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM escrow WHERE job_id = $1 AND status = 'PENDING'`, jobID)
	if err != nil {
		return fmt.Errorf("payment repository: void pending escrow: %w", err)
	}
	return tx.Commit()
}

// EnsureEscrow возвращает escrow задания, создавая его при первом обращении.
// Гонку двух одновременных вызовов разрешает уникальный индекс на job_id:
// insert-if-absent и повторное чтение вместо блокировок в приложении.
func (r *PaymentRepository) EnsureEscrow(ctx context.Context, jobID uuid.UUID, amount float64) (*models.Escrow, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO escrow (job_id, amount, status)
		VALUES ($1, $2, 'PENDING')
		ON CONFLICT (job_id) DO NOTHING
	`, jobID, amount)
	if err != nil {
		return nil, fmt.Errorf("payment repository: ensure escrow: %w", err)
	}
	return r.GetEscrowByJobID(ctx, jobID)
}

// GetEscrowByJobID возвращает escrow задания.
func (r *PaymentRepository) GetEscrowByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `SELECT `+escrowColumns+` FROM escrow WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("payment repository: get escrow: %w", err)
	}
	return &escrow, nil
}

// HoldEscrow переводит escrow PENDING -> HELD. Любой другой исходный статус —
// конфликт: шлюз PENDING->HELD открывается ровно один раз.
func (r *PaymentRepository) HoldEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `
		UPDATE escrow SET status = 'HELD' WHERE job_id = $1 AND status = 'PENDING'
		RETURNING `+escrowColumns+`
	`, jobID)
	if err == nil {
		return &escrow, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment repository: hold escrow: %w", err)
	}
	if _, getErr := r.GetEscrowByJobID(ctx, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrEscrowStatusConflict
}

// RefundEscrow переводит escrow HELD -> REFUNDED. Баланс не меняется:
// деньги возвращаются плательщику через шлюз, вне внутреннего леджера.
func (r *PaymentRepository) RefundEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `
		UPDATE escrow SET status = 'REFUNDED', released_at = NOW()
		WHERE job_id = $1 AND status = 'HELD'
		RETURNING `+escrowColumns+`
	`, jobID)
	if err == nil {
		return &escrow, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment repository: refund escrow: %w", err)
	}
	if _, getErr := r.GetEscrowByJobID(ctx, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrEscrowStatusConflict
}

// ReleaseEscrow переводит escrow HELD -> RELEASED и в той же транзакции
// зачисляет сумму на баланс исполнителя.
func (r *PaymentRepository) ReleaseEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	escrow, err := releaseEscrowTx(ctx, tx, jobID, 0)
	if err != nil {
		return nil, err
	}

	return escrow, tx.Commit()
}

// ensureEscrowHeld — шлюз HELD -> {RELEASED, REFUNDED} открывается ровно
// один раз: повторный релиз или возврат — конфликт без повторного движения
// денег.
func ensureEscrowHeld(escrow *models.Escrow) error {
	if escrow.Status != models.EscrowStatusHeld {
		return ErrEscrowStatusConflict
	}
	return nil
}

// releaseEscrowTx — общая часть релиза escrow внутри открытой транзакции.
// creditOverride > 0 задаёт сумму зачисления, отличную от суммы escrow
// (частичное решение спора); 0 означает полную сумму.
func releaseEscrowTx(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID, creditOverride float64) (*models.Escrow, error) {
	var escrow models.Escrow
	err := tx.GetContext(ctx, &escrow, `
		SELECT `+escrowColumns+` FROM escrow WHERE job_id = $1 FOR UPDATE
	`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("payment repository: lock escrow: %w", err)
	}
	if err := ensureEscrowHeld(&escrow); err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &escrow, `
		UPDATE escrow SET status = 'RELEASED', released_at = NOW()
		WHERE job_id = $1
		RETURNING `+escrowColumns+`
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("payment repository: release escrow: %w", err)
	}

	credit := escrow.Amount
	if creditOverride > 0 {
		credit = creditOverride
	}

	var freelancerID uuid.UUID
	if err := tx.GetContext(ctx, &freelancerID, `SELECT freelancer_id FROM jobs WHERE id = $1`, jobID); err != nil {
		return nil, fmt.Errorf("payment repository: get freelancer: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, freelancerID, credit)
	if err != nil {
		return nil, fmt.Errorf("payment repository: credit balance: %w", err)
	}

	return &escrow, nil
}

// CompleteJobAndRelease атомарно завершает задание и освобождает escrow:
// переход задания from -> COMPLETED, escrow HELD -> RELEASED и зачисление
// баланса исполнителю в одной транзакции. Если escrow для задания не
// создавался (работа без удержания средств), завершается только задание.
func (r *PaymentRepository) CompleteJobAndRelease(ctx context.Context, jobID uuid.UUID, from models.JobStatus) (*models.Job, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `
		UPDATE jobs SET status = 'COMPLETED', updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+jobColumns+`
	`, jobID, from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobStatusChanged
		}
		return nil, fmt.Errorf("payment repository: complete job: %w", err)
	}

	if _, err := releaseEscrowTx(ctx, tx, jobID, 0); err != nil {
		if apperror.IsNotFound(err) {
			return &job, tx.Commit()
		}
		return nil, err
	}

	return &job, tx.Commit()
}

// DisputeResolution параметры разрешения спора.
type DisputeResolution struct {
	JobID        uuid.UUID
	Resolution   string
	RefundAmount *float64
	Notes        string
	AdminID      uuid.UUID
}

// disputeOutcome — рассчитанный исход решения по спору: целевые статусы
// и движение денег по балансу исполнителя.
type disputeOutcome struct {
	jobStatus    models.JobStatus
	escrowStatus string
	credit       float64
	debit        float64
}

// resolveDisputeOutcome вычисляет исход решения с учётом текущего состояния
// escrow. Спор, открытый после завершения задания, застаёт escrow уже в
// RELEASED: деньги зачислены исполнителю, поэтому возврат оформляется
// списанием с его баланса, а сам escrow больше не трогается. Escrow в
// PENDING или REFUNDED разбору не подлежит.
func resolveDisputeOutcome(res DisputeResolution, jobAmount float64, escrowStatus string, hasEscrow bool) (disputeOutcome, error) {
	released := hasEscrow && escrowStatus == models.EscrowStatusReleased
	if hasEscrow && !released && escrowStatus != models.EscrowStatusHeld {
		return disputeOutcome{}, ErrEscrowStatusConflict
	}

	out := disputeOutcome{
		jobStatus:    models.JobStatusCompleted,
		escrowStatus: models.EscrowStatusReleased,
	}

	switch res.Resolution {
	case models.ResolutionRelease:
		if !released {
			out.credit = jobAmount
		}
	case models.ResolutionRefund:
		out.jobStatus = models.JobStatusCancelled
		if released {
			out.debit = jobAmount
		} else {
			out.escrowStatus = models.EscrowStatusRefunded
		}
	case models.ResolutionPartial:
		if res.RefundAmount == nil {
			return disputeOutcome{}, apperror.New(apperror.ErrCodeValidation, "для частичного решения требуется сумма возврата")
		}
		refund := *res.RefundAmount
		if refund <= 0 || refund >= jobAmount {
			return disputeOutcome{}, apperror.New(apperror.ErrCodeValidation, "сумма возврата должна быть в пределах (0, сумма задания)")
		}
		if released {
			out.debit = refund
		} else {
			out.credit = jobAmount - refund
		}
	default:
		return disputeOutcome{}, apperror.New(apperror.ErrCodeValidation, "неизвестный вариант решения спора")
	}

	return out, nil
}

// ResolveDispute выполняет решение администратора по спору в одной
// транзакции: статус задания, статус escrow, баланс исполнителя и запись
// журнала меняются атомарно — частичное применение невозможно.
func (r *PaymentRepository) ResolveDispute(ctx context.Context, res DisputeResolution) (*models.Job, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, res.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, fmt.Errorf("payment repository: lock job: %w", err)
	}
	if job.Status != models.JobStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание не находится в споре")
	}

	var escrow models.Escrow
	hasEscrow := true
	err = tx.GetContext(ctx, &escrow, `SELECT `+escrowColumns+` FROM escrow WHERE job_id = $1 FOR UPDATE`, res.JobID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment repository: lock escrow: %w", err)
		}
		hasEscrow = false
	}

	out, err := resolveDisputeOutcome(res, job.Amount, escrow.Status, hasEscrow)
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &job, `
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+jobColumns+`
	`, res.JobID, out.jobStatus)
	if err != nil {
		return nil, fmt.Errorf("payment repository: resolve job status: %w", err)
	}

	if hasEscrow && out.escrowStatus != escrow.Status {
		_, err = tx.ExecContext(ctx, `
			UPDATE escrow SET status = $2, released_at = NOW() WHERE job_id = $1
		`, res.JobID, out.escrowStatus)
		if err != nil {
			return nil, fmt.Errorf("payment repository: resolve escrow status: %w", err)
		}
	}

	if out.credit > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE id = $1
		`, job.FreelancerID, out.credit)
		if err != nil {
			return nil, fmt.Errorf("payment repository: credit balance: %w", err)
		}
	}

	if out.debit > 0 {
		deb, err := tx.ExecContext(ctx, `
			UPDATE users SET balance = balance - $2, updated_at = NOW()
			WHERE id = $1 AND balance >= $2
		`, job.FreelancerID, out.debit)
		if err != nil {
			return nil, fmt.Errorf("payment repository: debit balance: %w", err)
		}
		if rows, _ := deb.RowsAffected(); rows == 0 {
			return nil, apperror.New(apperror.ErrCodeConflict, "на балансе исполнителя недостаточно средств для возврата")
		}
	}

	details, err := json.Marshal(map[string]interface{}{
		"job_id":        res.JobID,
		"resolution":    res.Resolution,
		"refund_amount": res.RefundAmount,
		"notes":         res.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("payment repository: marshal audit details: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, resource, details)
		VALUES ($1, 'resolve_dispute', $2, $3)
	`, res.AdminID, "job:"+res.JobID.String(), details)
	if err != nil {
		return nil, fmt.Errorf("payment repository: audit resolve: %w", err)
	}

	return &job, tx.Commit()
}
