package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы платежей
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusRefunded  = "REFUNDED"
	PaymentStatusFailed    = "FAILED"
)

// Статусы escrow
const (
	EscrowStatusPending  = "PENDING"
	EscrowStatusHeld     = "HELD"
	EscrowStatusReleased = "RELEASED"
	EscrowStatusRefunded = "REFUNDED"
)

// Payment представляет счёт во внешнем платёжном шлюзе.
// На одно задание приходится не более одного активного платежа,
// transaction_id — уникальный идентификатор счёта на стороне шлюза.
type Payment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	JobID          uuid.UUID `db:"job_id" json:"job_id"`
	Amount         float64   `db:"amount" json:"amount"`
	Status         string    `db:"status" json:"status"`
	PaymentGateway string    `db:"payment_gateway" json:"payment_gateway"`
	TransactionID  string    `db:"transaction_id" json:"transaction_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Escrow представляет удержанные средства по заданию.
type Escrow struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	JobID      uuid.UUID  `db:"job_id" json:"job_id"`
	Amount     float64    `db:"amount" json:"amount"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt *time.Time `db:"released_at" json:"released_at,omitempty"`
}
