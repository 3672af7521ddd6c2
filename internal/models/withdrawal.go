package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	WithdrawalStatusPending  = "PENDING"
	WithdrawalStatusApproved = "APPROVED"
	WithdrawalStatusRejected = "REJECTED"
)

// Withdrawal представляет заявку фрилансера на вывод средств.
// Средства резервируются (списываются с баланса) в момент создания заявки
// и возвращаются при отклонении.
type Withdrawal struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	FreelancerID    uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Amount          float64    `db:"amount" json:"amount"`
	Status          string     `db:"status" json:"status"`
	BankCode        string     `db:"bank_code" json:"bank_code"`
	AccountNumber   string     `db:"account_number" json:"account_number"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProcessedByID   *uuid.UUID `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// BankDetails реквизиты для вывода средств.
type BankDetails struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
}
