package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus статусы жизненного цикла задания.
type JobStatus string

const (
	JobStatusPending           JobStatus = "PENDING"
	JobStatusAccepted          JobStatus = "ACCEPTED"
	JobStatusAwaitingPayment   JobStatus = "AWAITING_PAYMENT"
	JobStatusInProgress        JobStatus = "IN_PROGRESS"
	JobStatusSubmitted         JobStatus = "SUBMITTED"
	JobStatusInReview          JobStatus = "IN_REVIEW"
	JobStatusInRevision        JobStatus = "IN_REVISION"
	JobStatusCompleted         JobStatus = "COMPLETED"
	JobStatusCancelled         JobStatus = "CANCELLED"
	JobStatusRejected          JobStatus = "REJECTED"
	JobStatusDisputed          JobStatus = "DISPUTED"
	JobStatusPayoutProcessing  JobStatus = "PAYOUT_PROCESSING"
	JobStatusPayoutHold        JobStatus = "PAYOUT_HOLD"
	JobStatusPaidOut           JobStatus = "PAID_OUT"
	JobStatusPayoutFailed      JobStatus = "PAYOUT_FAILED"
	JobStatusPayoutFailedManual JobStatus = "PAYOUT_FAILED_MANUAL"
)

// jobTransitions таблица разрешённых переходов статусов.
// Переходы DISPUTED -> {COMPLETED, CANCELLED} выполняет только разбор спора,
// PAYOUT_* переходы — только административные операции выплат.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:          {JobStatusAccepted, JobStatusRejected},
	JobStatusAccepted:         {JobStatusAwaitingPayment, JobStatusCancelled},
	JobStatusAwaitingPayment:  {JobStatusInProgress, JobStatusCancelled},
	JobStatusInProgress:       {JobStatusSubmitted, JobStatusCompleted, JobStatusCancelled, JobStatusDisputed},
	JobStatusSubmitted:        {JobStatusInReview, JobStatusDisputed},
	JobStatusInReview:         {JobStatusCompleted, JobStatusInRevision, JobStatusDisputed},
	JobStatusInRevision:       {JobStatusSubmitted, JobStatusDisputed},
	JobStatusCompleted:        {JobStatusDisputed, JobStatusPayoutProcessing},
	JobStatusDisputed:         {JobStatusCompleted, JobStatusCancelled},
	JobStatusPayoutProcessing: {JobStatusPaidOut, JobStatusPayoutFailed, JobStatusPayoutHold},
	JobStatusPayoutHold:       {JobStatusPayoutProcessing},
	JobStatusPayoutFailed:     {JobStatusPayoutProcessing, JobStatusPayoutFailedManual},

	JobStatusCancelled:          {},
	JobStatusRejected:           {},
	JobStatusPaidOut:            {},
	JobStatusPayoutFailedManual: {},
}

func (s JobStatus) IsValid() bool {
	_, ok := jobTransitions[s]
	return ok
}

// CanTransitionTo проверяет, разрешён ли переход в новый статус.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s JobStatus) IsTerminal() bool {
	allowed, ok := jobTransitions[s]
	return ok && len(allowed) == 0
}

// Job описывает задание: единицу работы от создания до выплаты.
type Job struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ServiceID        uuid.UUID  `db:"service_id" json:"service_id"`
	ClientID         uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID     uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Description      string     `db:"description" json:"description"`
	Amount           float64    `db:"amount" json:"amount"`
	Status           JobStatus  `db:"status" json:"status"`
	DisputeReason    *string    `db:"dispute_reason" json:"dispute_reason,omitempty"`
	PayoutHoldReason *string    `db:"payout_hold_reason" json:"payout_hold_reason,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	StartedAt        *time.Time `db:"started_at" json:"started_at,omitempty"`
}

// IsParticipant проверяет, что пользователь — сторона задания.
func (j *Job) IsParticipant(userID uuid.UUID) bool {
	return j.ClientID == userID || j.FreelancerID == userID
}
