package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceOffering описывает услугу фрилансера в каталоге.
// Задание создаётся по услуге: цена услуги становится суммой задания
// по умолчанию, владелец услуги — исполнителем.
type ServiceOffering struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Price        float64   `db:"price" json:"price"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
