package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя платформы.
// Balance — накопленный заработок фрилансера: пополняется при релизе escrow,
// списывается при одобрении вывода средств; никогда не уходит в минус.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Username  string    `db:"username" json:"username"`
	Role      string    `db:"role" json:"role"`
	Balance   float64   `db:"balance" json:"balance"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
