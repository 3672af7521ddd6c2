package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AdminLog запись журнала привилегированных действий.
// Только добавление: записи никогда не обновляются и не удаляются.
type AdminLog struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	AdminID   uuid.UUID       `db:"admin_id" json:"admin_id"`
	Action    string          `db:"action" json:"action"`
	Resource  string          `db:"resource" json:"resource"`
	Details   json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
