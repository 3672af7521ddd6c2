package service

import (
	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

// Actor — аутентифицированный инициатор операции. Идентификатор и роль
// берутся из access токена, сервисы не перечитывают пользователя из БД
// ради проверки прав.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// requireRole проверяет роль инициатора.
func requireRole(actor Actor, role string) error {
	if actor.Role != role {
		return apperror.ErrForbidden
	}
	return nil
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}
