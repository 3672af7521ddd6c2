package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers/common"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
)

// EscrowHandler — административные операции с escrow. Пользовательских
// путей сюда нет: системные переходы escrow запускает платёжный webhook.
type EscrowHandler struct {
	escrow *service.EscrowService
}

func NewEscrowHandler(escrow *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrow: escrow}
}

// GetEscrow GET /admin/jobs/:id/escrow
func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.escrow.Get(c.Request.Context(), jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}

// HoldEscrow POST /admin/jobs/:id/escrow/hold
func (h *EscrowHandler) HoldEscrow(c *gin.Context) {
	h.transition(c, h.escrow.Hold)
}

// ReleaseEscrow POST /admin/jobs/:id/escrow/release
func (h *EscrowHandler) ReleaseEscrow(c *gin.Context) {
	h.transition(c, h.escrow.Release)
}

// RefundEscrow POST /admin/jobs/:id/escrow/refund
func (h *EscrowHandler) RefundEscrow(c *gin.Context) {
	h.transition(c, h.escrow.Refund)
}

func (h *EscrowHandler) transition(c *gin.Context, op func(ctx context.Context, actor service.Actor, jobID uuid.UUID) (*models.Escrow, error)) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := op(c.Request.Context(), actor, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}
