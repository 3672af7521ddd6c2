package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers/common"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
)

// DisputeHandler — разбор споров администратором.
type DisputeHandler struct {
	disputes *service.DisputeService
}

func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// ResolveDispute POST /admin/jobs/:id/resolve
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
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

	var req struct {
		Resolution   string   `json:"resolution" binding:"required"`
		RefundAmount *float64 `json:"refund_amount"`
		Notes        string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.disputes.Resolve(c.Request.Context(), actor, service.ResolveInput{
		JobID:        jobID,
		Resolution:   req.Resolution,
		RefundAmount: req.RefundAmount,
		Notes:        req.Notes,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
