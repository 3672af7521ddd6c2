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

// PayoutHandler — административное управление выплатами по заданию:
// переходы PAYOUT_* после COMPLETED.
type PayoutHandler struct {
	jobs *service.JobService
}

func NewPayoutHandler(jobs *service.JobService) *PayoutHandler {
	return &PayoutHandler{jobs: jobs}
}

// StartPayout POST /admin/jobs/:id/payout/start
func (h *PayoutHandler) StartPayout(c *gin.Context) {
	h.transition(c, h.jobs.StartPayout)
}

// HoldPayout POST /admin/jobs/:id/payout/hold
func (h *PayoutHandler) HoldPayout(c *gin.Context) {
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
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина удержания обязательна")
		return
	}

	job, err := h.jobs.HoldPayout(c.Request.Context(), actor, jobID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ResumePayout POST /admin/jobs/:id/payout/resume
func (h *PayoutHandler) ResumePayout(c *gin.Context) {
	h.transition(c, h.jobs.ResumePayout)
}

// MarkPaidOut POST /admin/jobs/:id/payout/paid
func (h *PayoutHandler) MarkPaidOut(c *gin.Context) {
	h.transition(c, h.jobs.MarkPaidOut)
}

// MarkPayoutFailed POST /admin/jobs/:id/payout/failed
func (h *PayoutHandler) MarkPayoutFailed(c *gin.Context) {
	h.transition(c, h.jobs.MarkPayoutFailed)
}

// RetryPayout POST /admin/jobs/:id/payout/retry
func (h *PayoutHandler) RetryPayout(c *gin.Context) {
	h.transition(c, h.jobs.RetryPayout)
}

// EscalatePayout POST /admin/jobs/:id/payout/escalate
func (h *PayoutHandler) EscalatePayout(c *gin.Context) {
	h.transition(c, h.jobs.EscalatePayout)
}

func (h *PayoutHandler) transition(c *gin.Context, op func(ctx context.Context, actor service.Actor, jobID uuid.UUID) (*models.Job, error)) {
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

	job, err := op(c.Request.Context(), actor, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
