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

// JobHandler обслуживает жизненный цикл задания.
type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// CreateJob POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		ServiceID   string   `json:"service_id" binding:"required"`
		Description string   `json:"description"`
		Amount      *float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		common.RespondBadRequest(c, "неверный service_id")
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), actor, service.CreateJobInput{
		ServiceID:   serviceID,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// GetJob GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	h.withJob(c, h.jobs.Get)
}

// ListMyJobs GET /jobs/my
func (h *JobHandler) ListMyJobs(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.List(c.Request.Context(), actor, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// AcceptJob POST /jobs/:id/accept
func (h *JobHandler) AcceptJob(c *gin.Context) {
	h.withJob(c, h.jobs.Accept)
}

// RejectJob POST /jobs/:id/reject
func (h *JobHandler) RejectJob(c *gin.Context) {
	h.withJob(c, h.jobs.Reject)
}

// CancelJob POST /jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.withJob(c, h.jobs.Cancel)
}

// SubmitJob POST /jobs/:id/submit
func (h *JobHandler) SubmitJob(c *gin.Context) {
	h.withJob(c, h.jobs.Submit)
}

// StartReview POST /jobs/:id/review
func (h *JobHandler) StartReview(c *gin.Context) {
	h.withJob(c, h.jobs.StartReview)
}

// RequestChanges POST /jobs/:id/request-changes
func (h *JobHandler) RequestChanges(c *gin.Context) {
	h.withJob(c, h.jobs.RequestChanges)
}

// ResubmitJob POST /jobs/:id/resubmit
func (h *JobHandler) ResubmitJob(c *gin.Context) {
	h.withJob(c, h.jobs.Resubmit)
}

// ApproveJob POST /jobs/:id/approve
func (h *JobHandler) ApproveJob(c *gin.Context) {
	h.withJob(c, h.jobs.Approve)
}

// CompleteJob POST /jobs/:id/complete
func (h *JobHandler) CompleteJob(c *gin.Context) {
	h.withJob(c, h.jobs.Complete)
}

// DisputeJob POST /jobs/:id/dispute
func (h *JobHandler) DisputeJob(c *gin.Context) {
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
		common.RespondBadRequest(c, "причина спора обязательна")
		return
	}

	job, err := h.jobs.Dispute(c.Request.Context(), actor, jobID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// withJob — общий путь операций вида (actor, jobID) -> job.
func (h *JobHandler) withJob(c *gin.Context, op func(ctx context.Context, actor service.Actor, jobID uuid.UUID) (*models.Job, error)) {
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
