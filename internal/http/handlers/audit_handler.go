package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers/common"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
)

// AuditHandler — чтение журнала привилегированных действий.
type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAuditLog GET /admin/audit
func (h *AuditHandler) ListAuditLog(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	entries, err := h.audit.List(c.Request.Context(), actor, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
