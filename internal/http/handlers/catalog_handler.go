package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers/common"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
)

// CatalogHandler — публичный каталог услуг.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListServices GET /services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	services, err := h.catalog.ListServices(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetService GET /services/:id
func (h *CatalogHandler) GetService(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offering, err := h.catalog.GetService(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, offering)
}
