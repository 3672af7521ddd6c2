package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/billing"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers/common"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
)

// PaymentHandler обслуживает оплату заданий через внешний шлюз.
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateBill POST /jobs/:id/pay — выставляет счёт на оплату задания.
func (h *PaymentHandler) CreateBill(c *gin.Context) {
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

	bill, err := h.payments.CreateBill(c.Request.Context(), actor, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// GetJobPayment GET /jobs/:id/payment
func (h *PaymentHandler) GetJobPayment(c *gin.Context) {
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

	payment, err := h.payments.GetByJob(c.Request.Context(), actor, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GetJobEscrow GET /jobs/:id/escrow
func (h *PaymentHandler) GetJobEscrow(c *gin.Context) {
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

	escrow, err := h.payments.GetEscrowByJob(c.Request.Context(), actor, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}

// Webhook POST /payments/webhook — server-to-server callback шлюза.
// Тело приходит формой (application/x-www-form-urlencoded). Ответ следует
// протоколу шлюза: {"status":"success"} либо {"status":"failed"};
// внутренние сбои пост-обработки на ответ не влияют.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var payload billing.WebhookPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed"})
		return
	}

	if h.payments.HandleWebhook(c.Request.Context(), payload) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "failed"})
}

// Redirect GET /payments/redirect — возврат пользователя из шлюза.
// Статус счёта перепроверяется напрямую у шлюза: резервный канал
// подтверждения на случай недоступности webhook.
func (h *PaymentHandler) Redirect(c *gin.Context) {
	billID := c.Query("billplz[id]")
	if billID == "" {
		billID = c.Query("bill_id")
	}
	if billID == "" {
		common.RespondBadRequest(c, "идентификатор счёта обязателен")
		return
	}

	payment, err := h.payments.ConfirmRedirect(c.Request.Context(), billID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
