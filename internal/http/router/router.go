package router

import (
	"github.com/gin-gonic/gin"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/config"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/http/middleware"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
)

// Handlers — набор обработчиков, монтируемых в роутер.
type Handlers struct {
	Health       *handlers.HealthHandler
	Catalog      *handlers.CatalogHandler
	Job          *handlers.JobHandler
	Payment      *handlers.PaymentHandler
	Escrow       *handlers.EscrowHandler
	Dispute      *handlers.DisputeHandler
	Payout       *handlers.PayoutHandler
	Withdrawal   *handlers.WithdrawalHandler
	Audit        *handlers.AuditHandler
	Notification *handlers.NotificationHandler
	WS           *handlers.WSHandler
}

// SetupRouter собирает маршруты приложения.
func SetupRouter(cfg *config.Config, h Handlers, tokens *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/ws", h.WS.Handle)
	api.GET("/services", h.Catalog.ListServices)
	api.GET("/services/:id", middleware.UUIDValidator("id"), h.Catalog.GetService)

	// Callback шлюза и возврат пользователя: авторизации нет, подлинность
	// webhook подтверждается подписью. Rate limit защищает от перебора.
	webhookRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	api.POST("/payments/webhook", webhookRateLimit, h.Payment.Webhook)
	api.GET("/payments/redirect", webhookRateLimit, h.Payment.Redirect)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.POST("/jobs", h.Job.CreateJob)
		protected.GET("/jobs/my", h.Job.ListMyJobs)
		protected.GET("/jobs/:id", middleware.UUIDValidator("id"), h.Job.GetJob)
		protected.POST("/jobs/:id/accept", middleware.UUIDValidator("id"), h.Job.AcceptJob)
		protected.POST("/jobs/:id/reject", middleware.UUIDValidator("id"), h.Job.RejectJob)
		protected.POST("/jobs/:id/cancel", middleware.UUIDValidator("id"), h.Job.CancelJob)
		protected.POST("/jobs/:id/submit", middleware.UUIDValidator("id"), h.Job.SubmitJob)
		protected.POST("/jobs/:id/review", middleware.UUIDValidator("id"), h.Job.StartReview)
		protected.POST("/jobs/:id/request-changes", middleware.UUIDValidator("id"), h.Job.RequestChanges)
		protected.POST("/jobs/:id/resubmit", middleware.UUIDValidator("id"), h.Job.ResubmitJob)
		protected.POST("/jobs/:id/approve", middleware.UUIDValidator("id"), h.Job.ApproveJob)
		protected.POST("/jobs/:id/complete", middleware.UUIDValidator("id"), h.Job.CompleteJob)
		protected.POST("/jobs/:id/dispute", middleware.UUIDValidator("id"), h.Job.DisputeJob)

		protected.POST("/jobs/:id/pay", middleware.UUIDValidator("id"), h.Payment.CreateBill)
		protected.GET("/jobs/:id/payment", middleware.UUIDValidator("id"), h.Payment.GetJobPayment)
		protected.GET("/jobs/:id/escrow", middleware.UUIDValidator("id"), h.Payment.GetJobEscrow)

		protected.POST("/withdrawals", h.Withdrawal.CreateWithdrawal)
		protected.GET("/withdrawals/my", h.Withdrawal.ListMyWithdrawals)
		protected.GET("/withdrawals/balance", h.Withdrawal.GetBalance)
		protected.GET("/withdrawals/:id", middleware.UUIDValidator("id"), h.Withdrawal.GetWithdrawal)

		protected.GET("/notifications", h.Notification.ListNotifications)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
	}

	// Административные маршруты
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/audit", h.Audit.ListAuditLog)

		admin.GET("/withdrawals", h.Withdrawal.ListPending)
		admin.POST("/withdrawals/:id/approve", middleware.UUIDValidator("id"), h.Withdrawal.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), h.Withdrawal.RejectWithdrawal)

		admin.POST("/jobs/:id/resolve", middleware.UUIDValidator("id"), h.Dispute.ResolveDispute)

		admin.GET("/jobs/:id/escrow", middleware.UUIDValidator("id"), h.Escrow.GetEscrow)
		admin.POST("/jobs/:id/escrow/hold", middleware.UUIDValidator("id"), h.Escrow.HoldEscrow)
		admin.POST("/jobs/:id/escrow/release", middleware.UUIDValidator("id"), h.Escrow.ReleaseEscrow)
		admin.POST("/jobs/:id/escrow/refund", middleware.UUIDValidator("id"), h.Escrow.RefundEscrow)

		admin.POST("/jobs/:id/payout/start", middleware.UUIDValidator("id"), h.Payout.StartPayout)
		admin.POST("/jobs/:id/payout/hold", middleware.UUIDValidator("id"), h.Payout.HoldPayout)
		admin.POST("/jobs/:id/payout/resume", middleware.UUIDValidator("id"), h.Payout.ResumePayout)
		admin.POST("/jobs/:id/payout/paid", middleware.UUIDValidator("id"), h.Payout.MarkPaidOut)
		admin.POST("/jobs/:id/payout/failed", middleware.UUIDValidator("id"), h.Payout.MarkPayoutFailed)
		admin.POST("/jobs/:id/payout/retry", middleware.UUIDValidator("id"), h.Payout.RetryPayout)
		admin.POST("/jobs/:id/payout/escalate", middleware.UUIDValidator("id"), h.Payout.EscalatePayout)
	}

	return r
}
