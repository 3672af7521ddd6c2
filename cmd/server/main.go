package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/billing"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/config"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/db"
	httpHandlers "github.com/waniqbal01/freetask-app-3-sub000/internal/http/handlers"
	httpRouter "github.com/waniqbal01/freetask-app-3-sub000/internal/http/router"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/logger"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/repository"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/service"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Клиент платёжного шлюза.
	gateway := billing.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayCollection, cfg.GatewaySigningKey, cfg.GatewayTimeout)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	adminLogRepo := repository.NewAdminLogRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo)
	notificationService.SetHub(hub)

	auditService := service.NewAuditService(adminLogRepo)
	escrowService := service.NewEscrowService(paymentRepo, auditService)
	catalogService := service.NewCatalogService(catalogRepo)
	jobService := service.NewJobService(jobRepo, catalogRepo, paymentRepo, paymentRepo, auditService, notificationService)
	paymentService := service.NewPaymentService(paymentRepo, jobRepo, userRepo, gateway, escrowService, notificationService, service.PaymentURLs{
		CallbackURL: cfg.GatewayCallbackURL,
		RedirectURL: cfg.GatewayRedirectURL,
	})
	disputeService := service.NewDisputeService(paymentRepo, notificationService)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, userRepo, notificationService)

	// HTTP хэндлеры.
	h := httpRouter.Handlers{
		Health:       httpHandlers.NewHealthHandler(dbConn),
		Catalog:      httpHandlers.NewCatalogHandler(catalogService),
		Job:          httpHandlers.NewJobHandler(jobService),
		Payment:      httpHandlers.NewPaymentHandler(paymentService),
		Escrow:       httpHandlers.NewEscrowHandler(escrowService),
		Dispute:      httpHandlers.NewDisputeHandler(disputeService),
		Payout:       httpHandlers.NewPayoutHandler(jobService),
		Withdrawal:   httpHandlers.NewWithdrawalHandler(withdrawalService),
		Audit:        httpHandlers.NewAuditHandler(auditService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
	}

	engine := httpRouter.SetupRouter(cfg, h, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
