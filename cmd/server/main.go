package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
	"github.com/invoicedesk/backend/internal/infrastructure/cache"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/invoicedesk/backend/internal/infrastructure/event"
	"github.com/invoicedesk/backend/internal/infrastructure/logger"
	"github.com/invoicedesk/backend/internal/infrastructure/notification"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence"
	"github.com/invoicedesk/backend/internal/interfaces/http/handler"
	"github.com/invoicedesk/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("starting invoicedesk server",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories and transaction manager
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Event bus with the redis view invalidator subscribed when redis is up.
	// The engine runs fine without it, batch uploads just stop flushing views.
	eventBus := event.NewInMemoryEventBus(log)
	invalidator, err := cache.NewViewInvalidator(&cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, cached view invalidation disabled", zap.Error(err))
	} else {
		defer invalidator.Close()
		eventBus.Subscribe(invalidator)
	}

	// Application services
	smsGateway := notification.NewSMSGateway(&cfg.SMS, log)
	paymentService := appbilling.NewPaymentApplicationService(
		invoiceRepo, paymentRepo, ledgerRepo, txManager, eventBus, log)
	reconcileService := appbilling.NewBulkReconcileService(
		invoiceRepo, paymentService, eventBus, log)
	reminderService := appbilling.NewReminderService(
		invoiceRepo, customerRepo, smsGateway, eventBus, log)

	// HTTP layer
	engine := router.NewEngine(log, cfg.HTTP.MaxSheetBytes)
	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db)).
		Register(handler.NewInvoiceHandler(invoiceRepo, paymentService)).
		Register(handler.NewPaymentHandler(paymentService)).
		Register(handler.NewReconciliationHandler(reconcileService)).
		Register(handler.NewReminderHandler(reminderService, reminderService)).
		Register(handler.NewLedgerHandler(ledgerRepo)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTP.IdleTimeout) * time.Second,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()
	log.Info("server listening", zap.String("addr", server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
