package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/medshift/marketplace/internal/audit"
	"github.com/medshift/marketplace/internal/config"
	"github.com/medshift/marketplace/internal/fees"
	"github.com/medshift/marketplace/internal/handler"
	"github.com/medshift/marketplace/internal/payment"
	"github.com/medshift/marketplace/internal/repository"
	"github.com/medshift/marketplace/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected")

	store := repository.NewStore(db)
	auditSink := audit.NewRecorder(store)
	gateway := payment.NewMockGateway()
	calc := fees.NewCalculator(cfg.Fees)

	escrowSvc := service.NewEscrowService(store, gateway, auditSink)
	contractSvc := service.NewContractService(store, auditSink)
	tokenSvc := service.NewTokenService(cfg.JWTSecret)

	escrowHandler := handler.NewEscrowHandler(escrowSvc, calc)
	contractHandler := handler.NewContractHandler(contractSvc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewAppValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(handler.RequestLogger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return handler.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1", handler.ActorAuth(tokenSvc))

	api.POST("/jobs/:id/orders", contractHandler.Create)
	api.GET("/jobs/:id/orders", contractHandler.ListForJob)
	api.GET("/jobs/:id/orders/latest", contractHandler.LatestForJob)
	api.GET("/orders/:id", contractHandler.Get)
	api.PATCH("/orders/:id/status", contractHandler.UpdateStatus)

	api.POST("/jobs/:id/escrow", escrowHandler.Create)
	api.GET("/jobs/:id/escrow", escrowHandler.GetByJob)
	api.GET("/escrows/:id", escrowHandler.Get)
	api.POST("/escrows/:id/payment", escrowHandler.ProcessPayment)
	api.POST("/escrows/:id/release", escrowHandler.Release)
	api.POST("/escrows/:id/refund", escrowHandler.Refund)

	api.GET("/fees/quote", escrowHandler.FeeQuote)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
