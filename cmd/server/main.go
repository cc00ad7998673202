// cmd/server/main.go
// HTTP Server
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lilyxseo/HematWoi-sub009/internal/config"
	"github.com/lilyxseo/HematWoi-sub009/internal/handler"
	"github.com/lilyxseo/HematWoi-sub009/internal/middleware"
	"github.com/lilyxseo/HematWoi-sub009/internal/repository"
	"github.com/lilyxseo/HematWoi-sub009/internal/service"
	"github.com/lilyxseo/HematWoi-sub009/pkg/database"
	"github.com/lilyxseo/HematWoi-sub009/pkg/logger"
	"github.com/lilyxseo/HematWoi-sub009/pkg/redis"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log := newLogger(cfg)
	defer log.Sync()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis
	redisClient := redis.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize repositories
	debtRepo := repository.NewDebtRepository(db.DB)
	accountRepo := repository.NewAccountRepository(db.DB)

	// Initialize services
	debtService := service.NewDebtService(debtRepo, accountRepo, redisClient, log, cfg)

	// Initialize handlers
	debtHandler := handler.NewDebtHandler(debtService, log)

	// Setup router
	router := setupRouter(debtHandler, log, cfg)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.Environment == "development" {
		return logger.NewDevelopmentLogger("hematwoi-debts")
	}
	return logger.NewLogger("hematwoi-debts")
}

func setupRouter(debtHandler *handler.DebtHandler, log *zap.Logger, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	// Health checks
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret))
	{
		debts := v1.Group("/debts")
		{
			debts.GET("", debtHandler.ListDebts)
			debts.POST("", debtHandler.CreateDebt)
			debts.GET("/:id", debtHandler.GetDebt)
			debts.PUT("/:id", debtHandler.UpdateDebt)
			debts.DELETE("/:id", debtHandler.DeleteDebt)
			debts.POST("/:id/payments", debtHandler.CreateDebtPayment)
		}

		payments := v1.Group("/debt-payments")
		{
			payments.PUT("/:id", debtHandler.UpdateDebtPayment)
			payments.DELETE("/:id", debtHandler.DeleteDebtPayment)
		}
	}

	return router
}
