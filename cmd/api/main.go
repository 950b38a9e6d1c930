package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
	"github.com/cvjob-dk/cvjob-backend/internal/config"
	"github.com/cvjob-dk/cvjob-backend/internal/cv"
	"github.com/cvjob-dk/cvjob-backend/internal/database"
	"github.com/cvjob-dk/cvjob-backend/internal/export"
	"github.com/cvjob-dk/cvjob-backend/internal/handlers"
	"github.com/cvjob-dk/cvjob-backend/internal/models"
	"github.com/cvjob-dk/cvjob-backend/internal/notify"
	"github.com/cvjob-dk/cvjob-backend/internal/services"
	"github.com/cvjob-dk/cvjob-backend/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Configuration
	cfg := config.Load(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.Connect(cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("database.unavailable", "error", err)
		os.Exit(1)
	}

	// 3. Core services
	jobService := services.NewJobService(db, logger)
	letterService := services.NewLetterService(db, logger)
	userService := services.NewUserService(db, logger)
	llmService, err := services.NewLLMService(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("llm.unavailable", "error", err)
		os.Exit(1)
	}
	exportService := export.NewService(jobService, logger)
	cvParser := cv.NewParser(cfg.Uploads.Dir, logger)

	// 4. Workflow sessions
	manager := workflow.NewManager(func(user models.User) *workflow.Orchestrator {
		return workflow.NewOrchestrator(
			user,
			jobService,
			letterService,
			llmService,
			notify.NewBuffer(),
			logger,
			workflow.Options{
				Timeout:         cfg.Generation.Timeout,
				RetryGeneration: cfg.Generation.RetryGeneration,
				MaxRetries:      cfg.Generation.MaxRetries,
				InitialDelay:    cfg.Generation.InitialDelay,
				DefaultLocale:   cfg.Generation.DefaultLocale,
			},
		)
	}, logger)

	// 5. Handlers
	sessionHandler := handlers.NewSessionHandler(manager)
	jobHandler := handlers.NewJobHandler(jobService)
	letterHandler := handlers.NewLetterHandler(letterService)
	cvHandler := handlers.NewCVHandler(cvParser, userService)
	exportHandler := handlers.NewExportHandler(exportService)

	// 6. Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 7. Routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		authed := api.Group("", auth.RequireUser(userService))
		{
			authed.GET("/auth/me", handlers.Me)

			authed.POST("/sessions", sessionHandler.Open)
			authed.DELETE("/sessions/:id", sessionHandler.Close)
			authed.GET("/sessions/:id/status", sessionHandler.Status)
			authed.POST("/sessions/:id/generate", sessionHandler.Generate)
			authed.POST("/sessions/:id/cancel", sessionHandler.Cancel)
			authed.POST("/sessions/:id/reset-error", sessionHandler.ResetError)
			authed.POST("/sessions/:id/draft", sessionHandler.SaveDraft)
			authed.PUT("/sessions/:id/letter", sessionHandler.EditLetter)
			authed.POST("/sessions/:id/jobs/:jobID/select", sessionHandler.SelectJob)
			authed.POST("/sessions/:id/letters/:letterID/select", sessionHandler.SelectLetter)

			authed.GET("/jobs", jobHandler.List)
			authed.GET("/jobs/:jobID", jobHandler.Get)
			authed.GET("/letters", letterHandler.List)
			authed.GET("/letters/:letterID", letterHandler.Get)

			authed.POST("/cv/parse", cvHandler.Parse)
			authed.GET("/export/applications", exportHandler.Applications)
		}
	}

	// 8. Serve with graceful shutdown
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Info("server.start", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutdown")
	manager.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown_failed", "error", err)
	}
}
