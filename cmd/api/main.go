package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/api/handlers"
	"github.com/agentdesk/backend/internal/audit"
	"github.com/agentdesk/backend/internal/auth"
	cache "github.com/agentdesk/backend/internal/cache/redis"
	"github.com/agentdesk/backend/internal/chat"
	"github.com/agentdesk/backend/internal/content"
	"github.com/agentdesk/backend/internal/evaluation"
	"github.com/agentdesk/backend/internal/metrics"
	"github.com/agentdesk/backend/internal/middleware/ratelimit"
	"github.com/agentdesk/backend/internal/middleware/security"
	"github.com/agentdesk/backend/internal/middleware/validation"
	"github.com/agentdesk/backend/internal/paraphrase"
	"github.com/agentdesk/backend/internal/storage/sqlite"
	"github.com/agentdesk/backend/pkg/config"
	appLogger "github.com/agentdesk/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AgentDesk API Server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *cache.Client
	if cfg.Redis.Enabled {
		cacheClient, err = cache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			cacheClient = nil
		}
	}

	metrics.Init()

	generator := paraphrase.NewGenerator(nil, cfg.Matching.MaxVariants)
	auditRecorder := audit.NewRecorder(sqliteClient)
	contentService := content.NewService(sqliteClient, generator, cacheClient, auditRecorder)
	chatEngine := chat.NewEngine(sqliteClient, cacheClient, cfg.Matching.Threshold)
	evaluator := evaluation.NewEvaluator(chatEngine, cfg.Matching.Threshold, nil)

	var authClient *auth.Client
	if cfg.Auth.Enabled {
		authClient = auth.NewClient(cfg.Auth, cacheClient)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Visitor-ID",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: []string{},
		IsDevelopment:  cfg.Logging.Level == "debug",
	}))

	agentHandler := handlers.NewAgentHandler(contentService)
	questionHandler := handlers.NewQuestionHandler(contentService)
	chatHandler := handlers.NewChatHandler(chatEngine)
	wsHandler := handlers.NewWebSocketHandler(chatEngine)
	evaluationHandler := handlers.NewEvaluationHandler(evaluator)

	api := app.Group("/api/v1")

	admin := api.Group("/admin", auth.Middleware(authClient, cfg.Auth.Enabled))
	admin.Use(validation.Middleware(validation.Config{
		Logger: appLogger.Named("validation"),
	}))

	admin.Post("/domains", agentHandler.CreateDomain)
	admin.Get("/domains", agentHandler.ListDomains)

	admin.Post("/agents", agentHandler.CreateAgent)
	admin.Get("/agents", agentHandler.ListAgents)
	admin.Get("/agents/:id", agentHandler.GetAgent)
	admin.Patch("/agents/:id/status", agentHandler.UpdateAgentStatus)

	admin.Post("/agents/:id/questions", questionHandler.CreateQuestion)
	admin.Get("/questions/:id", questionHandler.GetQuestion)
	admin.Put("/questions/:id", questionHandler.UpdateQuestion)
	admin.Patch("/questions/:id/status", questionHandler.UpdateQuestionStatus)
	admin.Patch("/question-variants/:id/approval", questionHandler.UpdateQuestionVariantApproval)
	admin.Patch("/answer-variants/:id/approval", questionHandler.UpdateAnswerVariantApproval)

	admin.Post("/evaluation/run", evaluationHandler.RunEvaluation)

	chatLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.Named("ratelimit"),
	})
	defer chatLimiter.Stop()

	demo := api.Group("/chat", chatLimiter.Middleware())
	demo.Use(validation.Middleware(validation.Config{
		Logger: appLogger.Named("validation"),
	}))

	demo.Post("/sessions", chatHandler.StartSession)
	demo.Post("/sessions/:sessionId/messages", chatHandler.PostMessage)
	demo.Get("/sessions/:sessionId/messages", chatHandler.GetHistory)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat/:sessionId", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if err := sqliteClient.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
