package bootstrap

import (
	"context"
	"log"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/controller"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/mailer"
	"ai-companion-be/internal/repository/implementation"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/service"
	"ai-companion-be/internal/websocket"

	"ai-companion-be/pkg/events"
	imagegenHF "ai-companion-be/pkg/imagegen/huggingface"
	"ai-companion-be/pkg/llm/factory"
	"ai-companion-be/pkg/media/cloudinary"
	pktNats "ai-companion-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	ChatController  controller.IChatController
	AdminController controller.IAdminController

	// Background Services (Exposed for main.go to run)
	AuditService service.IAuditService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(gormDB *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.OperatorEmail,
	)

	// 2. Gateways
	llmBaseURL := cfg.Ai.HFBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Keys.HuggingFace,
		llmBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	imageProvider := imagegenHF.NewHuggingFaceProvider(cfg.Keys.HuggingFace, "", cfg.Ai.ImageModel)
	uploader := cloudinary.NewUploader(
		cfg.Keys.CloudinaryCloudName,
		cfg.Keys.CloudinaryAPIKey,
		cfg.Keys.CloudinaryAPISecret,
	)

	// 3. Repositories
	userRepo := implementation.NewUserRepository(mongoDB, cfg.Mongo.Collection)
	adminRepo := implementation.NewAdminRepository(gormDB)
	logRepo := implementation.NewSystemLogRepository(gormDB)
	contextRepo := memory.NewContextRepository()

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	auditService := service.NewAuditService(logRepo, sysLogger)
	authService := service.NewAuthService(userRepo, adminRepo, emailService, natsPub, sysLogger)
	chatService := service.NewChatService(userRepo, contextRepo, llmProvider, imageProvider, uploader, sysLogger)
	adminService := service.NewAdminService(userRepo, logRepo, emailService, natsPub, wsHub, sysLogger)

	// Lifecycle events coming over the bus land in the audit trail
	if natsSub != nil {
		err := natsSub.Subscribe("events.>", "audit-writer", func(ctx context.Context, event events.Event) error {
			auditService.Record("info", "lifecycle", event.EventType(), event.Payload())
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe audit writer: %v", err)
		}
	}

	// 6. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService),
		ChatController:  controller.NewChatController(chatService, sysLogger),
		AdminController: controller.NewAdminController(adminService, wsHub, sysLogger),

		AuditService: auditService,

		WebSocketHub: wsHub,
	}
}
