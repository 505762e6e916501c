package bootstrap

import (
	"context"
	"log"

	"deep-research-be/internal/config"
	"deep-research-be/internal/controller"
	"deep-research-be/internal/handler"
	"deep-research-be/internal/pkg/logger"
	"deep-research-be/internal/pkg/mailer"
	"deep-research-be/internal/repository/contract"
	"deep-research-be/internal/repository/implementation"
	"deep-research-be/internal/service"
	"deep-research-be/internal/websocket"
	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/chat"
	"deep-research-be/pkg/events"
	"deep-research-be/pkg/llm/factory"
	"deep-research-be/pkg/research/session"

	pktNats "deep-research-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const updatesTopic = "session_updates"

type Container struct {
	// Controllers
	ResearchController     controller.IResearchController
	ConversationController controller.IConversationController
	AdminController        controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	UpdatesHandler *handler.UpdatesHandler
	WebSocketHub   *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider + Agent Runner
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	pipelineLogger := log.Default()
	runner := agents.NewRunner(llmProvider, pipelineLogger)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}
	if natsSub != nil {
		// Durable audit trail of finished runs, shared across instances.
		err := natsSub.Subscribe("events."+events.TypeResearchCompleted, "research-audit",
			func(_ context.Context, event events.Event) error {
				sysLogger.Info("ResearchAudit", "Research run completed", event.Payload())
				return nil
			})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to completion events: %v", err)
		}
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
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/updates.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Report Archive (optional, skipped when no DSN was configured)
	var archiveRepo contract.ReportArchiveRepository
	if db != nil {
		archiveRepo = implementation.NewReportArchiveRepository(db)
	} else {
		log.Printf("[INFO] Report archive disabled (no database connection)")
	}

	var reportMailer mailer.IEmailService
	if cfg.App.ReportEmail != "" {
		reportMailer = emailService
	}

	// 6. Services
	publisherService := service.NewPublisherService(updatesTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, updatesTopic, wsHub)

	researchService := service.NewResearchService(
		session.NewRegistry(),
		runner,
		publisherService,
		natsPub,
		archiveRepo,
		reportMailer,
		cfg.App.ReportEmail,
		sysLogger,
		pipelineLogger,
	)

	conversationService := service.NewConversationService(
		chat.NewRegistry(),
		chat.NewEngine(runner, pipelineLogger),
		publisherService,
		sysLogger,
	)

	// 7. Controllers & Handlers
	researchController := controller.NewResearchController(researchService)
	conversationController := controller.NewConversationController(conversationService)
	adminController := controller.NewAdminController(sysLogger, archiveRepo)
	updatesHandler := handler.NewUpdatesHandler(researchService, conversationService, wsHub, wsLogger)

	return &Container{
		ResearchController:     researchController,
		ConversationController: conversationController,
		AdminController:        adminController,
		ConsumerService:        consumerService,
		UpdatesHandler:         updatesHandler,
		WebSocketHub:           wsHub,
	}
}
