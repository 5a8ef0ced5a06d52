package bootstrap

import (
	"log"
	"time"

	"ai-specforge-be/internal/config"
	"ai-specforge-be/internal/controller"
	"ai-specforge-be/internal/handler"
	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/pkg/mailer"
	"ai-specforge-be/internal/repository/memory"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/internal/service"
	"ai-specforge-be/pkg/draft"
	"ai-specforge-be/pkg/embedding"
	"ai-specforge-be/pkg/inference"
	"ai-specforge-be/pkg/lineage"
	"ai-specforge-be/pkg/llm/factory"
	"ai-specforge-be/pkg/reuse"

	pktNats "ai-specforge-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AnalysisController controller.IAnalysisController
	RevisionController controller.IRevisionController

	// Machine-to-machine surface
	JobCallbackHandler *handler.JobCallbackHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	NotifierService service.INotifierService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Delivery Queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	gateway := inference.NewGateway(llmProvider, time.Duration(cfg.Ai.InferenceTimeout)*time.Second)

	// 4. Domain Components
	lineageManager := lineage.NewManager(sysLogger)
	reuseEngine := reuse.NewEngine(uowFactory, embeddingProvider, sysLogger)
	draftGate := draft.NewGate(gateway)
	sessionRepo := memory.NewRevisionSessionRepository()

	// 5. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.JobTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.JobTopic,
		uowFactory,
		gateway,
		natsPub,
	)

	analysisService := service.NewAnalysisService(
		uowFactory,
		publisherService,
		reuseEngine,
		lineageManager,
		draftGate,
		embeddingProvider,
		natsPub,
		sysLogger,
	)

	revisionService := service.NewRevisionService(
		uowFactory,
		publisherService,
		lineageManager,
		gateway,
		sessionRepo,
		sysLogger,
	)

	notifierService := service.NewNotifierService(
		natsSub,
		emailService,
		cfg.Keys.NotifyEmail,
		cfg.Keys.NotifyOnFailure,
		sysLogger,
	)

	callbackHandler := handler.NewJobCallbackHandler(uowFactory, publisherService, cfg.Keys.CallbackSecret, sysLogger)

	return &Container{
		AnalysisController: controller.NewAnalysisController(analysisService),
		RevisionController: controller.NewRevisionController(revisionService),
		JobCallbackHandler: callbackHandler,

		ConsumerService: consumerService,
		NotifierService: notifierService,

		Logger: sysLogger,
	}
}
