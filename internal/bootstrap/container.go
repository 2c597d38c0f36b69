package bootstrap

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"doc-agent-be/internal/config"
	"doc-agent-be/internal/controller"
	"doc-agent-be/internal/pkg/logger"
	"doc-agent-be/internal/repository/memory"
	"doc-agent-be/internal/repository/unitofwork"
	"doc-agent-be/internal/service"
	"doc-agent-be/pkg/docs/chunker"
	"doc-agent-be/pkg/embedding"
	"doc-agent-be/pkg/llm/factory"
	"doc-agent-be/pkg/scraper"
	"doc-agent-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// IngestTopic is the in-process queue topic for documentation jobs.
const IngestTopic = "documentation.ingest"

// newTraceLogger writes a component's verbose trace to its own file,
// falling back to stdout when the file cannot be opened.
func newTraceLogger(logPath string) *log.Logger {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[TRACE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

type Container struct {
	// Controllers
	DocumentationController controller.IDocumentationController
	ChatController          controller.IChatController

	// Background Services (Exposed for main.go to run)
	IngestWorkerService service.IIngestWorkerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Ingestion Components
	statusRepo := memory.NewStatusRepository()
	ingestLogger := logger.NewIsolatedLogger("logs/ingestion.log")
	chunkStore := store.New(uowFactory, embeddingProvider, newTraceLogger("logs/index_trace.log"))
	pageScraper := scraper.New(time.Duration(cfg.Processing.FetchTimeout) * time.Second)
	docChunker := chunker.New(cfg.Processing.MaxChunkSize)

	// 5. Services
	documentService := service.NewDocumentService(
		uowFactory,
		pageScraper,
		docChunker,
		chunkStore,
		statusRepo,
		pubSub,
		IngestTopic,
		sysLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		chunkStore,
		statusRepo,
	)
	ingestWorker := service.NewIngestWorkerService(
		pubSub,
		IngestTopic,
		documentService,
		ingestLogger,
	)

	// 6. Controllers
	return &Container{
		DocumentationController: controller.NewDocumentationController(documentService),
		ChatController:          controller.NewChatController(chatService),
		IngestWorkerService:     ingestWorker,
		Logger:                  sysLogger,
	}
}
