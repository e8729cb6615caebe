package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/call-copilot/pkg/validator"

	"github.com/johnquangdev/call-copilot/internal/adapter/handler"
	"github.com/johnquangdev/call-copilot/internal/adapter/repository"
	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/infrastructure/cache"
	"github.com/johnquangdev/call-copilot/internal/infrastructure/database"
	"github.com/johnquangdev/call-copilot/internal/infrastructure/events"
	"github.com/johnquangdev/call-copilot/internal/infrastructure/external/capture"
	"github.com/johnquangdev/call-copilot/internal/infrastructure/storage"
	"github.com/johnquangdev/call-copilot/internal/usecase/buffer"
	"github.com/johnquangdev/call-copilot/internal/usecase/compress"
	"github.com/johnquangdev/call-copilot/internal/usecase/cuecard"
	"github.com/johnquangdev/call-copilot/internal/usecase/nudge"
	"github.com/johnquangdev/call-copilot/internal/usecase/pipeline"
	"github.com/johnquangdev/call-copilot/internal/usecase/playbook"
	"github.com/johnquangdev/call-copilot/internal/usecase/sentiment"
	"github.com/johnquangdev/call-copilot/internal/usecase/summary"
	pkgai "github.com/johnquangdev/call-copilot/pkg/ai"
	"github.com/johnquangdev/call-copilot/pkg/config"
	"github.com/johnquangdev/call-copilot/pkg/jobcontext"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Server.Environment != "production" {
		log.Println("🔄 Applying schema migrations (development only)...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; manage schema with scripts/migrate.go in production")
	}

	// Initialize Redis and the event bus
	log.Println("📦 Connecting to Redis...")
	redisClient, err := events.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	bus := events.NewBus(redisClient, logger)
	defer bus.Close()

	// Initialize object storage for report archival
	log.Println("📦 Connecting to object storage...")
	archive, err := storage.NewReportArchive(&cfg.Storage)
	if err != nil {
		log.Printf("⚠️  Report archival disabled: %v", err)
		archive = nil
	}
	if archive != nil {
		go archiveReports(bus.Subscribe(16), archive, logger)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	callRepo := repository.NewCallRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	insightRepo := repository.NewInsightRepository(db)
	playbookRepo := repository.NewPlaybookRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize text generation
	log.Println("🤖 Initializing text generation...")
	groqClient := pkgai.NewGroqClient(&cfg.Groq)

	// Initialize pipeline components
	log.Println("⚙️  Initializing pipeline components...")
	segmentBuffer := buffer.New(&cfg.Pipeline, callRepo, logger)
	compressor := compress.New(&cfg.Pipeline, groqClient, chunkRepo, logger)
	sentiments := sentiment.New(&cfg.Pipeline, groqClient, cache.NewMemoryStore(), logger)
	cueCards := cuecard.New(&cfg.Pipeline, groqClient, insightRepo, logger)
	playbooks := playbook.New(&cfg.Pipeline, groqClient, playbookRepo, logger)
	nudges := nudge.New(&cfg.Pipeline, insightRepo, logger)
	summarizer := summary.New(groqClient, reportRepo, logger)

	orch := pipeline.New(
		&cfg.Pipeline,
		segmentBuffer,
		compressor,
		sentiments,
		cueCards,
		playbooks,
		nudges,
		summarizer,
		callRepo,
		insightRepo,
		bus,
		logger,
	)

	// Initialize real-time capture streams when enabled
	var captureStreams []*capture.AssemblyAIStream
	if cfg.Assembly.Enabled {
		log.Println("🎧 Initializing capture streams...")
		sink := func(ctx context.Context, side entities.Side, text string, isFinal bool, startAbs, endAbs time.Time) {
			orch.Ingest(ctx, side, text, isFinal, startAbs, endAbs)
		}
		for _, side := range []entities.Side{entities.SideCaller, entities.SideCounterparty} {
			stream := capture.NewAssemblyAIStream(&cfg.Assembly, side, sink, logger)
			if err := stream.Connect(context.Background()); err != nil {
				log.Fatalf("Failed to connect %s capture stream: %v", side, err)
			}
			captureStreams = append(captureStreams, stream)
		}
	}

	// Initialize handlers and routes
	log.Println("🛣️  Setting up routes...")
	callHandler := handler.NewCallHandler(orch, reportRepo, insightRepo, logger)
	cueCardHandler := handler.NewCueCardHandler(insightRepo, logger)

	router := handler.NewRouter(cfg, callHandler, cueCardHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	for _, stream := range captureStreams {
		if err := stream.Close(ctx); err != nil {
			log.Printf("⚠️  Failed to close capture stream: %v", err)
		}
	}

	if orch.State() == pipeline.StateActive {
		if err := orch.EndCall(ctx); err != nil {
			log.Printf("⚠️  Failed to end active call: %v", err)
		}
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// archiveReports copies end-of-call reports to object storage as they
// are published. Archival runs as a retried background job so transient
// storage failures do not lose reports.
func archiveReports(ch <-chan pipeline.Event, archive *storage.ReportArchive, logger *zap.Logger) {
	for event := range ch {
		if event.Type != pipeline.EventCallEnded {
			continue
		}
		payload, ok := event.Payload.(pipeline.CallEndedPayload)
		if !ok || payload.Report == nil {
			continue
		}

		ctx, cancel := jobcontext.JobBegin(context.Background(), event.CallID, "report_archive")
		var object string
		err := jobcontext.JobEnd(ctx, func(c context.Context) error {
			var archiveErr error
			object, archiveErr = archive.ArchiveReport(c, payload.Report)
			return archiveErr
		})
		cancel()

		if err != nil {
			logger.Warn("failed to archive call report",
				zap.String("call_id", event.CallID.String()),
				zap.Error(err),
			)
			continue
		}
		logger.Info("call report archived",
			zap.String("call_id", event.CallID.String()),
			zap.String("object", object),
		)
	}
}
