package bootstrap

import (
	"context"
	"log"

	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/controller"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/internal/service"
	"rag-knowledge-be/pkg/graph"
	"rag-knowledge-be/pkg/progress"
	"rag-knowledge-be/pkg/rag"

	pktNats "rag-knowledge-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController          controller.IAuthController
	DocumentController      controller.IDocumentController
	KnowledgeBaseController controller.IKnowledgeBaseController
	ModelConfigController   controller.IModelConfigController
	GraphController         controller.IGraphController
	AdminController         controller.IAdminController

	// Background services (exposed for main.go to run)
	WorkerService      service.IWorkerService
	ConsistencyService service.IConsistencyService

	// Infrastructure handles for shutdown
	GraphStore *graph.Store
}

// documentIndex adapts the repository layer to the narrow view the
// consistency monitor reads.
type documentIndex struct {
	uowFactory unitofwork.RepositoryFactory
}

func (d *documentIndex) DistinctKnowledgeBaseIDs(ctx context.Context) ([]int64, error) {
	return d.uowFactory.NewUnitOfWork(ctx).DocumentRepository().DistinctKnowledgeBaseIDs(ctx)
}

func (d *documentIndex) StatusDistribution(ctx context.Context, kbID int64) (map[constant.DocumentStatus]int64, error) {
	return d.uowFactory.NewUnitOfWork(ctx).DocumentRepository().StatusDistribution(ctx, kbID)
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	ctx := context.Background()

	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// NATS is optional; lifecycle events are dropped when it is down.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis is optional too; the broadcaster no-ops without a client.
	var redisClient *redis.Client
	if opts, err := redis.ParseURL(cfg.App.RedisURL); err == nil {
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Redis unreachable, progress broadcasting disabled: %v", err)
			redisClient = nil
		}
	} else {
		log.Printf("[WARN] Invalid REDIS_URL, progress broadcasting disabled: %v", err)
	}
	broadcaster := progress.NewBroadcaster(redisClient, sysLogger)

	// 3. Storage and graph
	cleanupService := rag.NewCleanupService(cfg.Storage.VectorDir, sysLogger)
	graphStore := graph.NewStore(ctx, cfg.Graph.Neo4jURL, cfg.Graph.Neo4jUser, cfg.Graph.Neo4jPassword, cleanupService, sysLogger)

	// 4. Processing engine
	var engineFactory rag.Factory
	if cfg.Engine.RemoteURL != "" {
		remoteURL := cfg.Engine.RemoteURL
		engineFactory = func(engineCfg rag.Config, models rag.ModelFuncs) (rag.Engine, error) {
			return rag.NewRemoteEngine(remoteURL, engineCfg, models)
		}
		log.Printf("[INFO] Using remote processing engine at %s", remoteURL)
	} else {
		engineFactory = func(engineCfg rag.Config, models rag.ModelFuncs) (rag.Engine, error) {
			return rag.NewStubEngine(engineCfg, models)
		}
		log.Printf("[INFO] Using built-in stub processing engine")
	}

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Worker.ProcessTopic, pubSub)
	processorService := service.NewProcessorService(uowFactory, engineFactory, graphStore, cfg, sysLogger)
	workerService, err := service.NewWorkerService(
		pubSub,
		cfg.Worker.ProcessTopic,
		uowFactory,
		processorService,
		publisherService,
		broadcaster,
		natsPub,
		cfg.Worker.PoolSize,
		sysLogger,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize worker service: %v", err)
	}

	authService := service.NewAuthService(uowFactory)
	documentService := service.NewDocumentService(uowFactory, publisherService, graphStore, cleanupService, cfg.Storage.UploadDir, sysLogger)
	knowledgeBaseService := service.NewKnowledgeBaseService(uowFactory, graphStore, cfg.Storage.VectorDir, cfg.Storage.UploadDir, sysLogger)
	modelConfigService := service.NewModelConfigService(uowFactory)
	graphService := service.NewGraphService(uowFactory, graphStore, sysLogger)
	adminService := service.NewAdminService(uowFactory, cleanupService, sysLogger)
	consistencyService := service.NewConsistencyService(&documentIndex{uowFactory: uowFactory}, cleanupService, sysLogger)

	return &Container{
		AuthController:          controller.NewAuthController(authService),
		DocumentController:      controller.NewDocumentController(documentService, workerService),
		KnowledgeBaseController: controller.NewKnowledgeBaseController(knowledgeBaseService),
		ModelConfigController:   controller.NewModelConfigController(modelConfigService),
		GraphController:         controller.NewGraphController(graphService),
		AdminController:         controller.NewAdminController(adminService, consistencyService),

		WorkerService:      workerService,
		ConsistencyService: consistencyService,
		GraphStore:         graphStore,
	}
}
