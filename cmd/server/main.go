package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ottereview/ottereview-ai/internal/config"
	"github.com/ottereview/ottereview-ai/internal/database"
	"github.com/ottereview/ottereview-ai/internal/handler"
	"github.com/ottereview/ottereview-ai/internal/middleware"
	"github.com/ottereview/ottereview-ai/internal/repository"
	"github.com/ottereview/ottereview-ai/internal/rules"
	"github.com/ottereview/ottereview-ai/internal/service"
)

// main is the single entry-point for the AI service.
func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded:")
	log.Printf("  - Database: %s", cfg.DBName)
	log.Printf("  - Redis: %s", cfg.RedisAddr)
	log.Printf("  - Generative model: %s", cfg.GenerativeModel)
	log.Printf("  - Embedding model: %s", cfg.EmbeddingModel)

	// Connect to MongoDB (pattern store)
	mongoClient, mongoCtx, mongoCancel, err := database.NewMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoCancel()
	defer mongoClient.Disconnect(mongoCtx)
	log.Printf("Connected to MongoDB")

	patternStore := repository.NewPatternStore(mongoClient.Database(cfg.DBName))

	// Connect to Redis (staged PR payloads)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Printf("Connected to Redis")

	prSource := repository.NewPRSource(redisClient)

	// Initialize Vertex AI clients
	ctx := context.Background()
	embedder, err := service.NewVertexEmbedder(ctx, cfg.ProjectID, cfg.Location, cfg.EmbeddingModel, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Vertex AI embedder: %v", err)
	}
	defer embedder.Close()

	llm, err := service.NewVertexLLM(ctx, cfg.ProjectID, cfg.Location, cfg.GenerativeModel, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Vertex AI generative client: %v", err)
	}
	defer llm.Close()

	// Initialize services
	ruleSet := rules.Load(cfg.RulesPath)
	prioritySvc := service.NewPriorityService(embedder, patternStore, llm, ruleSet)
	reviewerSvc := service.NewReviewerService(embedder, patternStore, llm)
	conventionSvc := service.NewConventionService(llm, cfg.LLMTimeout)
	ingestSvc := service.NewIngestService(embedder, patternStore)
	assistSvc := service.NewAssistService(llm)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Add middleware
	app.Use(middleware.Logging())

	// Register routes
	handler.RegisterRoutes(app, prioritySvc, reviewerSvc, conventionSvc, ingestSvc, assistSvc, prSource)

	// Add health check
	healthHandler := handler.NewHealthHandler(mongoClient, redisClient)
	healthHandler.Register(app)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
