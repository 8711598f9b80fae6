package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/config"
	"github.com/resonant-ai/resonant-engine/pkg/database"
	"github.com/resonant-ai/resonant-engine/pkg/embeddings"
	"github.com/resonant-ai/resonant-engine/pkg/handlers"
	"github.com/resonant-ai/resonant-engine/pkg/llm"
	"github.com/resonant-ai/resonant-engine/pkg/middleware"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
	"github.com/resonant-ai/resonant-engine/pkg/services"
	"github.com/resonant-ai/resonant-engine/pkg/social"
	"github.com/resonant-ai/resonant-engine/pkg/tasks"
	"github.com/resonant-ai/resonant-engine/pkg/voice"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run over database/sql; the pgx pool is for serving traffic.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	// Auth.
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSURL:            cfg.Auth.JWKSURL,
		Issuer:             cfg.Auth.Issuer,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(jwksClient, logger.Named("auth"))
	auth.InitSessionStore(cfg.SessionSecret)

	// External clients.
	messager, err := llm.NewClient(&llm.Config{
		APIKey:  cfg.Anthropic.APIKey,
		Model:   cfg.Anthropic.Model,
		Timeout: time.Duration(cfg.Anthropic.TimeoutSeconds) * time.Second,
	}, logger.Named("llm"))
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	embedder, err := embeddings.NewClient(&embeddings.Config{
		APIKey:     cfg.Embeddings.APIKey,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
	}, logger.Named("embeddings"))
	if err != nil {
		logger.Fatal("Failed to create embeddings client", zap.Error(err))
	}
	platform, err := voice.NewClient(&voice.Config{
		APIKey:  cfg.Voice.APIKey,
		BaseURL: cfg.Voice.BaseURL,
		VoiceID: cfg.Voice.VoiceID,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create voice client", zap.Error(err))
	}

	// Repositories.
	userRepo := repositories.NewUserRepository(db)
	entryRepo := repositories.NewEntryRepository(db)
	personaRepo := repositories.NewPersonaRepository(db)
	contentRepo := repositories.NewContentRepository(db)
	agentRepo := repositories.NewAgentRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	socialRepo := repositories.NewSocialRepository(db)

	// Background task runner.
	runner := tasks.NewRunner(tasks.Config{}, logger)

	// Services.
	knowledgeService := services.NewKnowledgeService(entryRepo, messager, embedder, logger.Named("knowledge"))
	agentService := services.NewAgentService(agentRepo, personaRepo, userRepo, knowledgeService, platform, logger.Named("agents"))
	personaService := services.NewPersonaService(personaRepo, messager, logger.Named("persona"))
	contentService := services.NewContentService(contentRepo, messager, logger.Named("content"))
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, cfg.Stripe, cfg.BaseURL, cfg.FreeTierPostLimit, logger.Named("billing"))
	callService := services.NewCallService(platform, agentService, knowledgeService, contentService, personaService, subscriptionService, runner, logger.Named("calls"))
	twitterService := social.NewTwitterService(cfg.Twitter, socialRepo, logger.Named("twitter"))

	// Handlers.
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userRepo, subscriptionService, logger.Named("users")).RegisterRoutes(mux, authMiddleware)
	handlers.NewKnowledgeHandler(knowledgeService, agentService, runner, logger.Named("knowledge")).RegisterRoutes(mux, authMiddleware)
	handlers.NewPersonaHandler(personaService, agentService, runner, logger.Named("persona")).RegisterRoutes(mux, authMiddleware)
	handlers.NewContentHandler(contentService, logger.Named("content")).RegisterRoutes(mux, authMiddleware)
	handlers.NewCallsHandler(callService, logger.Named("calls")).RegisterRoutes(mux, authMiddleware)
	handlers.NewBillingHandler(subscriptionService, cfg.Stripe.WebhookSecret, logger.Named("billing")).RegisterRoutes(mux, authMiddleware)
	handlers.NewSocialHandler(twitterService, contentService, cfg.LinkedIn, logger.Named("social")).RegisterRoutes(mux, authMiddleware)
	handlers.NewInviteHandler(cfg.InviteCode, logger.Named("invite")).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger.Named("http"))(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("Starting resonant-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}

	// Let in-flight background tasks (knowledge extraction, prompt pushes)
	// finish before the process exits.
	runner.Wait()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
