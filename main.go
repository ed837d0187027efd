package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"voicechat-service/internal/auth"
	"voicechat-service/internal/cache"
	"voicechat-service/internal/config"
	"voicechat-service/internal/db"
	"voicechat-service/internal/handlers"
	"voicechat-service/internal/health"
	"voicechat-service/internal/middleware"
	"voicechat-service/internal/observability"
	"voicechat-service/internal/queue"
	"voicechat-service/internal/rabbitmq"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/services"
	"voicechat-service/internal/storage"
	"voicechat-service/internal/telemetry"
	"voicechat-service/internal/tracing"
	"voicechat-service/internal/translation"
	"voicechat-service/internal/ws"
)

const (
	auditRoutingKey  = "audit_events.voicechat"
	taskUniqueTTL    = 10 * time.Minute
	shutdownDeadline = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	auditEmitter := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Environment)
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("user cache disabled: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	conversationRepo := repositories.NewConversationRepo(database)
	participantRepo := repositories.NewParticipantRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	translatedRepo := repositories.NewTranslatedMessageRepo(database)
	userRepo := cache.NewUserCache(repositories.NewUserRepo(database), redisClient, cfg.UserCacheTTL)

	blobs, err := storage.NewLocalStore(cfg.StorageRoot)
	if err != nil {
		log.Fatalf("failed to prepare storage: %v", err)
	}

	validator := auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTAlgorithm, userRepo)
	hub := ws.NewHub()

	var textTranslator translation.TextTranslator
	switch cfg.TranslationBackend {
	case "openai":
		textTranslator = translation.NewOpenAITextClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.TranslationTimeout)
	default:
		textTranslator = translation.NewHTTPTextClient(cfg.TranslationAPIURL, cfg.TranslationTimeout)
	}
	audioTranslator := translation.NewHTTPAudioClient(cfg.AudioTranslationAPIURL, cfg.AudioTranslationModel, cfg.MaxAudioBytes, cfg.TranslationTimeout)

	pipeline := translation.NewPipeline(translation.Deps{
		Users:        userRepo,
		Languages:    participantRepo,
		Translations: translatedRepo,
		Blobs:        blobs,
		Text:         textTranslator,
		Audio:        audioTranslator,
		Notifier:     hub,
	})
	translationHandler := translation.NewHandler(messageRepo, pipeline)

	var (
		queueClient queue.Client
		queueServer queue.Server
	)
	switch cfg.QueueBackend {
	case "asynq":
		client, err := queue.NewAsynqClient(cfg.RedisURL, taskUniqueTTL)
		if err != nil {
			log.Fatalf("failed to build asynq client: %v", err)
		}
		defer client.Close()
		server, err := queue.NewAsynqServer(cfg.RedisURL, cfg.QueueWorkers)
		if err != nil {
			log.Fatalf("failed to build asynq server: %v", err)
		}
		queueClient, queueServer = client, server
	default:
		pool := queue.NewPool(cfg.QueueWorkers, cfg.QueueBuffer)
		queueClient, queueServer = pool, pool
	}
	queueServer.Register(translation.TaskTypeMessage, translationHandler)
	if err := queueServer.Start(); err != nil {
		log.Fatalf("failed to start workers: %v", err)
	}
	scheduler := translation.NewScheduler(queueClient)

	conversationSvc := services.NewConversationService(conversationRepo, participantRepo, messageRepo, blobs, hub, auditEmitter)
	participantSvc := services.NewParticipantService(conversationRepo, participantRepo, userRepo, hub, auditEmitter)
	messageSvc := services.NewMessageService(services.MessageDeps{
		Conversations: conversationRepo,
		Participants:  participantRepo,
		Messages:      messageRepo,
		Translations:  translatedRepo,
		Users:         userRepo,
		Blobs:         blobs,
		Notifier:      hub,
		Scheduler:     scheduler,
		Audit:         auditEmitter,
		MaxAudioBytes: cfg.MaxAudioBytes,
	})
	referenceSvc := services.NewReferenceAudioService(userRepo, blobs, auditEmitter, cfg.MaxAudioBytes)
	userSvc := services.NewUserService(userRepo, auditEmitter)

	conversationHandler := handlers.NewConversationHandler(conversationSvc)
	participantHandler := handlers.NewParticipantHandler(participantSvc)
	messageHandler := handlers.NewMessageHandler(messageSvc)
	audioHandler := handlers.NewAudioHandler(referenceSvc, blobs)
	userHandler := handlers.NewUserHandler(userSvc)
	wsHandler := ws.NewHandler(hub, validator, participantRepo, cfg.WSIdleTimeout)

	router := gin.New()

	// middlewares
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(handlers.RequestID())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/audio/*path", audioHandler.Serve)
	router.GET("/ws/:conversation_id", wsHandler.Handle)

	api := router.Group("/api/v1", middleware.AuthMiddleware(validator))

	api.POST("/conversations", conversationHandler.Create)
	api.GET("/conversations", conversationHandler.List)
	api.GET("/conversations/:conversation_id", conversationHandler.Get)
	api.DELETE("/conversations/:conversation_id", conversationHandler.Delete)

	api.POST("/participants", participantHandler.Add)
	api.GET("/participants/conversation/:conversation_id", participantHandler.ListByConversation)
	api.DELETE("/participants/:participant_id", participantHandler.Remove)

	api.POST("/messages", messageHandler.Create)
	api.GET("/messages/conversation/:conversation_id", messageHandler.ListByConversation)
	api.DELETE("/messages/:message_id", messageHandler.Delete)
	api.GET("/translations/message/:message_id", messageHandler.Translation)

	api.GET("/users", userHandler.List)
	api.GET("/users/me", userHandler.Me)
	api.GET("/users/:user_id", userHandler.Get)
	api.PUT("/users/:user_id", userHandler.Update)
	api.POST("/users/upload-reference-audio", audioHandler.UploadReference)
	api.DELETE("/users/delete-reference-audio", audioHandler.DeleteReference)

	handlers.RegisterDebugRoutes(api, auditEmitter, cfg.DebugRoutes)

	healthServer, err := health.NewServer(":" + cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to start grpc health: %v", err)
	}
	go func() {
		if err := healthServer.Serve(); err != nil {
			log.Printf("grpc health stopped: %v", err)
		}
	}()
	go healthServer.Watch(ctx, 10*time.Second, database.PingContext)

	go sweepLoop(ctx, hub, cfg.WSSweepInterval)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("http listening port=%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	healthServer.SetServing(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	queueServer.Stop()
	healthServer.Stop()
}

// sweepLoop periodically evicts connections whose peer went away without a close frame.
func sweepLoop(ctx context.Context, hub *ws.Hub, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hub.Sweep(ctx)
		}
	}
}
