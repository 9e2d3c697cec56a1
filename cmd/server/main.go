package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/audit"
	"github.com/PayAidPayments/payaid-whatsapp/internal/config"
	"github.com/PayAidPayments/payaid-whatsapp/internal/database"
	"github.com/PayAidPayments/payaid-whatsapp/internal/events"
	"github.com/PayAidPayments/payaid-whatsapp/internal/handler"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/jobs"
	"github.com/PayAidPayments/payaid-whatsapp/internal/middleware"
	"github.com/PayAidPayments/payaid-whatsapp/internal/provider"
	"github.com/PayAidPayments/payaid-whatsapp/internal/redis"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
	"github.com/PayAidPayments/payaid-whatsapp/internal/service"
)

const webhookIPRateLimit = 600

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	accountRepo := repository.NewAccountRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	contactRepo := repository.NewContactRepository(db.DB)
	convRepo := repository.NewConversationRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	templateRepo := repository.NewTemplateRepository(db.DB)
	auditRepo := repository.NewAuditLogRepository(db.DB)

	broker := events.NewBroker(redisClient)
	defer broker.Close()

	recorder := audit.NewRecorder(auditRepo)
	guard := service.NewGuard(accountRepo, sessionRepo, convRepo, templateRepo)
	clients := service.NewProviderClients(
		provider.NewHTTPClientFactory(cfg.ProviderTimeout()),
		cfg.ProviderBaseURL,
		cfg.ProviderAPIKey,
	)

	sessionManager := service.NewSessionManager(guard, sessionRepo, accountRepo, clients, recorder, broker)
	router := service.NewConversationRouter(db, contactRepo, convRepo, messageRepo, sessionRepo)
	dispatcher := service.NewMessageDispatcher(
		db, guard, convRepo, messageRepo, sessionRepo, contactRepo, templateRepo,
		clients, recorder, broker,
	)
	ingestor := service.NewWebhookIngestor(sessionRepo, accountRepo, messageRepo, router, recorder, broker)
	accountService := service.NewAccountService(guard, accountRepo, auditRepo, recorder)
	convService := service.NewConversationService(guard, convRepo, messageRepo, recorder)
	templateService := service.NewTemplateService(guard, templateRepo)
	statsService := service.NewStatsService(guard, sessionRepo, convRepo, messageRepo)

	resolver := identity.NewJWTResolver(cfg.JWTSecret)
	authMiddleware := middleware.NewAuthMiddleware(resolver)
	rateLimitMiddleware := middleware.NewTenantRateLimitMiddleware(redisClient.Client, cfg.SendRatePerMin)
	signatureMiddleware := middleware.NewWebhookSignatureMiddleware(cfg.WebhookSharedSecret)
	webhookIPLimit := middleware.NewIPRateLimitMiddleware(redisClient.Client, webhookIPRateLimit, "webhook")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	accountHandler := handler.NewAccountHandler(accountService, sessionManager, convService, statsService)
	sessionHandler := handler.NewSessionHandler(sessionManager)
	conversationHandler := handler.NewConversationHandler(convService, dispatcher)
	templateHandler := handler.NewTemplateHandler(templateService)
	webhookHandler := handler.NewWebhookHandler(ingestor)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/webhooks/whatsapp", func(r chi.Router) {
		r.Use(webhookIPLimit.Handler)
		r.Use(signatureMiddleware.Handler)
		r.Post("/message", webhookHandler.Message)
		r.Post("/status", webhookHandler.Status)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(middleware.RequireModule(middleware.WhatsAppModule))
		r.Use(rateLimitMiddleware.Handler)

		r.Mount("/accounts", accountHandler.Routes())
		r.Mount("/sessions", sessionHandler.Routes())
		r.Mount("/conversations", conversationHandler.Routes())
		r.Mount("/templates", templateHandler.Routes())
		r.Get("/events", eventsHandler.ServeHTTP)
	})

	maintenanceJob := jobs.NewMaintenanceJob(sessionRepo, config.MaintenanceJobInterval)
	maintenanceJob.Start()
	defer maintenanceJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
