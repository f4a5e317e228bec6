// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/agent"
	"github.com/chatbased/support-platform/internal/config"
	"github.com/chatbased/support-platform/internal/handler"
	"github.com/chatbased/support-platform/internal/llm"
	"github.com/chatbased/support-platform/internal/middleware"
	natsclient "github.com/chatbased/support-platform/internal/nats"
	"github.com/chatbased/support-platform/internal/pocketbase"
	"github.com/chatbased/support-platform/internal/service"
	"github.com/chatbased/support-platform/internal/tool"
	"github.com/chatbased/support-platform/pkg/logger"
	"github.com/chatbased/support-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chatbased-support-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS (session state + conversation history)
	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	sessionStore, err := natsclient.NewSessionStore(ctx, natsClient)
	if err != nil {
		log.Error("failed to create session store", zap.Error(err))
		os.Exit(1)
	}

	history := natsclient.NewHistory(natsClient)
	if err := history.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure history stream", zap.Error(err))
		os.Exit(1)
	}

	// Record store client
	records, err := pocketbase.New(pocketbase.Config{
		BaseURL: cfg.PocketbaseURL,
		Token:   cfg.PocketbaseToken,
	})
	if err != nil {
		log.Error("failed to create record store client", zap.Error(err))
		os.Exit(1)
	}

	// LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), llmAPIKey(cfg))
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	runner := agent.NewRunner(llmClient, history, cfg.AgentMaxTurns, cfg.HistoryLimit, log)
	ticketTool := tool.NewTicketTool(records, log)
	sessionManager := service.NewSessionManager(sessionStore, records, log)
	chatSvc := service.NewChatService(
		sessionManager, records, runner,
		[]agent.Tool{ticketTool}, cfg.Model, log,
	)

	// Initialize handlers
	rootHandler := handler.NewRootHandler()
	healthHandler := handler.NewHealthHandler(natsClient, records)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	sessionHandler := handler.NewSessionHandler(sessionManager, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	// Routes
	r.Get("/", rootHandler.Root)
	r.Post("/chat", chatHandler.Chat)
	r.Get("/session/{organization_id}", sessionHandler.Create)

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// llmAPIKey picks the API key matching the configured provider, falling back
// to whichever key is present.
func llmAPIKey(cfg *config.Config) string {
	switch llm.Provider(cfg.DefaultLLM) {
	case llm.ProviderOpenAI:
		if cfg.OpenAIAPIKey != "" {
			return cfg.OpenAIAPIKey
		}
		return cfg.AnthropicAPIKey
	default:
		if cfg.AnthropicAPIKey != "" {
			return cfg.AnthropicAPIKey
		}
		return cfg.OpenAIAPIKey
	}
}
