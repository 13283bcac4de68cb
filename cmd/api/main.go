package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/decoynet/honeypot-platform/cmd/mainconfig"
	"github.com/decoynet/honeypot-platform/internal/api/router"
	appconfig "github.com/decoynet/honeypot-platform/internal/config"
	"github.com/decoynet/honeypot-platform/internal/delivery"
	"github.com/decoynet/honeypot-platform/internal/detect"
	"github.com/decoynet/honeypot-platform/internal/honeypot"
	"github.com/decoynet/honeypot-platform/internal/intel"
	"github.com/decoynet/honeypot-platform/internal/llm"
	"github.com/decoynet/honeypot-platform/internal/monitor"
	"github.com/decoynet/honeypot-platform/internal/notify"
	"github.com/decoynet/honeypot-platform/internal/observability/metrics"
	"github.com/decoynet/honeypot-platform/internal/report"
	"github.com/decoynet/honeypot-platform/internal/session"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting honeypot-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session store with background expiry
	store := session.NewStore(logger,
		session.WithMaxAge(cfg.SessionMaxAge),
		session.WithSweepInterval(cfg.SessionSweepInterval),
	)
	go store.RunSweeper(ctx)

	detector := detect.New(logger,
		detect.WithThresholds(cfg.KeywordCategoryThreshold, cfg.UrgencyScoreThreshold),
	)
	extractor := intel.NewExtractor()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	llmClient := buildLLMClient(ctx, cfg, awsCfg, logger)

	// Result delivery pipeline
	sender := delivery.NewSender(cfg.CallbackURL, logger,
		delivery.WithRetryPolicy(cfg.CallbackMaxRetries, cfg.CallbackBaseDelay),
		delivery.WithAttemptTimeout(cfg.CallbackTimeout),
		delivery.WithFallbackLog(delivery.NewFallbackLog(cfg.FallbackLogPath)),
	)

	// The delivery outcome feeds back into the service, which is built after
	// the dispatcher; bind it through a closure.
	var svc *honeypot.Service
	outcome := delivery.WithOutcomeFunc(func(ctx context.Context, sessionID string, out delivery.Outcome) {
		svc.HandleDeliveryOutcome(ctx, sessionID, out)
	})

	var dispatcher *delivery.Dispatcher
	if cfg.UseMemoryQueue || cfg.DeliveryQueueURL == "" {
		dispatcher = delivery.NewDispatcher(delivery.NewMemoryQueue(0), sender, logger,
			delivery.WithWorkers(cfg.DeliveryWorkers), outcome,
		)
	} else {
		sqsClient := sqs.NewFromConfig(awsCfg)
		dispatcher = delivery.NewDispatcher(delivery.NewSQSQueue(sqsClient, cfg.DeliveryQueueURL), sender, logger,
			delivery.WithWorkers(cfg.DeliveryWorkers), outcome,
		)
	}

	// Optional Redis snapshot mirror
	var mirror *session.Mirror
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		mirror = session.NewMirror(redis.NewClient(opts), nil)
		logger.Info("redis session mirror enabled", "addr", cfg.RedisAddr)
	}

	// Optional Postgres report archive
	var archive *report.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		archive = report.NewStore(db)
		logger.Info("report archive enabled")
	}

	// Optional operator alerting over SES
	var alerter *notify.Alerter
	if cfg.AlertEmail != "" && cfg.SESFromEmail != "" {
		sesSender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		alerter = notify.NewAlerter(sesSender, cfg.AlertEmail, logger)
		logger.Info("high-risk alerting enabled", "recipient", cfg.AlertEmail)
	}

	honeypotMetrics := metrics.NewHoneypotMetrics(nil)
	hub := monitor.NewHub(logger)

	svc, err = honeypot.NewService(honeypot.ServiceDeps{
		Store:     store,
		Detector:  detector,
		Extractor: extractor,
		LLM:       llmClient,
		Reports:   dispatcher,
		Archive:   archive,
		Alerts:    alerter,
		Mirror:    mirror,
		Metrics:   honeypotMetrics,
		Events:    honeypot.NewEventLogger(logger),
		Monitor:   hub,
		Logger:    logger,
		Persona: llm.Persona{
			Name: cfg.PersonaName,
			Age:  cfg.PersonaAge,
		},
		Limits: honeypot.Limits{
			MaxTurns:      cfg.MaxConversationTurns,
			MinTurns:      cfg.MinConversationTurns,
			MinIntelItems: cfg.MinIntelligenceItems,
		},
		LLMTimeout:  cfg.LLMTimeout,
		MaxTokens:   int32(cfg.GeminiMaxTokens),
		Temperature: float32(cfg.GeminiTemperature),
	})
	if err != nil {
		logger.Error("failed to build honeypot service", "error", err)
		os.Exit(1)
	}

	go dispatcher.Run(ctx)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		HoneypotHandler:    honeypot.NewHandler(svc, store, logger),
		MonitorHub:         hub,
		MetricsHandler:     promhttp.Handler(),
		APIKey:             cfg.APIKey,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSOrigins,
		WebhookRateLimit:   cfg.WebhookRateLimit,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLLMClient assembles the reply generator: Gemini primary, Bedrock
// fallback, whichever subset is configured.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) llm.Client {
	var primary, fallback llm.Client

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
		primary = gemini
		logger.Info("gemini reply generation enabled", "model", cfg.GeminiModelID)
	}

	if cfg.BedrockModelID != "" {
		bedrock := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if primary == nil {
			primary = bedrock
		} else {
			fallback = bedrock
		}
		logger.Info("bedrock reply generation enabled", "model", cfg.BedrockModelID)
	}

	if primary == nil {
		logger.Error("no LLM provider configured, set GEMINI_API_KEY or BEDROCK_MODEL_ID")
		os.Exit(1)
	}
	return llm.NewFallbackClient(primary, fallback, logger)
}
