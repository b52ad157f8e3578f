package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spamstopper/internal/audit"
	"spamstopper/internal/billing"
	callhandler "spamstopper/internal/call/handler"
	callservice "spamstopper/internal/call/service"
	callstore "spamstopper/internal/call/store"
	"spamstopper/internal/jwttoken"
	"spamstopper/internal/persona"
	"spamstopper/internal/platform/config"
	"spamstopper/internal/platform/database"
	"spamstopper/internal/platform/health"
	kafkaproducer "spamstopper/internal/platform/kafka/producer"
	"spamstopper/internal/platform/logger"
	"spamstopper/internal/platform/middleware"
	platformredis "spamstopper/internal/platform/redis"
	"spamstopper/internal/routing"
	"spamstopper/internal/routing/adapters"
	routingmetrics "spamstopper/internal/routing/metrics"
	subhandler "spamstopper/internal/subscriber/handler"
	submetrics "spamstopper/internal/subscriber/metrics"
	submodels "spamstopper/internal/subscriber/models"
	subservice "spamstopper/internal/subscriber/service"
	substore "spamstopper/internal/subscriber/store"
	"spamstopper/internal/usage"
	"spamstopper/internal/voiceai"
	"spamstopper/internal/webhook"
)

// main wires storage, services, and the HTTP router. Dependencies without
// configured backends fall back to in-memory implementations so the server
// runs locally with no infrastructure.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("initializing spamstopper",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	healthHandler := health.New(cfg.Environment)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.PostgresDSN
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	var subscriberStore subservice.Store
	var callStore callservice.Store
	if pool != nil {
		defer pool.Close()
		subscriberStore = substore.NewPostgres(pool.DB())
		callStore = callstore.NewPostgres(pool.DB())
		healthHandler.RegisterCheck("postgres", func() error {
			return pool.Ping(context.Background())
		})
		log.Info("using postgres stores")
	} else {
		subscriberStore = substore.New()
		callStore = callstore.New()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(context.Background(), platformredis.Config{Addr: cfg.RedisAddr})
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var usageStore usage.Store
	if redisClient != nil {
		defer redisClient.Close()
		usageStore = usage.NewRedisStore(redisClient)
		healthHandler.RegisterCheck("redis", func() error {
			return redisClient.Ping(context.Background()).Err()
		})
		log.Info("using redis usage ledger")
	} else {
		usageStore = usage.NewInMemoryStore()
		log.Warn("no redis address configured, using in-memory usage ledger")
	}

	var auditStore audit.Store
	if cfg.KafkaBrokers != "" {
		kafkaProd, err := kafkaproducer.New(kafkaproducer.Config{Brokers: cfg.KafkaBrokers}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaProd.Close()
		auditStore = audit.NewKafkaStore(kafkaProd, cfg.AuditTopic)
		log.Info("audit events flow to kafka", "topic", cfg.AuditTopic)
	} else {
		auditStore = audit.NewInMemoryStore()
		log.Warn("no kafka brokers configured, audit events stay in process")
	}
	auditor := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(cfg.AuditBufferSize),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	personaStore := persona.NewInMemoryStore(persona.DefaultCatalog())

	subscriberService := subservice.NewService(subscriberStore, auditor, log,
		subservice.WithMetrics(submetrics.New()),
		subservice.WithDefaultPersona(persona.HerbertID),
	)
	usageService := usage.NewService(usageStore, auditor, log)

	voiceClient := voiceai.NewClient(cfg.VoiceAPIBaseURL, cfg.VoiceAPIKey, nil, log)
	callService := callservice.NewService(callStore, usageService, subscriberService, personaStore, auditor, log,
		callservice.WithDialer(voiceClient, cfg.VoicePhoneID),
	)

	routingService := routing.New(
		adapters.NewDirectoryAdapter(subscriberService),
		adapters.NewUsageAdapter(usageService),
		auditor,
		routing.WithMetrics(routingmetrics.New()),
		routing.WithLogger(log),
		routing.WithEvidenceTimeout(cfg.DirectoryTimeout),
	)

	tokenService := jwttoken.NewJWTService(cfg.JWTSigningKey, "spamstopper", cfg.TokenTTL)

	billingClient := billing.NewClient(cfg.BillingAPIBaseURL, cfg.BillingAPIKey, nil, log)
	prices := map[string]submodels.Tier{}
	for priceID, tier := range map[string]submodels.Tier{
		cfg.PriceBasic:     submodels.TierBasic,
		cfg.PricePro:       submodels.TierPro,
		cfg.PriceUnlimited: submodels.TierUnlimited,
	} {
		if priceID != "" {
			prices[priceID] = tier
		}
	}
	billingService := billing.NewService(billingClient, subscriberService, usageService, prices, log)

	var webhookOpts []webhook.Option
	if cfg.VoiceWebhookSecretHash != "" {
		webhookOpts = append(webhookOpts, webhook.WithSharedSecretHash(cfg.VoiceWebhookSecretHash))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	subhandler.New(subscriberService, tokenService, tokenService, log).Register(r)
	callhandler.New(callService, tokenService, log).Register(r)
	persona.NewHandler(personaStore, log).Register(r)
	webhook.New(routingService, callService, subscriberService, personaStore, log, webhookOpts...).Register(r)
	billing.NewHandler(billingService, tokenService, cfg.BillingWebhookSecret, log).Register(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
