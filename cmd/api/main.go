package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/moodjournal-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/moodjournal-backend/api/controllers/webhooks"
	"github.com/angelmondragon/moodjournal-backend/api/routes"
	"github.com/angelmondragon/moodjournal-backend/internal/analysis"
	"github.com/angelmondragon/moodjournal-backend/internal/billing"
	"github.com/angelmondragon/moodjournal-backend/internal/dashboard"
	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
	"github.com/angelmondragon/moodjournal-backend/internal/journal"
	"github.com/angelmondragon/moodjournal-backend/internal/profiles"
	"github.com/angelmondragon/moodjournal-backend/internal/reflection"
	clerkwebhook "github.com/angelmondragon/moodjournal-backend/internal/webhooks/clerk"
	"github.com/angelmondragon/moodjournal-backend/internal/webhooks/idempotency"
	stripewebhook "github.com/angelmondragon/moodjournal-backend/internal/webhooks/stripe"
	pkgAuth "github.com/angelmondragon/moodjournal-backend/pkg/auth"
	"github.com/angelmondragon/moodjournal-backend/pkg/config"
	"github.com/angelmondragon/moodjournal-backend/pkg/db"
	"github.com/angelmondragon/moodjournal-backend/pkg/llm"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
	"github.com/angelmondragon/moodjournal-backend/pkg/metrics"
	"github.com/angelmondragon/moodjournal-backend/pkg/migrate"
	"github.com/angelmondragon/moodjournal-backend/pkg/redis"
	"github.com/angelmondragon/moodjournal-backend/pkg/stripe"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildDeps(ctx, cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(cfg, logg, deps),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDeps(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (routes.Deps, error) {
	verifier, err := pkgAuth.NewVerifier(cfg.Auth)
	if err != nil {
		return routes.Deps{}, err
	}

	llmClient, err := llm.NewClient(cfg.LLM, metrics.NewLLMMetrics(registry), logg)
	if err != nil {
		return routes.Deps{}, err
	}

	gateway, err := analysis.NewGateway(analysis.GatewayParams{
		LLM:         llmClient,
		MaxChars:    cfg.Analysis.MaxChars,
		Temperature: cfg.LLM.AnalysisTemperature,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	journalRepo := journal.NewRepository(dbClient.DB())
	journalService, err := journal.NewService(journal.ServiceParams{
		Repo:     journalRepo,
		Analyzer: gateway,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	profileRepo := profiles.NewRepository(dbClient.DB())
	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:              profileRepo,
		Entries:           journalRepo,
		TransactionRunner: dbClient,
		TrialPeriod:       cfg.Trial.Period,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	entitlementService, err := entitlements.NewService(entitlements.ServiceParams{
		Subscriptions: billingRepo,
		Profiles:      profileRepo,
		TrialPeriod:   cfg.Trial.Period,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	dashboardService, err := dashboard.NewService(dashboard.ServiceParams{
		Entries: journalService,
		Access:  entitlementService,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	reflectionService, err := reflection.NewService(reflection.ServiceParams{
		LLM:         llmClient,
		Entries:     journalService,
		Temperature: cfg.LLM.ReflectionTemperature,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	// stripeAPI stays a nil interface when billing is not configured.
	var stripeClient *stripe.Client
	var stripeAPI billing.StripeClient
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return routes.Deps{}, err
		}
		stripeAPI = stripeClient
	} else {
		logg.Warn(ctx, "stripe api key not set, billing disabled")
	}

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:             billingRepo,
		Profiles:         profileRepo,
		Stripe:           stripeAPI,
		PriceID:          cfg.Stripe.SubscriptionPriceID,
		PublicURL:        cfg.App.PublicURL,
		SuccessPath:      cfg.Stripe.SuccessPath,
		CancelPath:       cfg.Stripe.CancelPath,
		PortalReturnPath: cfg.Stripe.PortalReturnPath,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	var stripeWebhookService webhookcontrollers.StripeWebhookService
	if stripeAPI != nil {
		svc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			BillingRepo:       billingRepo,
			StripeClient:      stripeAPI,
			TransactionRunner: dbClient,
			Logger:            logg,
		})
		if err != nil {
			return routes.Deps{}, err
		}
		stripeWebhookService = svc
	}

	clerkWebhookService, err := clerkwebhook.NewService(clerkwebhook.ServiceParams{
		Profiles:      profileService,
		SigningSecret: cfg.Clerk.WebhookSecret,
		Logger:        logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	stripeGuard, err := idempotency.NewGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe")
	if err != nil {
		return routes.Deps{}, err
	}
	clerkGuard, err := idempotency.NewGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "clerk")
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Verifier:   verifier,
		RateLimits: redisClient,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),

		Analyzer:     gateway,
		Journal:      journalService,
		Reflection:   reflectionService,
		Dashboard:    dashboardService,
		Entitlements: entitlementService,
		Billing:      billingService,

		StripeClient:         stripeClient,
		StripeWebhookService: stripeWebhookService,
		StripeWebhookGuard:   stripeGuard,
		ClerkWebhookService:  clerkWebhookService,
		ClerkWebhookGuard:    clerkGuard,
		WebhookMetrics:       metrics.NewWebhookMetrics(registry),
	}, nil
}
