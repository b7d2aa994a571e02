package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/moodjournal-backend/api/controllers"
	billingcontrollers "github.com/angelmondragon/moodjournal-backend/api/controllers/billing"
	webhookcontrollers "github.com/angelmondragon/moodjournal-backend/api/controllers/webhooks"
	"github.com/angelmondragon/moodjournal-backend/api/middleware"
	"github.com/angelmondragon/moodjournal-backend/pkg/config"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
	"github.com/angelmondragon/moodjournal-backend/pkg/metrics"
	"github.com/angelmondragon/moodjournal-backend/pkg/stripe"
)

// Deps carries every collaborator the HTTP surface needs. Stripe fields are
// nil when billing is not configured.
type Deps struct {
	Verifier       middleware.SessionVerifier
	RateLimits     middleware.RateLimitStore
	Pingers        map[string]controllers.Pinger
	MetricsHandler http.Handler

	Analyzer     controllers.Analyzer
	Journal      controllers.JournalService
	Reflection   controllers.ReflectionService
	Dashboard    controllers.DashboardService
	Entitlements middleware.AccessResolver
	Billing      billingcontrollers.Service

	StripeClient         *stripe.Client
	StripeWebhookService webhookcontrollers.StripeWebhookService
	StripeWebhookGuard   webhookcontrollers.EventGuard
	ClerkWebhookService  webhookcontrollers.ClerkWebhookService
	ClerkWebhookGuard    webhookcontrollers.EventGuard
	WebhookMetrics       *metrics.WebhookMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	llmPolicy := middleware.NewRateLimitPolicy("llm", cfg.Analysis.RateLimitWindow, cfg.Analysis.RateLimit)
	rateLimited := middleware.RateLimit(llmPolicy, deps.RateLimits, logg)
	entryAccess := middleware.RequireEntryAccess(deps.Entitlements, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, deps.Pingers, logg))
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService(deps), stripeSigner(deps), deps.StripeWebhookGuard, deps.WebhookMetrics, logg))
		r.Post("/clerk", webhookcontrollers.ClerkWebhook(deps.ClerkWebhookService, deps.ClerkWebhookGuard, deps.WebhookMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Verifier, logg))

		r.With(entryAccess, rateLimited).Post("/analyze", controllers.Analyze(deps.Analyzer, logg))

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", controllers.ListEntries(deps.Journal, logg))
			r.With(entryAccess, rateLimited).Post("/", controllers.SubmitEntry(deps.Journal, logg))
			r.With(entryAccess).Post("/save", controllers.SaveEntry(deps.Journal, logg))
		})

		r.Get("/dashboard", controllers.Dashboard(deps.Dashboard, logg))

		r.Route("/reflection", func(r chi.Router) {
			r.Use(rateLimited)
			r.Post("/", controllers.Reflect(deps.Reflection, logg))
			r.Post("/today", controllers.ReflectToday(deps.Reflection, logg))
		})

		r.Get("/me/entitlement", controllers.Entitlement(deps.Entitlements, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Get("/subscription", billingcontrollers.Subscription(deps.Billing, deps.Entitlements, logg))
			r.Post("/checkout", billingcontrollers.Checkout(deps.Billing, logg))
			r.Post("/portal", billingcontrollers.Portal(deps.Billing, logg))
		})
	})

	return r
}

// stripeWebhookService hides a missing client behind a nil interface so the
// controller answers 503 instead of verifying with an empty secret.
func stripeWebhookService(deps Deps) webhookcontrollers.StripeWebhookService {
	if deps.StripeClient == nil {
		return nil
	}
	return deps.StripeWebhookService
}

func stripeSigner(deps Deps) interface{ SigningSecret() string } {
	if deps.StripeClient == nil {
		return nil
	}
	return deps.StripeClient
}
