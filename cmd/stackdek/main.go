package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stackdek/stackdek/modules/auth"
	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/modules/company"
	"github.com/stackdek/stackdek/modules/connect"
	"github.com/stackdek/stackdek/modules/invoice"
	"github.com/stackdek/stackdek/modules/job"
	"github.com/stackdek/stackdek/modules/notify"
	"github.com/stackdek/stackdek/modules/quote"
	"github.com/stackdek/stackdek/pkg/config"
	"github.com/stackdek/stackdek/pkg/email"
	"github.com/stackdek/stackdek/pkg/httpserver"
	"github.com/stackdek/stackdek/pkg/jwt"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/pg"
	"github.com/stackdek/stackdek/pkg/redis"
	"github.com/stackdek/stackdek/pkg/tenant"
)

// appConfig holds the few settings that belong to the binary rather than to
// any one module.
type appConfig struct {
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttr(slog.String("app", "stackdek")))

	if err := run(context.Background(), log); err != nil {
		log.Error("service terminated", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg     appConfig
		pgCfg      pg.Config
		redisCfg   redis.Config
		httpCfg    httpserver.Config
		authCfg    auth.Config
		billingCfg billing.Config
		connectCfg connect.Config
		emailCfg   email.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&authCfg) },
		func() error { return config.Load(&billingCfg) },
		func() error { return config.Load(&connectCfg) },
		func() error { return config.Load(&emailCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", logger.Error(err))
		}
	}()

	catalog, err := billing.LoadCatalog(billingCfg.PlanCatalogPath)
	if err != nil {
		return err
	}

	provider, err := billingProvider(billingCfg, appCfg)
	if err != nil {
		return err
	}

	tokens, err := jwt.NewFromString(authCfg.SigningKey)
	if err != nil {
		return err
	}

	var sender email.Sender
	if emailCfg.PostmarkServerToken != "" {
		sender, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no postmark token configured, writing email to disk",
			slog.String("dir", emailCfg.DevOutputDir))
		sender = email.NewDevSender(emailCfg.DevOutputDir)
	}

	collector, parser, err := paymentBackends(billingCfg, connectCfg, appCfg)
	if err != nil {
		return err
	}

	// Stores, then services. The billing store reads the subscription columns
	// every guarded request and every plan-limit check goes through.
	subStore := billing.NewPGStore(pool)
	companyStore := company.NewPGStore(pool)
	clientStore := client.NewPGStore(pool)

	billingSvc := billing.NewService(subStore, provider, catalog, billingCfg, log)
	companySvc := company.NewService(companyStore, catalog, log)
	authSvc := auth.NewService(auth.NewPGStore(pool), companySvc, tokens, authCfg, log)
	clientSvc := client.NewService(clientStore, subStore, catalog, log)
	jobSvc := job.NewService(job.NewPGStore(pool), clientStore, subStore, catalog, log)
	notifySvc := notify.NewService(sender, clientStore, companyStore, log)
	invoiceSvc := invoice.NewService(invoice.NewPGStore(pool), clientStore, subStore, collector, notifySvc, log)
	quoteSvc := quote.NewService(quote.NewPGStore(pool), clientStore, invoiceSvc, notifySvc, log)
	connectSvc, err := connect.NewService(connectCfg, billingSvc, invoiceSvc, parser, log)
	if err != nil {
		return err
	}
	guard := billing.NewGuard(subStore, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public surface: registration, webhooks and the OAuth return leg all
	// authenticate by other means than a bearer token.
	r.Get("/health", healthHandler(pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	r.Mount("/auth", authSvc.Router())
	r.Post("/webhooks/billing", billingSvc.WebhookHandler())
	r.Post("/webhooks/connect", connectSvc.WebhookHandler())
	r.Get("/connect/callback", connectSvc.CallbackHandler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokens))
		r.Use(tenant.Middleware(
			auth.ClaimsResolver(),
			companySvc.TenantProvider(),
			tenant.WithCache(tenant.NewRedisCache(redisClient)),
		))

		// Reachable on any subscription state, so a past-due tenant can still
		// see who they are and fix their billing.
		r.Get("/me", authSvc.MeHandler())
		r.Mount("/billing", billingSvc.Router())

		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware)
			r.Mount("/company", companySvc.Router())
			r.Mount("/clients", clientSvc.Router())
			r.Mount("/jobs", jobSvc.Router())
			r.Mount("/quotes", quoteSvc.Router())
			r.Mount("/invoices", invoiceSvc.Router())
			r.Mount("/connect", connectSvc.Router())
		})
	})

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// billingProvider selects the subscription billing backend.
func billingProvider(cfg billing.Config, app appConfig) (billing.Provider, error) {
	switch cfg.ProviderKind {
	case "dev":
		return billing.NewDevProvider(cfg.DevWebhookSecret, app.BaseURL)
	case "stripe":
		var stripeCfg billing.StripeConfig
		if err := config.Load(&stripeCfg); err != nil {
			return nil, err
		}
		return billing.NewStripeProvider(stripeCfg)
	default:
		return nil, fmt.Errorf("unknown billing provider %q", cfg.ProviderKind)
	}
}

// paymentBackends selects the invoice payment collector and the matching
// webhook parser, following the billing provider choice.
func paymentBackends(cfg billing.Config, connectCfg connect.Config, app appConfig) (invoice.PaymentCollector, connect.EventParser, error) {
	if cfg.ProviderKind == "dev" {
		return connect.NewDevCollector(app.BaseURL), connect.NewDevEventParser(cfg.DevWebhookSecret), nil
	}

	collector, err := connect.NewStripeCollector(connectCfg.SecretKey,
		app.BaseURL+"/billing?payment=success", app.BaseURL+"/billing?payment=canceled")
	if err != nil {
		return nil, nil, err
	}
	parser, err := connect.NewStripeEventParser(connectCfg.WebhookSecret)
	if err != nil {
		return nil, nil, err
	}
	return collector, parser, nil
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				httpserver.ErrorJSON(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		httpserver.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
