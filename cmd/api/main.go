package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/app"
	"github.com/noah-isme/backend-resto/internal/audit"
	"github.com/noah-isme/backend-resto/internal/auth"
	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/checkout"
	"github.com/noah-isme/backend-resto/internal/cms"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/health"
	mw "github.com/noah-isme/backend-resto/internal/http/middleware"
	"github.com/noah-isme/backend-resto/internal/inventory"
	"github.com/noah-isme/backend-resto/internal/jobs"
	"github.com/noah-isme/backend-resto/internal/kitchen"
	"github.com/noah-isme/backend-resto/internal/loyalty"
	"github.com/noah-isme/backend-resto/internal/menu"
	"github.com/noah-isme/backend-resto/internal/notify"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/promotion"
	"github.com/noah-isme/backend-resto/internal/queue"
	"github.com/noah-isme/backend-resto/internal/ratelimit"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/reporting"
	"github.com/noah-isme/backend-resto/internal/reservation"
	"github.com/noah-isme/backend-resto/internal/resilience"
	"github.com/noah-isme/backend-resto/internal/reviews"
	"github.com/noah-isme/backend-resto/internal/security"
	"github.com/noah-isme/backend-resto/internal/tenant"
	"github.com/noah-isme/backend-resto/internal/tracking"
	"github.com/noah-isme/backend-resto/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{
		Format:  envOrDefault("OBS_LOG_FORMAT", "json"),
		Level:   envOrDefault("OBS_LOG_LEVEL", "info"),
		Service: "resto-api",
		Env:     cfg.AppEnv,
	})

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "resto")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	resilience.Register(metricsNamespace, prometheus.DefaultRegisterer)
	queue.Register(metricsNamespace, prometheus.DefaultRegisterer)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "resto-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.DBAutoMigrate {
		m, err := db.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrator")
		}
		if err := db.Up(m); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := app.OpenPostgres(bootCtx, cfg.DatabaseURL, "resto-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()
	queries := dbgen.New(pool)

	redisClient, err := app.OpenRedis(bootCtx, cfg.RedisURL, metricsEnabled, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	component := func(name string) zerolog.Logger {
		return logger.With().Str("component", name).Logger()
	}

	// Tenants and identity.
	directory := &tenant.Directory{Q: queries, R: redisClient, TTL: cfg.TenantCacheTTL}
	resolver := tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, cfg.DefaultTenant)
	tenantHandler := &tenant.Handler{Svc: &tenant.Service{Q: queries, Dir: directory}}

	// Outbound side effects hang off the event bus.
	var mailer common.EmailSender = notify.LogMailer{Log: component("mailer")}
	if cfg.MailEnabled() {
		mailer = notify.NewResendMailer(notify.MailerConfig{
			BaseURL: cfg.MailBaseURL,
			APIKey:  cfg.MailAPIKey,
			From:    cfg.MailFrom,
			Breaker: resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("mailer").WithLogger(component("mailer")),
		})
	}
	taskClient, err := jobs.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open task client")
	}
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	tasks := &jobs.Client{Tasks: taskClient, MaxRetry: cfg.TaskMaxRetry, Log: component("jobs")}
	kitchenQueue := queue.Enqueuer{R: redisClient, Prefix: cfg.QueuePrefix, MaxAttempts: cfg.QueueMaxAttempts}
	bus := &events.Bus{
		Store: queries,
		Notifiers: []events.Notifier{
			notify.EmailNotifier{
				Mail:   mailer,
				Topics: notify.TopicToggles(cfg.EmailTopics),
				Dedupe: notify.RedisDedupe{Client: redisClient},
				Log:    component("email"),
			},
			kitchen.Dispatcher{Queue: kitchenQueue, MaxAttempts: cfg.QueueMaxAttempts},
			tasks,
		},
	}

	authService, err := auth.NewService(auth.Config{
		Queries:         queries,
		Events:          bus,
		Logger:          component("auth"),
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          cfg.JWTIssuer,
		Audience:        cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	csrf := security.CSRF{SessionCookie: cfg.AccessCookieName}
	authHandler := &auth.Handler{
		Service:           authService,
		AccessCookieName:  cfg.AccessCookieName,
		RefreshCookieName: cfg.RefreshCookieName,
		CookieDomain:      cfg.CookieDomain,
		CookieSecure:      cfg.CookieSecure,
		CookieSameSite:    cfg.CookieSameSite,
		CSRF:              csrf,
	}
	authMiddleware := auth.Middleware{Service: authService, AccessCookie: cfg.AccessCookieName}
	userHandler := &user.Handler{Service: &user.Service{Q: queries}}

	// Catalogue.
	branchSvc := &branch.Service{
		Q:  queries,
		Tx: repo.InTx(pool, func(tx pgx.Tx) branch.Querier { return queries.WithTx(tx) }),
	}
	menuSvc := &menu.Service{
		Q:     queries,
		Tx:    repo.InTx(pool, func(tx pgx.Tx) menu.Querier { return queries.WithTx(tx) }),
		Cache: cache.New(redisClient, cfg.MenuCacheTTL),
	}
	cmsSvc := &cms.Service{Q: queries, Cache: cache.New(redisClient, cfg.CMSCacheTTL)}

	// Ordering.
	ledger := loyalty.Ledger{}
	promoSvc := &promotion.Service{Q: queries, DefaultPerUserLimit: cfg.PromotionPerUserLimit}
	loyaltySvc := &loyalty.Service{
		Q:      queries,
		Tx:     repo.InTx(pool, func(tx pgx.Tx) loyalty.Querier { return queries.WithTx(tx) }),
		Ledger: ledger,
	}
	cartSvc := &cart.Service{
		Q:       queries,
		Tx:      repo.InTx(pool, func(tx pgx.Tx) cart.Querier { return queries.WithTx(tx) }),
		Promos:  promoSvc,
		Loyalty: loyaltySvc,
		TTL:     cfg.CartTTL,
	}
	checkoutSvc := &checkout.Service{
		Q:      queries,
		Tx:     repo.InTx(pool, func(tx pgx.Tx) checkout.Querier { return queries.WithTx(tx) }),
		Promos: promoSvc,
		Ledger: ledger,
		Events: bus,
		Log:    component("checkout"),
	}
	orderSvc := &order.Service{
		Q:       queries,
		Tx:      repo.InTx(pool, func(tx pgx.Tx) order.Querier { return queries.WithTx(tx) }),
		Ledger:  ledger,
		Events:  bus,
		Tracker: tracking.Publisher{R: redisClient},
		Log:     component("order"),
	}
	reservationSvc := &reservation.Service{
		Q:            queries,
		Tx:           repo.InTx(pool, func(tx pgx.Tx) reservation.Querier { return queries.WithTx(tx) }),
		Events:       bus,
		Reminders:    tasks,
		ReminderLead: cfg.ReminderLead,
		Log:          component("reservation"),
	}
	inventorySvc := &inventory.Service{
		Q:      queries,
		Tx:     repo.InTx(pool, func(tx pgx.Tx) inventory.Querier { return queries.WithTx(tx) }),
		Events: bus,
		Log:    component("inventory"),
	}
	reportingSvc := &reporting.Service{
		Q:           queries,
		Tenants:     queries,
		Cache:       cache.New(redisClient, cfg.ReportCacheTTL),
		DefaultDays: cfg.ReportDefaultDays,
		Log:         component("reporting"),
	}
	reviewsSvc := &reviews.Service{Q: queries, Events: bus, Log: component("reviews")}

	branchHandler := &branch.Handler{Svc: branchSvc}
	menuHandler := &menu.Handler{Svc: menuSvc}
	cmsHandler := &cms.Handler{Svc: cmsSvc}
	promoHandler := &promotion.Handler{Svc: promoSvc}
	loyaltyHandler := &loyalty.Handler{Svc: loyaltySvc}
	cartHandler := &cart.Handler{Svc: cartSvc}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}
	orderHandler := &order.Handler{Svc: orderSvc}
	reservationHandler := &reservation.Handler{Svc: reservationSvc}
	inventoryHandler := &inventory.Handler{Svc: inventorySvc}
	reportingHandler := &reporting.Handler{Svc: reportingSvc}
	reviewsHandler := &reviews.Handler{Svc: reviewsSvc}

	// Live tracking.
	hub := tracking.NewHub(redisClient, component("tracking"))
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("tracking hub stopped")
		}
	}()
	trackingHandler := &tracking.Handler{
		Orders:         orderSvc,
		Hub:            hub,
		Limiter:        ratelimit.NewLocal(cfg.TrackUpgradesPerMin, 5),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}

	// Admin tooling.
	auditSvc := &audit.Service{Store: queries, Enabled: cfg.AuditEnabled, SamplingRate: cfg.AuditSampling}
	auditRecorder := audit.HTTPRecorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Warn().Err(err).Msg("audit record failed") },
	}
	auditHandler := audit.Handler{Store: queries}
	queueAdmin := &queue.AdminHandler{
		Store:             queue.NewStore(pool),
		Queue:             kitchenQueue,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		Logger:            component("queue-admin"),
	}

	// Rate limits.
	loginStore, err := ratelimit.NewRedisStore(redisClient, "rl:login")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise login limiter")
	}
	loginLimit := ratelimit.Login(loginStore, cfg.LoginPerMinute, component("ratelimit"))
	sliding := ratelimit.Limiter{Client: redisClient, Prefix: "rl"}
	perMinute := func(scope string, max int) func(http.Handler) http.Handler {
		return ratelimit.Handler{
			Limiter: sliding,
			Config: ratelimit.Config{
				Key:    func(r *http.Request) string { return scope + ":" + ratelimit.CallerKey(r) },
				Window: time.Minute,
				Max:    max,
			},
			OnError: func(err error) { logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable") },
		}.Middleware
	}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, prometheus.DefaultRegisterer)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.Tracing("resto-api"))
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key", cfg.TenantHeader},
		ExposedHeaders:   []string{"Link", "X-Total-Count", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", !cfg.IsProduction()) {
		pprofUser := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), pprofUser, pass))
	}

	healthHandler := health.Handler{
		Checker:      app.Readiness{DB: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	staff := mw.RequireRole(common.RoleStaff)
	admin := mw.RequireRole(common.RoleAdmin)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(resolver.Middleware)
		v.Use(mw.RequireTenant)
		v.Use(directory.Middleware)
		v.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		v.Use(csrf.Middleware)
		v.Use(authMiddleware.Authenticate)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.With(loginLimit).Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/me/profile", func(p chi.Router) {
			p.Use(authMiddleware.RequireAuth)
			p.Get("/", userHandler.Profile)
			p.Patch("/", userHandler.UpdateProfile)
		})

		v.Get("/branches", branchHandler.List)
		v.Get("/branches/{slug}", branchHandler.Get)
		v.Get("/branches/{id}/availability", reservationHandler.Availability)

		v.Get("/menu/categories", menuHandler.Categories)
		v.Get("/menu/items", menuHandler.Items)
		v.Get("/menu/items/{slug}", menuHandler.Item)
		v.Get("/menu/items/{id}/reviews", reviewsHandler.List)
		v.Get("/menu/items/{id}/reviews/stats", reviewsHandler.Stats)
		v.With(authMiddleware.RequireAuth).Post("/menu/items/{id}/reviews", reviewsHandler.Create)
		v.With(authMiddleware.RequireAuth).Delete("/reviews/{id}", reviewsHandler.Delete)

		v.Get("/pages", cmsHandler.Pages)
		v.Get("/pages/{slug}", cmsHandler.Page)

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", cartHandler.Get)
			c.Get("/{id}/quote", cartHandler.Quote)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Ensure)
				g.Put("/{id}/context", cartHandler.SetContext)
				g.Post("/{id}/items", cartHandler.AddItem)
				g.Patch("/{id}/items/{itemId}", cartHandler.UpdateItem)
				g.Delete("/{id}/items/{itemId}", cartHandler.RemoveItem)
				g.Post("/{id}/promotion", cartHandler.ApplyPromotion)
				g.Delete("/{id}/promotion", cartHandler.RemovePromotion)
				g.With(authMiddleware.RequireAuth).Put("/{id}/points", cartHandler.SetPoints)
				g.With(authMiddleware.RequireAuth).Post("/merge", cartHandler.Merge)
			})
		})

		v.With(perMinute("checkout", cfg.CheckoutPerMinute), idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.With(perMinute("lookup", cfg.LookupPerMinute)).Get("/orders/track/{code}", orderHandler.Track)
		v.Get("/orders/track/{code}/ws", trackingHandler.Stream)
		v.Group(func(o chi.Router) {
			o.Use(authMiddleware.RequireAuth)
			o.Get("/orders", orderHandler.List)
			o.Get("/orders/{id}", orderHandler.Get)
			o.Post("/orders/{id}/cancel", orderHandler.Cancel)
		})

		v.Route("/reservations", func(res chi.Router) {
			res.With(perMinute("reservation", cfg.ReservationPerMinute), idem.Middleware).Post("/", reservationHandler.Create)
			res.With(perMinute("lookup", cfg.LookupPerMinute)).Get("/{code}", reservationHandler.Get)
			res.Post("/{code}/cancel", reservationHandler.Cancel)
		})

		v.Route("/loyalty", func(l chi.Router) {
			l.Get("/tiers", loyaltyHandler.Tiers)
			l.With(authMiddleware.RequireAuth).Get("/me", loyaltyHandler.Me)
			l.With(authMiddleware.RequireAuth).Get("/me/transactions", loyaltyHandler.MyTransactions)
			l.With(authMiddleware.RequireAuth, staff).Post("/lookup", loyaltyHandler.Lookup)
		})

		v.Route("/admin", func(a chi.Router) {
			a.Use(authMiddleware.RequireAuth)
			a.Use(staff)
			a.Use(auditRecorder.Mutations)

			a.Get("/branches", branchHandler.AdminList)
			a.Post("/branches", branchHandler.Create)
			a.Put("/branches/{id}", branchHandler.Update)
			a.Delete("/branches/{id}", branchHandler.Deactivate)
			a.Post("/branches/{id}/activate", branchHandler.Activate)
			a.Put("/branches/{id}/hours", branchHandler.ReplaceHours)

			a.Route("/menu", func(m chi.Router) {
				m.Get("/categories", menuHandler.AdminCategories)
				m.Post("/categories", menuHandler.CreateCategory)
				m.Put("/categories/order", menuHandler.ReorderCategories)
				m.Put("/categories/{id}", menuHandler.UpdateCategory)
				m.Delete("/categories/{id}", menuHandler.DeleteCategory)
				m.Post("/items", menuHandler.CreateItem)
				m.Get("/items/{id}", menuHandler.AdminItem)
				m.Put("/items/{id}", menuHandler.UpdateItem)
				m.Patch("/items/{id}/availability", menuHandler.SetAvailability)
				m.Delete("/items/{id}", menuHandler.DeleteItem)
				m.Post("/items/{itemID}/modifiers", menuHandler.CreateModifier)
				m.Put("/items/{itemID}/modifiers/{id}", menuHandler.UpdateModifier)
				m.Delete("/items/{itemID}/modifiers/{id}", menuHandler.DeleteModifier)
			})

			a.Route("/promotions", func(p chi.Router) {
				p.Get("/", promoHandler.List)
				p.Post("/", promoHandler.Create)
				p.Post("/preview", promoHandler.Preview)
				p.Get("/{id}", promoHandler.Get)
				p.Put("/{id}", promoHandler.Update)
				p.Delete("/{id}", promoHandler.Deactivate)
			})

			a.Get("/orders", orderHandler.AdminList)
			a.Get("/orders/{id}", orderHandler.AdminGet)
			a.Patch("/orders/{id}/status", orderHandler.SetStatus)

			a.Get("/reservations", reservationHandler.AdminList)
			a.Post("/reservations/{id}/confirm", reservationHandler.Confirm)
			a.Post("/reservations/{id}/cancel", reservationHandler.AdminCancel)
			a.Post("/reservations/{id}/complete", reservationHandler.Complete)
			a.Post("/reservations/{id}/no-show", reservationHandler.NoShow)

			a.Route("/inventory", func(i chi.Router) {
				i.Get("/ingredients", inventoryHandler.Ingredients)
				i.Post("/ingredients", inventoryHandler.CreateIngredient)
				i.Put("/ingredients/{id}", inventoryHandler.UpdateIngredient)
				i.Delete("/ingredients/{id}", inventoryHandler.DeleteIngredient)
				i.Get("/low-stock", inventoryHandler.LowStock)
				i.Get("/recipes/{menuItemId}", inventoryHandler.Recipe)
				i.Put("/recipes/{menuItemId}", inventoryHandler.ReplaceRecipe)
				i.Get("/movements", inventoryHandler.Movements)
				i.Post("/movements", inventoryHandler.RecordMovement)
			})

			a.Route("/loyalty", func(l chi.Router) {
				l.Get("/accounts/{userID}", loyaltyHandler.Account)
				l.Get("/accounts/{userID}/transactions", loyaltyHandler.AccountTransactions)
				l.Post("/adjustments", loyaltyHandler.Adjust)
				l.Group(func(cfgR chi.Router) {
					cfgR.Use(admin)
					cfgR.Post("/tiers", loyaltyHandler.CreateTier)
					cfgR.Put("/tiers/{id}", loyaltyHandler.UpdateTier)
					cfgR.Delete("/tiers/{id}", loyaltyHandler.DeleteTier)
					cfgR.Get("/rules", loyaltyHandler.Rules)
					cfgR.Post("/rules", loyaltyHandler.CreateRule)
					cfgR.Put("/rules/{id}", loyaltyHandler.UpdateRule)
					cfgR.Delete("/rules/{id}", loyaltyHandler.DeleteRule)
				})
			})

			a.Route("/pages", func(p chi.Router) {
				p.Get("/", cmsHandler.AdminList)
				p.Post("/", cmsHandler.Create)
				p.Get("/{id}", cmsHandler.AdminGet)
				p.Put("/{id}", cmsHandler.Update)
				p.Delete("/{id}", cmsHandler.Delete)
			})

			a.Group(func(ad chi.Router) {
				ad.Use(admin)
				ad.Get("/tenant", tenantHandler.Get)
				ad.Patch("/tenant", tenantHandler.Update)
				ad.Get("/users", userHandler.List)
				ad.Put("/users/{id}/roles", userHandler.SetRoles)
				ad.Get("/audit-logs", auditHandler.List)
				ad.Get("/reports/sales", reportingHandler.Sales)
				ad.Get("/reports/top-items", reportingHandler.TopItems)
				ad.Get("/reports/reservations", reportingHandler.Reservations)
				ad.Get("/reports/loyalty", reportingHandler.Loyalty)
				ad.Get("/queue/dlq", queueAdmin.ListDLQ)
				ad.Post("/queue/dlq/replay", queueAdmin.ReplayDLQ)
				ad.Get("/queue/stats", queueAdmin.Stats)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
