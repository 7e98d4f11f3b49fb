package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/app"
	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/config"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/health"
	"github.com/noah-isme/backend-resto/internal/inventory"
	"github.com/noah-isme/backend-resto/internal/jobs"
	"github.com/noah-isme/backend-resto/internal/kitchen"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/loyalty"
	"github.com/noah-isme/backend-resto/internal/notify"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/queue"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/reporting"
	"github.com/noah-isme/backend-resto/internal/reservation"
	"github.com/noah-isme/backend-resto/internal/resilience"
	"github.com/noah-isme/backend-resto/internal/scheduler"
	"github.com/noah-isme/backend-resto/internal/tenant"
	"github.com/noah-isme/backend-resto/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{
		Format:  envOrDefault("OBS_LOG_FORMAT", "json"),
		Level:   envOrDefault("OBS_LOG_LEVEL", "info"),
		Service: "resto-worker",
		Env:     cfg.AppEnv,
	})
	component := func(name string) zerolog.Logger {
		return logger.With().Str("component", name).Logger()
	}

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "resto")
	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	resilience.Register(metricsNamespace, prometheus.DefaultRegisterer)
	queue.Register(metricsNamespace, prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !strings.EqualFold(envOrDefault("OBS_ENABLE_TRACING", "true"), "false") {
		ratio, _ := strconv.ParseFloat(envOrDefault("OBS_TRACING_SAMPLING_RATIO", "1"), 64)
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "resto-worker",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: ratio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	bootCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := app.OpenPostgres(bootCtx, cfg.DatabaseURL, "resto-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()
	queries := dbgen.New(pool)

	redisClient, err := app.OpenRedis(bootCtx, cfg.RedisURL, true, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	directory := &tenant.Directory{Q: queries, R: redisClient, TTL: cfg.TenantCacheTTL}

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
	defer func() { _ = taskClient.Close() }()
	tasks := &jobs.Client{Tasks: taskClient, MaxRetry: cfg.TaskMaxRetry, Log: component("jobs")}
	kitchenQueue := queue.Enqueuer{R: redisClient, Prefix: cfg.QueuePrefix, MaxAttempts: cfg.QueueMaxAttempts}

	// Status changes made here (kitchen consumer, sweeps) reach the same
	// notifiers as changes made through the API.
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

	ledger := loyalty.Ledger{}
	loyaltySvc := &loyalty.Service{
		Q:      queries,
		Tx:     repo.InTx(pool, func(tx pgx.Tx) loyalty.Querier { return queries.WithTx(tx) }),
		Ledger: ledger,
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

	optional := map[string]health.DependencyCheck{}
	var wg sync.WaitGroup

	// Kitchen link: the Redis queue relays tickets to RabbitMQ, and the
	// consumer starts cooking accepted orders.
	relay := kitchen.Relay{
		Breaker: resilience.NewBreaker(3, 0.5, 15*time.Second).WithTarget("kitchen").WithLogger(component("kitchen-relay")),
		Log:     component("kitchen-relay"),
	}
	if cfg.KitchenEnabled() {
		publisher, err := kitchen.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("dial kitchen broker")
		}
		defer publisher.Close()
		if err := publisher.Declare(); err != nil {
			logger.Fatal().Err(err).Msg("declare kitchen topology")
		}
		relay.Broker = publisher
		optional["rabbitmq"] = func(context.Context) error { return publisher.Ping() }

		consumerConn, err := kitchen.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("dial kitchen consumer")
		}
		defer consumerConn.Close()
		deliveries, err := consumerConn.Consume("resto-worker", cfg.KitchenPrefetch)
		if err != nil {
			logger.Fatal().Err(err).Msg("consume kitchen queue")
		}
		consumer := kitchen.Consumer{Orders: orderSvc, Log: component("kitchen-consumer")}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, deliveries); err != nil {
				logger.Error().Err(err).Msg("kitchen consumer stopped")
				stop()
			}
		}()
	} else {
		logger.Warn().Msg("RABBITMQ_URL not set; kitchen tickets are dropped")
	}

	kitchenWorker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueuePrefix,
		Kind:              kitchen.TaskKind,
		Concurrency:       cfg.QueueConcurrency,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		RetryBase:         cfg.QueueRetryBase,
		RetryJitter:       0.2,
		Store:             queue.NewStore(pool),
		Logger:            component("queue"),
		Handler:           relay.Handle,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kitchenWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("kitchen queue worker stopped")
		}
	}()

	// Deferred tasks.
	taskServer, err := jobs.NewServer(cfg.RedisURL, cfg.TaskConcurrency, component("tasks"))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise task server")
	}
	taskHandlers := &jobs.Handlers{
		Loyalty:      loyaltySvc,
		Reservations: reservationSvc,
		Tenants:      directory,
		Mail:         mailer,
		Log:          component("tasks"),
	}
	if err := taskServer.Start(taskHandlers.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	// Periodic jobs.
	sched := scheduler.New(ctx, lock.Locker{R: redisClient}, queries, component("scheduler"))
	specs := scheduler.Specs{
		NoShowSweep:  cfg.CronNoShowSweep,
		PointsExpiry: cfg.CronPointsExpiry,
		Birthdays:    cfg.CronBirthdays,
		LowStock:     cfg.CronLowStock,
		ReportWarm:   cfg.CronReportWarm,
		NoShowGrace:  cfg.NoShowGrace,
	}
	if err := sched.Register(specs, scheduler.Services{
		Reservations: reservationSvc,
		Loyalty:      loyaltySvc,
		Inventory:    inventorySvc,
		Reports:      reportingSvc,
	}); err != nil {
		logger.Fatal().Err(err).Msg("register scheduled jobs")
	}
	sched.Start()

	healthHandler := health.Handler{
		Checker:  app.Readiness{DB: pool, Redis: redisClient},
		Optional: optional,
	}
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", healthHandler.Live)
	mux.Get("/health/ready", healthHandler.Ready)
	mux.Post("/jobs/{name}/run", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := sched.Trigger(r.Context(), name); err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"job": name}})
	})
	srv := &http.Server{Addr: envOrDefault("WORKER_HTTP_ADDR", ":9091"), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("worker http server")
		}
	}()

	logger.Info().Bool("kitchen", cfg.KitchenEnabled()).Msg("worker started")
	<-ctx.Done()
	logger.Info().Msg("worker shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	sched.Stop()
	taskServer.Shutdown()
	wg.Wait()
	logger.Info().Msg("worker shutdown complete")
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
