package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	agendahandler "registro/internal/agenda/handler"
	agendaservice "registro/internal/agenda/service"
	agendastore "registro/internal/agenda/store"
	authhandler "registro/internal/auth/handler"
	authmetrics "registro/internal/auth/metrics"
	authservice "registro/internal/auth/service"
	refreshstore "registro/internal/auth/store/refresh-token"
	userstore "registro/internal/auth/store/user"
	"registro/internal/auth/workers/cleanup"
	billinghandler "registro/internal/billing/handler"
	billingservice "registro/internal/billing/service"
	billingstore "registro/internal/billing/store"
	catastrohandler "registro/internal/catastro/handler"
	catastroservice "registro/internal/catastro/service"
	catastrostore "registro/internal/catastro/store"
	"registro/internal/catastro/wfs"
	identidadcache "registro/internal/identidad/cache"
	identidadclient "registro/internal/identidad/client"
	identidadhandler "registro/internal/identidad/handler"
	identidadservice "registro/internal/identidad/service"
	jwttoken "registro/internal/jwt_token"
	personahandler "registro/internal/persona/handler"
	personaservice "registro/internal/persona/service"
	personastore "registro/internal/persona/store"
	"registro/internal/platform/config"
	"registro/internal/platform/database"
	"registro/internal/platform/health"
	"registro/internal/platform/logger"
	"registro/internal/platform/metrics"
	platformredis "registro/internal/platform/redis"
	ratelimitmodels "registro/internal/ratelimit/models"
	ratelimitservice "registro/internal/ratelimit/service"
	ratelimitstore "registro/internal/ratelimit/store"
	rosterhandler "registro/internal/roster/handler"
	rosterservice "registro/internal/roster/service"
	rosterstore "registro/internal/roster/store"
	"registro/internal/seeder"
	httptransport "registro/internal/transport/http"
	"registro/migrations"
	"registro/pkg/platform/circuit"
	"registro/pkg/platform/middleware/request"
	"registro/pkg/platform/tracer"
	"registro/pkg/platform/tx"
)

const (
	shutdownTimeout   = 15 * time.Second
	redisStatsPeriod  = 15 * time.Second
	serviceTracerName = "registro"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing registro",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"subscription_gate", cfg.Billing.SubscriptionGate,
	)

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // best-effort on shutdown
	db := pool.DB()

	applied, err := database.Migrate(ctx, db, migrations.FS)
	if err != nil {
		return err
	}
	log.Info("migrations applied", "count", len(applied), "versions", applied)

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // best-effort on shutdown
		go redisClient.RunPoolStats(ctx, redisStatsPeriod)
	}

	m := metrics.New()
	txRunner := tx.NewRunner(db, cfg.Database.TxTimeout)
	otelTracer := tracer.NewOTel(serviceTracerName)

	// Auth
	var lockoutStore ratelimitservice.Store = ratelimitstore.NewInMemory()
	if redisClient != nil {
		lockoutStore = ratelimitstore.NewRedis(redisClient)
	}
	loginThrottle, err := ratelimitservice.New(lockoutStore,
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(m),
		ratelimitservice.WithConfig(ratelimitmodels.Config{
			MaxFailures:  cfg.Auth.LoginMaxFailures,
			Window:       cfg.Auth.LoginLockWindow,
			LockDuration: cfg.Auth.LoginLockDuration,
		}),
	)
	if err != nil {
		return err
	}

	users := userstore.NewPostgres(db)
	refreshTokens := refreshstore.NewPostgres(db)
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	authSvc := authservice.New(users, refreshTokens, jwtService,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithTxRunner(txRunner),
		authservice.WithRefreshTTL(cfg.Auth.RefreshTokenTTL),
		authservice.WithLoginThrottle(loginThrottle),
	)

	// Registries
	personaSvc := personaservice.New(personastore.NewPostgres(db),
		personaservice.WithLogger(log),
		personaservice.WithMetrics(m),
		personaservice.WithTxRunner(txRunner),
	)
	rosterSvc := rosterservice.New(rosterstore.NewPostgres(db), personaSvc,
		rosterservice.WithLogger(log),
		rosterservice.WithMetrics(m),
		rosterservice.WithTxRunner(txRunner),
	)
	agendaSvc := agendaservice.New(agendastore.NewPostgres(db),
		agendaservice.WithLogger(log),
		agendaservice.WithMetrics(m),
		agendaservice.WithTxRunner(txRunner),
	)

	// Cadastre
	if cfg.Catastro.WFSURL == "" {
		log.Warn("CATASTRO_WFS_URL is not set; geo-data lookups will fail upstream")
	}
	wfsClient := wfs.New(cfg.Catastro.WFSURL, cfg.Catastro.Layer, cfg.Catastro.Timeout,
		wfs.WithBreaker(circuit.New("catastro_wfs",
			circuit.WithFailureThreshold(cfg.Catastro.BreakerFailures),
			circuit.WithCooldown(cfg.Catastro.BreakerCooldown),
		)),
		wfs.WithTracer(otelTracer),
		wfs.WithMetrics(m),
	)
	catastroSvc := catastroservice.New(catastrostore.NewPostgres(db), wfsClient,
		catastroservice.WithLogger(log),
		catastroservice.WithMetrics(m),
		catastroservice.WithTxRunner(txRunner),
		catastroservice.WithTracer(otelTracer),
		catastroservice.WithBatchConcurrency(cfg.Catastro.BatchConcurrency),
	)

	// National ID lookups
	if cfg.Cedula.APIURL == "" {
		log.Warn("CEDULA_API_URL is not set; remote cedula lookups will fail upstream")
	}
	var cedulaCache identidadservice.Cache
	if redisClient != nil {
		cedulaCache = identidadcache.NewRedis(redisClient, cfg.Cedula.CacheTTL, m)
	} else {
		log.Info("REDIS_URL is not set; using the in-process cedula cache")
		cedulaCache = identidadcache.NewMemory(cfg.Cedula.CacheTTL, identidadcache.WithMetrics(m))
	}
	cedulaClient := identidadclient.New(cfg.Cedula.APIURL, cfg.Cedula.APIKey, cfg.Cedula.Timeout,
		identidadclient.WithBreaker(circuit.New("cedula_api")),
		identidadclient.WithTracer(otelTracer),
		identidadclient.WithMetrics(m),
	)
	identidadSvc := identidadservice.New(personaSvc, cedulaCache, cedulaClient,
		identidadservice.WithLogger(log),
		identidadservice.WithTracer(otelTracer),
	)

	// Billing
	billingStore := billingstore.NewPostgres(db)
	billingSvc := billingservice.New(billingStore,
		billingservice.WithLogger(log),
		billingservice.WithMetrics(m),
		billingservice.WithTxRunner(txRunner),
	)

	seed := seeder.New(users, billingStore, seeder.AdminCredentials{
		Username: cfg.Auth.BootstrapAdminUser,
		Password: cfg.Auth.BootstrapAdminPassword,
	}, log)
	if err := seed.SeedAll(ctx); err != nil {
		return err
	}

	cleanupSvc, err := cleanup.New(refreshTokens,
		cleanup.WithCleanupInterval(cfg.Workers.CleanupInterval),
		cleanup.WithCleanupLogger(log),
		cleanup.WithSubscriptionStore(billingStore),
	)
	if err != nil {
		return err
	}
	go func() {
		if err := cleanupSvc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cleanup worker stopped", "error", err)
		}
	}()

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("database", pool.Health)
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}

	router := httptransport.NewRouter(
		httptransport.Config{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			TrustedProxies:   cfg.TrustedProxies,
			SubscriptionGate: cfg.Billing.SubscriptionGate,
		},
		httptransport.Deps{
			Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
			UserStatus:     users,
			Subscriptions:  billingSvc,
			RequestMetrics: request.NewMetrics(),
			Logger:         log,
		},
		httptransport.Handlers{
			Auth:      authhandler.New(authSvc, log, cfg.Auth.CookieSecure),
			Personas:  personahandler.New(personaSvc, log),
			Rosters:   rosterhandler.New(rosterSvc, log),
			Agenda:    agendahandler.New(agendaSvc, log),
			Catastro:  catastrohandler.New(catastroSvc, log),
			Identidad: identidadhandler.New(identidadSvc, log),
			Billing:   billinghandler.New(billingSvc, log),
			Health:    healthHandler,
		},
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
