// Command api runs the internal administration server: tenant lifecycle,
// tenant users, support tickets, inquiries, and the audit trail, gated by a
// TOTP step-up factor.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	activitieshandler "github.com/solusisistem/internal-admin/domains/activities/be/handler"
	companieshandler "github.com/solusisistem/internal-admin/domains/companies/be/handler"
	companiesrepo "github.com/solusisistem/internal-admin/domains/companies/be/repo"
	companiesservice "github.com/solusisistem/internal-admin/domains/companies/be/service"
	dashboardhandler "github.com/solusisistem/internal-admin/domains/dashboard/be/handler"
	inquirieshandler "github.com/solusisistem/internal-admin/domains/inquiries/be/handler"
	inquiriesrepo "github.com/solusisistem/internal-admin/domains/inquiries/be/repo"
	inquiriesservice "github.com/solusisistem/internal-admin/domains/inquiries/be/service"
	stepuphandler "github.com/solusisistem/internal-admin/domains/stepup/be/handler"
	ticketshandler "github.com/solusisistem/internal-admin/domains/tickets/be/handler"
	ticketsrepo "github.com/solusisistem/internal-admin/domains/tickets/be/repo"
	ticketsservice "github.com/solusisistem/internal-admin/domains/tickets/be/service"
	usershandler "github.com/solusisistem/internal-admin/domains/users/be/handler"
	usersrepo "github.com/solusisistem/internal-admin/domains/users/be/repo"
	usersservice "github.com/solusisistem/internal-admin/domains/users/be/service"
	"github.com/solusisistem/internal-admin/platform/go/audit"
	platformauth "github.com/solusisistem/internal-admin/platform/go/auth"
	platformlogging "github.com/solusisistem/internal-admin/platform/go/logging"
	platformmiddleware "github.com/solusisistem/internal-admin/platform/go/middleware"
	"github.com/solusisistem/internal-admin/platform/go/notify"
	"github.com/solusisistem/internal-admin/platform/go/observability"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
	"github.com/solusisistem/internal-admin/platform/go/totp"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL       string        `env:"DATABASE_URL,required"`
	LegacyDatabaseURL string        `env:"LEGACY_DATABASE_URL"`
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBAcquireTimeout  time.Duration `env:"DB_ACQUIRE_TIMEOUT" envDefault:"5s"`

	TOTPSecret      string        `env:"TOTP_SECRET,required"`
	TOTPIssuer      string        `env:"TOTP_ISSUER" envDefault:"administrator"`
	TOTPAccountName string        `env:"TOTP_ACCOUNT_NAME" envDefault:"SSS-IT"`
	StepUpKey       string        `env:"STEPUP_SIGNING_KEY,required"`
	StepUpTTL       time.Duration `env:"STEPUP_TTL" envDefault:"5m"`

	NotifyChannel string `env:"NOTIFY_CHANNEL" envDefault:"contact_submissions.insert"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Bootstrap applies the embedded platform DDL on startup. Safe to leave
	// enabled; the DDL is idempotent.
	Bootstrap bool `env:"BOOTSTRAP" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	// Missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "admin-api",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	poolConfigs := map[persistence.Mode]persistence.PoolConfig{
		persistence.ModePrimary: {
			ConnString:     cfg.DatabaseURL,
			MaxConns:       cfg.DBMaxConns,
			AcquireTimeout: cfg.DBAcquireTimeout,
		},
	}
	if cfg.LegacyDatabaseURL != "" {
		poolConfigs[persistence.ModeLegacy] = persistence.PoolConfig{
			ConnString:     cfg.LegacyDatabaseURL,
			MaxConns:       cfg.DBMaxConns,
			AcquireTimeout: cfg.DBAcquireTimeout,
		}
	}

	manager := persistence.NewManager(poolConfigs)
	defer manager.Close()

	pool, err := manager.Primary(ctx)
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}

	if cfg.Bootstrap {
		if err := persistence.Bootstrap(ctx, pool); err != nil {
			logger.Fatal("apply platform ddl", zap.Error(err))
		}
	}

	auditStore, err := persistence.NewAuditStore(ctx, pool)
	if err != nil {
		logger.Fatal("init audit store", zap.Error(err))
	}
	recorder := audit.NewRecorder(auditStore, logger)

	companyStore, err := persistence.NewCompanyStore(ctx, pool)
	if err != nil {
		logger.Fatal("init company store", zap.Error(err))
	}
	companyRepo := companiesrepo.NewPostgres(companyStore)
	companyService := companiesservice.New(companyRepo, recorder)
	companyHTTPHandler := companieshandler.New(companyService, logger)

	userStore, err := persistence.NewUserStore(ctx, pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}
	userRepo := usersrepo.NewPostgres(userStore)
	userService := usersservice.New(userRepo, recorder)
	userHTTPHandler := usershandler.New(userService, logger)

	// Support data (tickets, inquiries) lives in the legacy database when a
	// legacy deployment is configured; everything else stays on the primary.
	supportPool := pool
	if cfg.LegacyDatabaseURL != "" {
		supportPool, err = manager.Pool(ctx, persistence.ModeLegacy)
		if err != nil {
			logger.Fatal("init legacy postgres pool", zap.Error(err))
		}
	}

	ticketStore, err := persistence.NewTicketStore(ctx, supportPool)
	if err != nil {
		logger.Fatal("init ticket store", zap.Error(err))
	}
	ticketRepo := ticketsrepo.NewPostgres(ticketStore)
	ticketService := ticketsservice.New(ticketRepo)
	ticketHTTPHandler := ticketshandler.New(ticketService, logger)

	inquiryStore, err := persistence.NewInquiryStore(ctx, supportPool)
	if err != nil {
		logger.Fatal("init inquiry store", zap.Error(err))
	}
	inquiryRepo := inquiriesrepo.NewPostgres(inquiryStore)
	inquiryService := inquiriesservice.New(inquiryRepo)
	inquiryHTTPHandler := inquirieshandler.New(inquiryService, logger)

	statsStore, err := persistence.NewStatsStore(ctx, pool)
	if err != nil {
		logger.Fatal("init stats store", zap.Error(err))
	}
	dashboardHTTPHandler := dashboardhandler.New(statsStore, logger)

	activitiesHTTPHandler := activitieshandler.New(auditStore, logger)

	verifier, err := totp.New(cfg.TOTPSecret)
	if err != nil {
		logger.Fatal("init totp verifier", zap.Error(err))
	}
	stepUpIssuer, err := platformauth.NewStepUpIssuer([]byte(cfg.StepUpKey), cfg.TOTPIssuer, cfg.StepUpTTL)
	if err != nil {
		logger.Fatal("init step-up issuer", zap.Error(err))
	}
	stepUpHTTPHandler := stepuphandler.New(verifier, stepUpIssuer, recorder, logger, cfg.TOTPIssuer, cfg.TOTPAccountName)

	notifier := notify.New(ctx, pool, cfg.NotifyChannel, logger)

	metrics := observability.NewMetrics()

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		platformmiddleware.CORS(cfg.CORSAllowedOrigins),
	)
	rootRouter.Use(metrics.Middleware)
	rootRouter.Use(platformlogging.RequestLogger(logger))
	rootRouter.Use(stepUpIssuer.Middleware())

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Method(http.MethodGet, "/metrics", metrics.Handler())

	// WebSocket connections outlive the request timeout; everything else is bounded.
	rootRouter.Get("/ws/inquiries", notifier.Handler(logger))

	rootRouter.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		companyHTTPHandler.Mount(r)
		userHTTPHandler.Mount(r)
		ticketHTTPHandler.Mount(r)
		inquiryHTTPHandler.Mount(r)
		dashboardHTTPHandler.Mount(r)
		activitiesHTTPHandler.Mount(r)
		stepUpHTTPHandler.Mount(r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting admin api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
