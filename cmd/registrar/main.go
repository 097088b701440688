package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registrar/internal/backend"
	"registrar/internal/backend/inmem"
	"registrar/internal/backend/rest"
	"registrar/internal/domain"
	"registrar/internal/identity"
	"registrar/internal/payment"
	paymentstore "registrar/internal/payment/store"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/middleware"
	platformredis "registrar/internal/platform/redis"
	"registrar/internal/registration"
	"registrar/internal/registration/handler"
	"registrar/internal/session"
	"registrar/internal/verification"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	"registrar/pkg/platform/audit/sink/kafka"
	"registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/platform/audit/store/postgres"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/platform/middleware/operator"
	"registrar/pkg/platform/middleware/requesttime"
)

const (
	devEventID      = "dev-event"
	shutdownTimeout = 10 * time.Second
	breakerCooldown = 30 * time.Second
)

// remote is everything the registrar needs from a backend.
type remote interface {
	registration.Backend
	backend.Attendees
	backend.Payments
	backend.Verification
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("registrar exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	be, eventID, err := buildBackend(cfg, log, m)
	if err != nil {
		return err
	}

	appender, closeAudit, err := buildAudit(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	auditor := publisher.NewPublisher(appender,
		publisher.WithAsyncBuffer(cfg.AuditBuffer),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	rc, err := platformredis.New(ctx, cfg.Redis())
	if err != nil {
		return err
	}
	var txStore payment.Store = paymentstore.NewInMemoryStore()
	if rc != nil {
		defer rc.Close()
		txStore = paymentstore.NewRedisStore(rc.Client)
		log.Info("payment transactions stored in redis")
	}

	retry, err := cfg.RetrySchedule()
	if err != nil {
		return err
	}

	engine := payment.New(be,
		payment.WithStore(txStore),
		payment.WithLogger(log),
		payment.WithMetrics(m),
		payment.WithAuditor(auditor),
	)
	defer engine.Close()

	flow := verification.New(be,
		verification.WithLogger(log),
		verification.WithMetrics(m),
		verification.WithAuditor(auditor),
		verification.WithCooldown(cfg.OTPCooldown),
	)
	defer flow.Close()

	resolver := identity.New(be, identity.WithLogger(log), identity.WithAuditor(auditor))

	machine, err := registration.New(eventID, be, resolver, engine,
		registration.WithConfig(registration.Config{
			ReconcileInterval:      cfg.ReconcileInterval,
			PollInterval:           cfg.PaymentPollInterval,
			RetrySchedule:          payment.Bounded(retry),
			RequireVerifiedContact: cfg.RequireVerifiedContact,
		}),
		registration.WithVerifier(flow),
		registration.WithLogger(log),
		registration.WithMetrics(m),
		registration.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}
	if err := machine.Start(ctx); err != nil {
		return err
	}
	defer machine.Close()

	r := chi.NewRouter()
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(log))
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", operator.Header},
			ExposedHeaders: []string{"Retry-After", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Get("/healthz", healthz(rc))
	r.Handle("/metrics", promhttp.Handler())
	handler.New(machine, flow, log, operator.RequireOperatorToken(cfg.OperatorToken, log)).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	log.Info("starting registrar", "addr", cfg.Addr, "event_id", eventID, "dev_backend", cfg.UseDevBackend())
	err = httpserver.Serve(ctx, srv, shutdownTimeout)
	log.Info("registrar stopped")
	return err
}

func buildBackend(cfg *config.Config, log *slog.Logger, m *metrics.Metrics) (remote, string, error) {
	if cfg.UseDevBackend() {
		eventID := cfg.EventID
		if eventID == "" {
			eventID = devEventID
		}
		be := inmem.New()
		be.PutEvent(domain.Event{
			ID:               eventID,
			Name:             "Registrar Demo Night",
			TicketType:       domain.TicketPaid,
			Price:            domain.Money{Amount: 2500, Currency: "USD"},
			MaxAllowedPeople: 4,
			Visibility:       domain.VisibilityPublic,
		})
		log.Warn("using in-memory backend", "event_id", eventID)
		return be, eventID, nil
	}

	sess, err := session.Parse(cfg.BackendToken)
	if err != nil {
		log.Info("backend token is not a JWT, using it as an opaque bearer token")
		sess = session.Opaque(cfg.BackendToken)
	}
	client, err := rest.New(cfg.BackendURL, sess,
		rest.WithTimeout(cfg.BackendTimeout),
		rest.WithBreaker(circuit.New("backend"), breakerCooldown),
		rest.WithLogger(log),
		rest.WithObserver(m),
	)
	if err != nil {
		return nil, "", err
	}
	return client, cfg.EventID, nil
}

// buildAudit selects durable sinks when configured and falls back to memory.
func buildAudit(ctx context.Context, cfg *config.Config, log *slog.Logger) (audit.Appender, func(), error) {
	var (
		sinks   audit.Fanout
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		store := postgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, store)
		log.Info("audit events stored in postgres")
	}

	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		sink, err := kafka.New(brokers, cfg.AuditKafkaTopic)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("ensure audit topic failed", "topic", cfg.AuditKafkaTopic, "error", err)
		}
		closers = append(closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = sink.Close(closeCtx)
		})
		sinks = append(sinks, sink)
		log.Info("audit events published to kafka", "topic", cfg.AuditKafkaTopic)
	}

	if len(sinks) == 0 {
		return memory.NewInMemoryStore(), closeAll, nil
	}
	return sinks, closeAll, nil
}

func healthz(rc *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if rc != nil {
			if err := rc.Health(r.Context()); err != nil {
				status["status"], status["redis"] = "degraded", err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
