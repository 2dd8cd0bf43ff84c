package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	earnerservice "attestry/internal/earner/service"
	earnerstore "attestry/internal/earner/store"
	"attestry/internal/gate"
	issuanceservice "attestry/internal/issuance/service"
	issuancestore "attestry/internal/issuance/store"
	issuerservice "attestry/internal/issuer/service"
	issuerstore "attestry/internal/issuer/store"
	jwttoken "attestry/internal/jwt_token"
	"attestry/internal/ledger"
	"attestry/internal/platform/config"
	"attestry/internal/platform/httpserver"
	"attestry/internal/platform/logger"
	"attestry/internal/platform/metrics"
	platformredis "attestry/internal/platform/redis"
	"attestry/internal/roles"
	rolesmemory "attestry/internal/roles/store/memory"
	rolesredis "attestry/internal/roles/store/redis"
	httptransport "attestry/internal/transport/http"
	"attestry/pkg/domain"
	audit "attestry/pkg/platform/audit"
	auditkafka "attestry/pkg/platform/audit/kafka"
	auditmemory "attestry/pkg/platform/audit/store/memory"
	auditpostgres "attestry/pkg/platform/audit/store/postgres"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Role store: Redis when configured, in-process otherwise.
	var roleStore roles.Store = rolesmemory.New()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		roleStore = rolesredis.New(redisClient.Client)
	}

	// Audit store: Postgres outbox when configured, in-memory otherwise.
	var auditStore audit.Store = auditmemory.New()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		auditStore = auditpostgres.New(db)
	}

	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to connect kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	inbox := make(chan audit.Event, 256)
	publisher := audit.NewAsyncPublisher(inbox, log)
	worker := audit.NewWorker(auditStore, inbox, log, sink)

	registry := roles.New(roleStore, roles.WithLogger(log))
	for _, raw := range cfg.BootstrapAdmins {
		id, err := domain.ParseIdentityID(raw)
		if err != nil {
			log.Error("invalid bootstrap admin id", "id", raw, "error", err)
			os.Exit(1)
		}
		if err := registry.Grant(ctx, id, domain.RoleAdmin); err != nil {
			log.Warn("bootstrap admin grant skipped", "id", raw, "error", err)
		}
	}

	certLedger := ledger.NewInMemory()
	certLedger.InstallGuard(ledger.Soulbound)
	g := gate.New(registry)
	m := metrics.New()

	issuers := issuerservice.New(g, registry, issuerstore.NewInMemory(), certLedger,
		issuerservice.WithLogger(log),
		issuerservice.WithAuditPublisher(publisher),
		issuerservice.WithMetrics(m),
	)

	earnerOpts := []earnerservice.Option{
		earnerservice.WithLogger(log),
		earnerservice.WithAuditPublisher(publisher),
		earnerservice.WithMetrics(m),
	}
	if cfg.WelcomeCert {
		earnerOpts = append(earnerOpts, earnerservice.WithWelcomeCertificate(domain.ContentHash(cfg.WelcomeHash)))
	}
	earners := earnerservice.New(g, registry, earnerstore.NewInMemory(), certLedger, earnerOpts...)

	certificates := issuanceservice.New(g, registry, certLedger, issuancestore.NewIndexStore(),
		issuanceservice.WithLogger(log),
		issuanceservice.WithAuditPublisher(publisher),
		issuanceservice.WithMetrics(m),
	)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httptransport.NewRouter(log, m,
		httptransport.NewIssuerHandler(issuers, log, jwtService, cfg.AdminTokenHash),
		httptransport.NewEarnerHandler(earners, log, jwtService),
		httptransport.NewCertificateHandler(certificates, log, jwtService),
		httptransport.NewInfoHandler(issuers, earners, registry),
	)

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting attestry registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("registry stopped", "error", err)
		os.Exit(1)
	}
	log.Info("registry stopped")
}
