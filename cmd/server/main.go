// Command server runs the Atrium API: tenant administration, invitation
// lifecycle, authentication, rooms, and the employee roster, backed by
// Postgres with optional Redis and Kafka.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	authhandler "atrium/internal/auth/handler"
	authservice "atrium/internal/auth/service"
	"atrium/internal/auth/store/revocation"
	"atrium/internal/auth/token"
	"atrium/internal/directory"
	employeehandler "atrium/internal/employee/handler"
	employeeservice "atrium/internal/employee/service"
	httpapi "atrium/internal/http"
	invitationhandler "atrium/internal/invitation/handler"
	invmetrics "atrium/internal/invitation/metrics"
	invitationservice "atrium/internal/invitation/service"
	delegationstore "atrium/internal/invitation/store/delegation"
	invitationstore "atrium/internal/invitation/store/invitation"
	profilestore "atrium/internal/invitation/store/profile"
	"atrium/internal/notify"
	"atrium/internal/platform/config"
	"atrium/internal/platform/httpserver"
	"atrium/internal/platform/logger"
	platformmetrics "atrium/internal/platform/metrics"
	"atrium/internal/platform/postgres"
	platformredis "atrium/internal/platform/redis"
	roomhandler "atrium/internal/room/handler"
	roomservice "atrium/internal/room/service"
	roomstore "atrium/internal/room/store/room"
	tenanthandler "atrium/internal/tenant/handler"
	tenantmetrics "atrium/internal/tenant/metrics"
	tenantservice "atrium/internal/tenant/service"
	tenantstore "atrium/internal/tenant/store/tenant"
	"atrium/pkg/platform/audit/publisher"
	"atrium/pkg/platform/audit/relay"
	auditpostgres "atrium/pkg/platform/audit/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	// database/sql handle for the stores built on it (rooms, revocation
	// list fallback, audit outbox).
	db, err := postgres.OpenSQL(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open sql: %w", err)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Principal revocation list: Redis when configured, Postgres otherwise.
	var revocations revocation.List
	if redisClient != nil {
		revocations = revocation.NewRedis(redisClient.Client)
		log.Info("revocation list backed by redis")
	} else {
		revocations = revocation.NewPostgres(db)
		log.Info("revocation list backed by postgres")
	}

	auditStore := auditpostgres.New(db)
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	var dispatcher notify.Dispatcher
	if cfg.Email.ResendAPIKey != "" {
		dispatcher = notify.NewResend(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.HTTP.BaseURL, log,
			notify.WithHTTPClient(&http.Client{Timeout: cfg.Email.SendTimeout}))
	} else {
		dispatcher = notify.NewLogging(log)
		log.Warn("no email API key configured, invitations are logged instead of sent")
	}

	tenants := tenantstore.NewPostgres(pool)
	invitations := invitationstore.NewPostgres(pool)
	delegations := delegationstore.NewPostgres(pool)
	profiles := profilestore.NewPostgres(pool)
	principals := directory.NewPostgres(pool)
	rooms := roomstore.NewPostgres(db)

	tokens := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.TokenTTL)
	sessionRevoker := revocation.NewRevoker(revocations, cfg.Auth.TokenTTL)

	tenantSvc := tenantservice.New(tenants,
		tenantservice.WithLogger(log),
		tenantservice.WithAuditPublisher(auditPublisher),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)
	invitationSvc := invitationservice.New(invitations, delegations, profiles, principals, dispatcher, tenants,
		invitationservice.WithLogger(log),
		invitationservice.WithAuditPublisher(auditPublisher),
		invitationservice.WithMetrics(invmetrics.New()),
		invitationservice.WithSessionRevoker(sessionRevoker),
		invitationservice.WithInvitationTTL(cfg.Invitation.TTL),
	)
	authSvc := authservice.New(principals, delegations, profiles, tokens,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithSystemAdmins(cfg.Auth.SystemAdminEmails),
	)
	roomSvc := roomservice.New(rooms, roomservice.WithLogger(log))
	employeeSvc := employeeservice.New(delegations, profiles, invitationSvc,
		employeeservice.WithLogger(log))

	router := httpapi.New(httpapi.Deps{
		Logger:         log,
		Metrics:        platformmetrics.New(),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		TokenValidator: tokens,
		Revocations:    revocations,
		Auth:           authhandler.New(authSvc, log),
		Invitations:    invitationhandler.New(invitationSvc, log),
		Tenants:        tenanthandler.New(tenantSvc, log),
		Rooms:          roomhandler.New(roomSvc, log),
		Employees:      employeehandler.New(employeeSvc, log),
	})

	srv := httpserver.New(cfg.HTTP, router)

	group, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Brokers...),
			kgo.DefaultProduceTopic(relay.Topic),
		)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaClient.Close()

		if err := relay.EnsureTopic(ctx, kafkaClient, 3, 1); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		auditRelay := relay.New(auditStore, kafkaClient, log,
			relay.WithBatchSize(cfg.Kafka.BatchSize),
			relay.WithPollInterval(cfg.Kafka.PollInterval),
		)
		group.Go(func() error {
			if err := auditRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit relay: %w", err)
			}
			return nil
		})
		log.Info("audit relay started", "brokers", cfg.Kafka.Brokers)
	} else {
		log.Info("no kafka brokers configured, audit events stay in the outbox")
	}

	group.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return httpserver.Shutdown(context.Background(), srv, cfg.HTTP)
	})

	return group.Wait()
}
