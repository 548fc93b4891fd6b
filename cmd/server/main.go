package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"territorial/internal/account"
	accounthandler "territorial/internal/account/handler"
	"territorial/internal/account/lockout"
	lockoutstore "territorial/internal/account/lockout/store/redis"
	"territorial/internal/cascade"
	congregationstore "territorial/internal/congregation/store/mongo"
	"territorial/internal/counters"
	countersstore "territorial/internal/counters/store/mongo"
	"territorial/internal/events"
	httpapi "territorial/internal/http"
	identitystore "territorial/internal/identity/store/postgres"
	jwttoken "territorial/internal/jwt_token"
	"territorial/internal/notification"
	"territorial/internal/notification/gateway"
	"territorial/internal/notification/gateway/fcm"
	notificationhandler "territorial/internal/notification/handler"
	"territorial/internal/notification/overdue"
	notificationstore "territorial/internal/notification/store/mongo"
	"territorial/internal/outbox"
	"territorial/internal/platform/config"
	"territorial/internal/platform/httpserver"
	kafkaadmin "territorial/internal/platform/kafka/admin"
	"territorial/internal/platform/kafka/consumer"
	"territorial/internal/platform/kafka/producer"
	"territorial/internal/platform/logger"
	"territorial/internal/platform/metrics"
	"territorial/internal/platform/mongodb"
	"territorial/internal/platform/postgres"
	platformredis "territorial/internal/platform/redis"
	"territorial/internal/presence"
	presencehandler "territorial/internal/presence/handler"
	"territorial/internal/presence/realtime"
	profilestore "territorial/internal/profile/store/mongo"
	"territorial/internal/provisioning"
	provisioninghandler "territorial/internal/provisioning/handler"
	territoryhandler "territorial/internal/territory/handler"
	territorymetrics "territorial/internal/territory/metrics"
	territoryservice "territorial/internal/territory/service"
	territorystore "territorial/internal/territory/store/mongo"
	"territorial/pkg/platform/audit"
	auditstore "territorial/pkg/platform/audit/store/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "territorial: %v\n", err)
		os.Exit(1)
	}
}

// run wires the stores, services and workers and blocks until a signal
// arrives or one of the long running components fails.
func run() error {
	cfg := config.FromEnv()
	log, err := logger.New(cfg.Server.Environment)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	transactor := mongodb.NewTransactor(mongoClient, log)

	pg, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()
	if err := postgres.Migrate(ctx, pg); err != nil {
		return fmt.Errorf("migrate identities: %w", err)
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	profiles := profilestore.New(db)
	congregations := congregationstore.New(db)
	identities := identitystore.New(pg)
	territories := territorystore.New(db)
	counterStore := countersstore.New(db)
	inbox := notificationstore.New(db)
	outboxStore := outbox.NewMongoStore(db)

	counterSvc := counters.New(counterStore, transactor,
		counters.WithLogger(log),
		counters.WithMetrics(counters.NewMetrics()),
	)
	territorySvc := territoryservice.New(territories, profiles, counterSvc, outboxStore, transactor,
		territoryservice.WithLogger(log),
		territoryservice.WithMetrics(territorymetrics.New()),
		territoryservice.WithBatchSize(cfg.Cascade.BatchSize),
	)
	cascadeSvc := cascade.New(territories, counterSvc,
		cascade.WithLogger(log),
		cascade.WithMetrics(cascade.NewMetrics()),
		cascade.WithBatchSize(cfg.Cascade.BatchSize),
	)

	push, err := pushGateway(ctx, cfg.FCM, log)
	if err != nil {
		return err
	}
	notifySvc := notification.New(inbox, profiles, push,
		notification.WithLogger(log),
		notification.WithMetrics(notification.NewMetrics()),
		notification.WithConcurrency(cfg.FCM.Concurrency),
	)

	presenceStore := realtime.New(rdb.Client, cfg.Presence.LeaseTTL)
	presenceMetrics := presence.NewMetrics()

	trail := audit.NewRecorder(auditstore.New(pg), log)
	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	accountSvc := account.New(identities, profiles, congregations, outboxStore, transactor, tokens,
		account.WithLogger(log),
		account.WithAudit(trail),
		account.WithMetrics(account.NewMetrics()),
		account.WithPresence(presenceStore),
		account.WithInbox(inbox),
		account.WithTokenTTL(cfg.Server.TokenTTL),
		account.WithSignInGuard(lockout.New(lockoutstore.New(rdb.Client), lockout.WithLogger(log))),
	)
	provisioningSvc := provisioning.New(identities, congregations, profiles, log, provisioning.WithAudit(trail))

	router := events.NewRouter(log)
	counters.NewEventHandler(counterSvc, log).Register(router)
	cascadeSvc.Register(router)
	notification.NewEventHandler(notifySvc, counterStore, log).Register(router)

	g, gctx := errgroup.WithContext(ctx)

	var publisher outbox.Publisher = outbox.DispatchPublisher{Router: router}
	checks := map[string]httpapi.Check{
		"mongo":    func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		"postgres": pg.PingContext,
		"redis":    rdb.Health,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafkaadmin.EnsureTopics(ctx, cfg.Kafka.Brokers, cfg.Kafka.Partitions, cfg.Kafka.Replication, events.Topics...); err != nil {
			return fmt.Errorf("ensure topics: %w", err)
		}
		prod, err := producer.New(cfg.Kafka.Brokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer prod.Close()
		cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, events.Topics, router, log)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		publisher = prod
		checks["kafka"] = prod.Ping
		g.Go(func() error { return cons.Run(gctx) })
	} else {
		log.Warn("no kafka brokers configured, dispatching events in-process")
	}

	relay := outbox.NewRelay(outboxStore, publisher, log,
		outbox.WithInterval(cfg.Notification.OutboxPollEvery),
	)
	mirror := presence.NewMirror(profiles, log, presenceMetrics)
	presenceConsumer := presence.NewConsumer(rdb.Client, mirror, cfg.Presence.ConsumerGroup, cfg.Presence.ConsumerName, log,
		presence.WithConsumerMetrics(presenceMetrics),
		presence.WithClaimIdle(cfg.Presence.ClaimIdle),
	)
	if err := presenceConsumer.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("presence consumer group: %w", err)
	}
	reaper := presence.NewReaper(presenceStore, cfg.Presence.ReaperEvery, log, presenceMetrics)
	sweeper := overdue.New(territories, outboxStore, transactor, cfg.Notification.OverdueSweepEvery, log)

	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return presenceConsumer.Run(gctx) })
	g.Go(func() error { return reaper.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })

	accountRoutes := accounthandler.New(accountSvc, log)
	handler := httpapi.NewRouter(httpapi.Config{
		Logger:     log,
		Validator:  jwttoken.NewJWTServiceAdapter(tokens),
		AdminToken: cfg.Server.AdminAPIToken,
		Metrics:    metrics.New(),
		Checks:     checks,
		Public: []httpapi.Registrar{
			httpapi.RegistrarFunc(accountRoutes.RegisterPublic),
		},
		Operator: []httpapi.Registrar{
			provisioninghandler.New(provisioningSvc, log),
		},
		Authenticated: []httpapi.Registrar{
			territoryhandler.New(territorySvc, log),
			notificationhandler.New(notifySvc, log),
			presencehandler.New(presenceStore, log),
			accountRoutes,
		},
	})
	srv := httpserver.New(cfg.Server.Addr, handler)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pushGateway returns the FCM client when a project is configured and a
// logging gateway otherwise.
func pushGateway(ctx context.Context, cfg config.FCMConfig, log *zap.Logger) (gateway.Gateway, error) {
	if cfg.ProjectID == "" {
		log.Warn("no push project configured, notifications are logged only")
		return gateway.LogGateway{Logger: log}, nil
	}
	if cfg.CredentialsFile == "" {
		return fcm.New(http.DefaultClient, cfg.Endpoint, cfg.ProjectID, log), nil
	}
	client, err := fcm.NewFromCredentialsFile(ctx, cfg.CredentialsFile, cfg.Endpoint, cfg.ProjectID, log)
	if err != nil {
		return nil, fmt.Errorf("push gateway: %w", err)
	}
	return client, nil
}
