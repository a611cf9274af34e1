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
	"time"

	"github.com/joho/godotenv"

	"github.com/bibbank/collections-service/internal/application/usecase"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/service"
	"github.com/bibbank/collections-service/internal/infrastructure/adapter"
	"github.com/bibbank/collections-service/internal/infrastructure/config"
	infrakafka "github.com/bibbank/collections-service/internal/infrastructure/kafka"
	"github.com/bibbank/collections-service/internal/infrastructure/postgres"
	"github.com/bibbank/collections-service/internal/infrastructure/redis"
	"github.com/bibbank/collections-service/internal/infrastructure/report"
	"github.com/bibbank/collections-service/internal/infrastructure/storage"
	grpcPresentation "github.com/bibbank/collections-service/internal/presentation/grpc"
	"github.com/bibbank/collections-service/internal/presentation/rest"
	"github.com/bibbank/collections-service/pkg/auth"
	"github.com/bibbank/collections-service/pkg/events"
	pkgkafka "github.com/bibbank/collections-service/pkg/kafka"
	"github.com/bibbank/collections-service/pkg/observability"
	pgutil "github.com/bibbank/collections-service/pkg/postgres"
	"github.com/bibbank/collections-service/pkg/tlsutil"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.Telemetry.LogLevel,
		Format:      cfg.Telemetry.LogFormat,
		ServiceName: cfg.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("collections-service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("collections-service stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("starting collections-service",
		"grpc_port", cfg.GRPCPort,
		"http_port", cfg.HTTPPort,
	)

	// --- Telemetry ----------------------------------------------------------
	tp, shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.WithoutCancel(ctx)) }() //nolint:errcheck // best-effort flush

	mp, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
		Namespace:   "bib",
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = mp.Shutdown(context.WithoutCancel(ctx)) }() //nolint:errcheck

	telemetry, err := usecase.NewTelemetry(tp, mp)
	if err != nil {
		return fmt.Errorf("init instruments: %w", err)
	}

	// --- Database -----------------------------------------------------------
	dbCfg := pgutil.Config{
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		Database:        cfg.DB.Name,
		SSLMode:         cfg.DB.SSLMode,
		ApplicationName: cfg.ServiceName,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
	}
	status, err := pgutil.RunMigrations(dbCfg.DSN(), postgres.Migrations, postgres.MigrationsDir)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database migrated", "version", status.Version)

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := pgutil.NewPool(dbCtx, dbCfg)
	dbCancel()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// --- Redis --------------------------------------------------------------
	redisClient, err := redis.NewClient(ctx, redis.ConnectionInfo{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }() //nolint:errcheck
	locker := redis.NewCaseLocker(redisClient, redis.LockerOptions{
		Prefix: cfg.Redis.KeyPrefix,
		TTL:    cfg.Redis.LockTTL,
	})

	// --- Collaborators ------------------------------------------------------
	ledger, closeLedger, err := newLedgerClient(cfg.Ledger, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	reports, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKey,
		SecretAccessKey: cfg.Storage.SecretKey,
		Bucket:          cfg.Storage.Bucket,
		UseSSL:          cfg.Storage.UseSSL,
		Region:          cfg.Storage.Region,
		Prefix:          cfg.Storage.Prefix,
	})
	if err != nil {
		return fmt.Errorf("init report storage: %w", err)
	}
	if err := reports.EnsureBucket(ctx, cfg.Storage.Region); err != nil {
		logger.Warn("report bucket unavailable, exports will fail until it exists", "error", err)
	}

	// --- Use cases ----------------------------------------------------------
	uow := postgres.NewUnitOfWork(pool)
	useCases := grpcPresentation.UseCases{
		OpenCase:        usecase.NewOpenCaseUseCase(uow, locker, telemetry, logger),
		GetCase:         usecase.NewGetCaseUseCase(uow),
		ListCases:       usecase.NewListCasesUseCase(uow),
		RecordAction:    usecase.NewRecordActionUseCase(uow, locker, telemetry, logger),
		Cases:           usecase.NewCaseCommands(uow, locker, ledger, telemetry, logger),
		Promises:        usecase.NewPromiseCommands(uow, locker, telemetry, logger),
		Strategies:      usecase.NewStrategyCommands(uow, locker, telemetry, logger),
		Evaluate:        usecase.NewEvaluateStrategiesUseCase(uow, service.NewStrategyMatcher(), telemetry, logger),
		RecordExecution: usecase.NewRecordExecutionUseCase(uow, locker, telemetry, logger),
		Settlements:     usecase.NewSettlementCommands(uow, locker, ledger, telemetry, logger),
		Legal:           usecase.NewLegalCommands(uow, locker, ledger, telemetry, logger),
		WriteOffs:       usecase.NewWriteOffCommands(uow, locker, ledger, telemetry, logger),
		Export:          usecase.NewExportPortfolioUseCase(uow, report.NewPortfolioRenderer(), reports, telemetry, logger),
	}

	// --- Kafka --------------------------------------------------------------
	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ClientID:      cfg.ServiceName,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		SASLEnabled:   cfg.Kafka.SASLMechanism != "",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
		TLS:           cfg.Kafka.TLS,
	}
	producer, err := pkgkafka.NewProducer(kafkaCfg)
	if err != nil {
		return fmt.Errorf("init kafka producer: %w", err)
	}
	defer func() { _ = producer.Close() }() //nolint:errcheck

	feed := infrakafka.NewLedgerFeed(usecase.NewApplyLedgerEventUseCase(uow, locker, telemetry, logger), logger)
	consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.LedgerTopic, feed.Handle, pkgkafka.ConsumerOptions{}, logger)
	if err != nil {
		return fmt.Errorf("init ledger consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }() //nolint:errcheck

	relay := events.NewRelay(
		postgres.NewOutboxRepository(pool),
		infrakafka.NewOutboxPublisher(producer, cfg.Kafka.OutboxTopic, logger),
		events.RelayConfig{Interval: cfg.Outbox.Interval, BatchSize: cfg.Outbox.BatchSize},
		logger,
	)

	// --- Servers ------------------------------------------------------------
	jwtSvc, err := newJWTService(cfg.Auth)
	if err != nil {
		return err
	}
	grpcServer, err := grpcPresentation.NewServer(
		grpcPresentation.NewCollectionsHandler(useCases, logger),
		jwtSvc,
		grpcPresentation.ServerOptions{
			TLS: tlsutil.ServerConfig{
				CertFile:     cfg.GRPCTLS.CertFile,
				KeyFile:      cfg.GRPCTLS.KeyFile,
				ClientCAFile: cfg.GRPCTLS.ClientCAFile,
			},
			Reflection: cfg.GRPCReflection,
			Policy:     grpcPresentation.MethodPolicy(),
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("init gRPC server: %w", err)
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: rest.NewRouter(rest.RouterConfig{
			ServiceName: cfg.ServiceName,
			CORSOrigins: cfg.CORSOrigins,
			Checks: map[string]rest.Checker{
				"postgres": func(ctx context.Context) error { return pgutil.HealthCheck(ctx, pool) },
				"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			},
			Metrics: metricsHandler,
			Reports: reports,
			JWT:     jwtSvc,
			Logger:  logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 4)
	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("ledger consumer: %w", err)
		}
	}()
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("outbox relay: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownGrace)
	defer shutdownCancel()
	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}
	return runErr
}

// newLedgerClient dials the lending service, or falls back to the stub
// when no address is configured.
func newLedgerClient(cfg config.LedgerConfig, logger *slog.Logger) (port.LoanLedgerClient, func(), error) {
	if cfg.Addr == "" {
		logger.Warn("LEDGER_GRPC_ADDR not set, using stub loan ledger")
		return adapter.NewStubLedgerClient(logger), func() {}, nil
	}

	clientCfg := adapter.LedgerClientConfig{Addr: cfg.Addr, Timeout: cfg.Timeout}
	if cfg.CAFile != "" {
		creds, err := tlsutil.ClientCredentials(tlsutil.ClientConfig{
			CAFile:   cfg.CAFile,
			CertFile: cfg.CertFile,
			KeyFile:  cfg.KeyFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("ledger TLS: %w", err)
		}
		clientCfg.Creds = creds
	}
	client, err := adapter.NewGRPCLedgerClient(clientCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("dial ledger: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// newJWTService prefers an RS256 public key and falls back to the shared
// HS256 secret.
func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.Issuer, Secret: cfg.JWTSecret}
	if cfg.PublicKeyFile != "" {
		key, err := auth.LoadKeyFromFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(key)
	}
	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("init JWT service: %w", err)
	}
	return svc, nil
}
