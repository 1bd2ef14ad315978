package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_ussd/internal/audit"
	"github.com/fjod/go_ussd/internal/catalog"
	"github.com/fjod/go_ussd/internal/config"
	"github.com/fjod/go_ussd/internal/flow"
	h "github.com/fjod/go_ussd/internal/http"
	"github.com/fjod/go_ussd/internal/logger"
	"github.com/fjod/go_ussd/internal/notify"
	"github.com/fjod/go_ussd/internal/order"
	"github.com/fjod/go_ussd/internal/payment"
	"github.com/fjod/go_ussd/internal/pricing"
	"github.com/fjod/go_ussd/internal/publisher"
	"github.com/fjod/go_ussd/internal/repository"
	"github.com/fjod/go_ussd/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "ussd-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("ussd service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Msg("ussd service starting...")
	var wg sync.WaitGroup

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(ctx, cfg.CatalogSource, cfg.CatalogMigrationsPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info().Int("vendors", len(cat.Vendors())).Str("source", cfg.CatalogSource).Msg("catalog loaded")

	// Sessions
	var (
		store  session.Store
		locker session.Locker
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
		locker = session.NewRedisLocker(rdb, cfg.LockTTL())
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis session store")
	} else {
		mem := session.NewMemoryStore(cfg.SessionTTL)
		defer mem.Close()
		store = mem
		locker = session.NewMemoryLocker()
		log.Info().Msg("using in-memory session store")
	}

	// Orders
	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	var (
		orders  repository.OrderRepository = repository.NoopOrderRepository{}
		lister  order.OrderLister
		pinger  h.Pinger
		outbox  *publisher.OutboxPoller
		brokers = cfg.Brokers()
	)
	if creds.Enabled() {
		repo, err := repository.NewRepository(creds)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer repo.Close()
		if err := repo.RunMigrations(creds); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("database migrations completed")
		orders, lister, pinger = repo, repo, repo

		if len(brokers) > 0 {
			outbox = publisher.NewOutboxPoller(repo, cfg.OrdersTopic, log, brokers...)
		}
	} else {
		log.Warn().Msg("order database not configured, orders are not persisted")
	}

	// Audit
	var turnLogs repository.TurnLogRepository = repository.NoopTurnLogRepository{}
	if cfg.MongoURI != "" {
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return err
		}
		turnLogs = repository.NewMongoTurnLogRepository(db, cfg.TurnLogCollection)
		if err := turnLogs.CreateIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to create turn log indexes")
		}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = turnLogs.Close(closeCtx)
	}()
	auditLog := audit.NewTurnLogger(turnLogs, cfg.AuditQueueSize, cfg.AuditTimeout, log)

	// Collaborators
	smsCfg := notify.Config{APIKey: cfg.BulkSMSAPIKey, SenderID: cfg.BulkSMSSenderID, URL: cfg.BulkSMSURL}
	var sms notify.Notifier = notify.NewNoop(log)
	if smsCfg.Enabled() {
		sms = notify.NewBulkSMS(smsCfg, log)
	}

	payCfg := payment.Config{URL: cfg.PaymentAPIURL, APIKey: cfg.PaymentAPIKey, MaxAttempts: cfg.PaymentMaxAttempts}
	var payments payment.Payments
	if payCfg.Enabled() {
		payments = payment.NewClient(payCfg, log)
	} else {
		log.Info().Msg("payment gateway not configured, customers pay at the shortcode")
	}

	engine := pricing.New(cat)
	emitter := order.NewEmitter(orders, sms, engine, order.Config{
		Brand:            cfg.Brand,
		PaymentShortcode: cfg.PaymentShortcode,
		StoreTimeout:     cfg.StoreTimeout,
		SMSTimeout:       cfg.SMSTimeout,
	}, log)
	history := order.NewHistory(lister, cfg.StoreTimeout, log)

	opts := flow.DefaultOptions()
	opts.Brand = cfg.Brand
	opts.SupportPhone = cfg.SupportPhone
	opts.PaymentShortcode = cfg.PaymentShortcode
	opts.DiscountPrompt = cfg.DiscountPrompt
	opts.DeliveryNotePrompt = cfg.DeliveryNotePrompt
	opts.ReplayWindow = cfg.ReplayWindow
	opts.PaymentTimeout = cfg.PaymentTimeout
	ctrl := flow.NewController(cat, engine, emitter, history, payments, opts, log)

	// Outbox
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	defer pollerCancel()
	if outbox != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outbox.Run(pollerCtx)
		}()
		log.Info().Strs("brokers", brokers).Str("topic", cfg.OrdersTopic).Msg("outbox poller started")
	}

	// HTTP
	var limiter h.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = h.NewSubscriberRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	turns := h.NewTurnHandler(store, locker, ctrl, auditLog, limiter, h.TurnConfig{
		MaxMessageLength: cfg.MaxMessageLength,
		Timeout:          cfg.RequestTimeout,
		SaveTimeout:      cfg.SessionSaveTimeout,
	}, log)
	router := h.NewRouter(turns, h.NewHealthHandler(pinger, 2*time.Second), cfg.RequestTimeout, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + cfg.SessionSaveTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health for the orchestrator
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("grpc health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	// Graceful shutdown
	log.Info().Msg("shutting down ussd service...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	grpcServer.GracefulStop()

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()
	select {
	case <-doneChan:
	case <-shutdownCtx.Done():
		log.Warn().Msg("outbox poller didn't stop in time")
	}

	if err := auditLog.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not fully drained")
	}

	log.Info().Msg("ussd service stopped")
	return serveErr
}
