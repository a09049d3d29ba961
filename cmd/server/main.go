// Command server runs the document verification service. main wires the
// platform pieces (config, logging, stores, vendor backend) into the verify
// domain and keeps the server lifecycle small; business logic lives in the
// internal packages.
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

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	platformconfig "docauth/internal/platform/config"
	"docauth/internal/platform/httpserver"
	"docauth/internal/platform/kafka/producer"
	"docauth/internal/platform/logger"
	platformredis "docauth/internal/platform/redis"
	"docauth/internal/verify/archive"
	verifyconfig "docauth/internal/verify/config"
	"docauth/internal/verify/dedup"
	"docauth/internal/verify/funnel"
	"docauth/internal/verify/handler"
	"docauth/internal/verify/metrics"
	"docauth/internal/verify/ports"
	"docauth/internal/verify/service"
	"docauth/internal/verify/session"
	dedupstore "docauth/internal/verify/store/dedup"
	throttlestore "docauth/internal/verify/store/throttle"
	"docauth/internal/verify/throttle"
	"docauth/internal/verify/vendorpkg"
	"docauth/internal/verify/vendorpkg/fixture"
	"docauth/internal/verify/vendorpkg/template"
	"docauth/internal/verify/vendorpkg/veriscan"
	"docauth/pkg/platform/middleware/metadata"
	"docauth/pkg/platform/middleware/requestid"
	"docauth/pkg/platform/middleware/requesttime"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := platformconfig.FromEnv()
	domainCfg := verifyconfig.Default()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
	}

	throttleSvc, err := throttle.New(newThrottleStore(pool, redisClient), domainCfg.Throttle,
		throttle.WithLogger(log))
	if err != nil {
		return fmt.Errorf("throttle: %w", err)
	}

	tracker, err := dedup.New(newDedupStore(redisClient), domainCfg.SessionTTL,
		dedup.WithLogger(log),
		dedup.WithEnabled(domainCfg.Features.TrackFailedImages))
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}

	sessions, err := session.New(cfg.SessionSigningKey, domainCfg.SessionTTL,
		newResultStore(redisClient), session.WithLogger(log))
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}

	meters := metrics.New()
	dispatcher, err := newDispatcher(cfg.Vendor, log, meters)
	if err != nil {
		return fmt.Errorf("vendor backend: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(meters),
	}
	if archiver := newArchiver(cfg.ArchiveDir, log); archiver != nil {
		opts = append(opts, service.WithArchiver(archiver))
	}
	var kafkaProducer *producer.Producer
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err = producer.New(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		defer kafkaProducer.Close()
		recorder := funnel.New(&kafkaPublisher{producer: kafkaProducer},
			funnel.WithLogger(log), funnel.WithTopic(cfg.Kafka.FunnelTopic))
		opts = append(opts, service.WithFunnelRecorder(recorder))
	}

	orchestrator, err := service.New(dispatcher, throttleSvc, tracker, sessions, domainCfg, opts...)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	router := chi.NewRouter()
	router.Use(requestid.Middleware, requesttime.Middleware, metadata.ClientMetadata)
	handler.New(orchestrator, sessions, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting docauth server",
			"addr", cfg.Addr,
			"vendor_backend", cfg.Vendor.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return group.Wait()
}

// newThrottleStore prefers the transactional Postgres counter, then Redis,
// then process memory.
func newThrottleStore(pool *pgxpool.Pool, redisClient *platformredis.Client) ports.ThrottleStore {
	if pool != nil {
		return throttlestore.NewPostgres(pool)
	}
	if redisClient != nil {
		return throttlestore.NewRedis(redisClient.Client)
	}
	return throttlestore.NewInMemory()
}

func newDedupStore(redisClient *platformredis.Client) ports.DedupStore {
	if redisClient != nil {
		return dedupstore.NewRedis(redisClient.Client)
	}
	return dedupstore.NewInMemory()
}

func newResultStore(redisClient *platformredis.Client) session.ResultStore {
	if redisClient != nil {
		return session.NewRedisResults(redisClient.Client)
	}
	return session.NewInMemoryResults()
}

// newDispatcher selects the vendor backend. Anything other than "live"
// serves canned responses and never leaves the process.
func newDispatcher(cfg platformconfig.VendorConfig, log *slog.Logger, meters *metrics.Metrics) (vendor.Dispatcher, error) {
	switch cfg.Backend {
	case "live":
		return veriscan.New(cfg, veriscan.WithLogger(log), veriscan.WithMetrics(meters))
	case "fixture":
		return fixture.New(), nil
	case "template":
		return template.NewBackend(template.NewBuilder())
	default:
		return nil, fmt.Errorf("unknown vendor backend %q", cfg.Backend)
	}
}

func newArchiver(dir string, log *slog.Logger) ports.ImageArchiver {
	if dir == "" {
		return nil
	}
	blobs, err := archive.NewDirBlobStore(dir)
	if err != nil {
		log.Warn("image archival disabled", "error", err)
		return nil
	}
	archiver, err := archive.New(blobs, archive.WithLogger(log))
	if err != nil {
		log.Warn("image archival disabled", "error", err)
		return nil
	}
	return archiver
}

// kafkaPublisher adapts the platform producer to the funnel package's
// publisher interface.
type kafkaPublisher struct {
	producer *producer.Producer
}

func (p *kafkaPublisher) ProduceAsync(ctx context.Context, msg *funnel.Message) {
	p.producer.ProduceAsync(ctx, &producer.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
	})
}
