package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/auth"
	"github.com/vladislavdragonenkov/gramseva/internal/booking"
	"github.com/vladislavdragonenkov/gramseva/internal/catalog"
	healthcheck "github.com/vladislavdragonenkov/gramseva/internal/health"
	"github.com/vladislavdragonenkov/gramseva/internal/httpapi"
	"github.com/vladislavdragonenkov/gramseva/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/gramseva/internal/metrics"
	"github.com/vladislavdragonenkov/gramseva/internal/service/idempotency"
	"github.com/vladislavdragonenkov/gramseva/internal/service/outbox"
	"github.com/vladislavdragonenkov/gramseva/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run собирает зависимости и запускает HTTP API вместе с сервером метрик
// и фоновыми воркерами. Блокируется до отмены ctx или ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	cat, err := catalog.New()
	if err != nil {
		return err
	}

	// Kafka опционален: без брокеров события копятся в outbox.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafkaProducer(kafkaProducer, logger)

	authSvc := auth.NewService(deps.users)
	bookingSvc := booking.NewService(
		deps.bookings,
		cat,
		deps.timeline,
		deps.outbox,
		logger.WithField("component", "booking-service"),
	)

	server := httpapi.NewServer(
		httpapi.Dependencies{
			Catalog:     cat,
			Auth:        authSvc,
			Bookings:    bookingSvc,
			Contacts:    deps.contacts,
			Idempotency: deps.idempotency,
		},
		httpapi.WithLogger(logger.WithField("component", "http-api")),
		httpapi.WithCheckoutMetrics(metrics.NewCheckoutMetrics()),
		httpapi.WithHTTPMetrics(metrics.NewHTTPMetrics()),
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	workersDone := startWorkers(workerCtx, cfg, deps, kafkaProducer, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		stopWorkers()
		waitWorkers(workersDone, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		stopWorkers()
		waitWorkers(workersDone, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startWorkers запускает фоновые воркеры: публикацию outbox и consumer
// уведомлений (только при наличии Kafka), очистку просроченных
// idempotency-ключей.
func startWorkers(
	ctx context.Context,
	cfg Config,
	deps *runtimeDependencies,
	kafkaProducer *kafka.Producer,
	logger *log.Entry,
) []<-chan struct{} {
	var done []<-chan struct{}

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicBookingEvents)
		dlq := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(
			deps.outbox,
			publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlq),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)

		workerDone := make(chan struct{})
		go func() {
			defer close(workerDone)
			worker.Run(ctx)
		}()
		done = append(done, workerDone)

		notifierDone, err := initBookingNotifier(ctx, cfg, kafkaProducer, logger)
		if err != nil {
			logger.WithError(err).Warn("booking notifications disabled")
		} else if notifierDone != nil {
			done = append(done, notifierDone)
		}
	}

	cleaner := idempotency.NewCleanupWorker(
		deps.idempotency,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	cleanerDone := make(chan struct{})
	go func() {
		defer close(cleanerDone)
		cleaner.Run(ctx)
	}()
	done = append(done, cleanerDone)

	return done
}

// waitWorkers дожидается остановки воркеров с общим таймаутом.
func waitWorkers(done []<-chan struct{}, logger *log.Entry) {
	deadline := time.After(shutdownTimeout)
	for _, ch := range done {
		select {
		case <-ch:
		case <-deadline:
			logger.Warn("workers did not stop before timeout")
			return
		}
	}
}

// startMetricsServer запускает HTTP-обработчики метрик и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
