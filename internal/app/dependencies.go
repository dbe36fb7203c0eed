package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/gramseva/internal/health"
	"github.com/vladislavdragonenkov/gramseva/internal/storage/memory"
	"github.com/vladislavdragonenkov/gramseva/internal/storage/postgres"
)

const storagePingTimeout = 2 * time.Second

// runtimeDependencies собирает репозитории выбранного драйвера хранилища
// вместе с проверкой здоровья и функцией закрытия ресурсов.
type runtimeDependencies struct {
	users       domain.UserRepository
	bookings    domain.BookingRepository
	timeline    domain.TimelineRepository
	outbox      domain.OutboxRepository
	idempotency domain.IdempotencyRepository
	contacts    domain.ContactRepository

	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies инициализирует хранилище по конфигурации.
// Для postgres опционально прогоняет миграции до последней версии.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			users:       memory.NewUserRepository(),
			bookings:    memory.NewBookingRepository(),
			timeline:    memory.NewTimelineRepository(),
			outbox:      memory.NewOutboxRepository(),
			idempotency: memory.NewIdempotencyRepository(),
			contacts:    memory.NewContactRepository(),
		}, nil
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		logger.Info("using postgres storage")
		return &runtimeDependencies{
			users:          postgres.NewUserRepository(store),
			bookings:       postgres.NewBookingRepository(store),
			timeline:       postgres.NewTimelineRepository(store),
			outbox:         postgres.NewOutboxRepository(store),
			idempotency:    postgres.NewIdempotencyRepository(store),
			contacts:       postgres.NewContactRepository(store),
			storageChecker: healthcheck.NewPingChecker("storage", store, storagePingTimeout),
			closeFn:        store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// close освобождает ресурсы хранилища.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}
