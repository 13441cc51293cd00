package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/adapter/archive"
	postgresRepo "github.com/iho/bookkeeper/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bookkeeper/internal/adapter/repository/redis"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/lock"
	"github.com/iho/bookkeeper/internal/infrastructure/logger"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/infrastructure/redis"
	"github.com/iho/bookkeeper/internal/usecase"
)

// services is everything the commands call into.
type services struct {
	currencies *usecase.CurrencyUseCase
	accounts   *usecase.AccountUseCase
	journal    *usecase.TransactionUseCase
	trading    *usecase.TradingUseCase
	ledger     *usecase.LedgerUseCase
	retention  *usecase.FXRetentionUseCase
	locker     usecase.Locker
	precision  domain.Precision
	metrics    prometheus.Gatherer
}

// servicesFactory builds services and returns a function releasing their
// connections.
type servicesFactory func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*services, func(), error)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	cfg *config.Config
	log zerolog.Logger

	factory servicesFactory
	svc     *services
	cleanup func()
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		stdout:  stdout,
		stderr:  stderr,
		log:     zerolog.Nop(),
		factory: newServices,
	}
}

func (c *cli) init() error {
	if c.cfg != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	c.log = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: c.stderr})
	return nil
}

func (c *cli) services(ctx context.Context) (*services, error) {
	if c.svc != nil {
		return c.svc, nil
	}

	svc, cleanup, err := c.factory(ctx, c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	c.cleanup = cleanup
	return svc, nil
}

func (c *cli) close() {
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
}

// newServices wires Postgres, optional Redis and the use cases.
func newServices(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*services, func(), error) {
	precision, err := cfg.Precision()
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.RatePolicy()
	if err != nil {
		return nil, nil, err
	}
	mode, err := domain.ParseRetentionMode(cfg.FXAuditMode)
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Msg("connected to postgres")

	cleanup := []func(){pool.Close}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	var (
		snapshots usecase.SnapshotStore = usecase.NopSnapshotStore{}
		locker    usecase.Locker        = lock.NewKeyedMutex()
	)
	if cfg.RedisEnabled {
		var client *goredis.Client
		client, err = redis.NewClient(ctx, cfg.RedisURL, cfg.DatabaseTimeout)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		cleanup = append(cleanup, func() { _ = client.Close() })
		log.Debug().Msg("connected to redis")

		snapshots = redisRepo.NewSnapshotStore(client, cfg.BalanceSnapshotTTL)
		locker = redisRepo.NewLockManager(client, cfg.LockTTL)
	}

	var sink usecase.ArchiveSink
	if mode == domain.RetentionArchive {
		switch cfg.FXArchiveSink {
		case config.ArchiveSinkS3:
			sink, err = archive.NewS3SinkFromEnv(ctx, cfg.FXArchiveBucket, cfg.FXArchivePrefix)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
		default:
			sink = postgresRepo.NewArchiveRepository(pool)
		}
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	clock := usecase.SystemClock{}
	retrier := postgresRepo.NewRetrier(postgresRepo.DefaultRetrierConfig(), log)
	idGen := postgresRepo.NewULIDGenerator()

	txManager := postgresRepo.NewTxManager(pool)
	currencyRepo := postgresRepo.NewCurrencyRepository(pool, precision)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool, precision)
	auditRepo := postgresRepo.NewFXAuditRepository(pool)

	var balances usecase.BalanceService = usecase.NewDirectBalanceService(journalRepo, recorder)
	if cfg.BalanceCacheEnabled {
		balances = usecase.NewCachingBalanceService(journalRepo, snapshots, recorder, log)
	}

	svc := &services{
		currencies: usecase.NewCurrencyUseCase(currencyRepo, auditRepo, locker, postgresRepo.NewRateStateRepository(pool), policy, clock, recorder, log),
		accounts:   usecase.NewAccountUseCase(accountRepo, currencyRepo, idGen, clock),
		journal: usecase.NewTransactionUseCase(txManager, journalRepo, accountRepo, currencyRepo, balances,
			retrier, idGen, clock, precision, recorder, log),
		trading: usecase.NewTradingUseCase(journalRepo, currencyRepo, precision, clock),
		ledger:  usecase.NewLedgerUseCase(journalRepo, precision),
		retention: usecase.NewFXRetentionUseCase(txManager, auditRepo, sink, retrier, clock, usecase.RetentionConfig{
			RetentionDays: cfg.FXAuditRetentionDays,
			BatchSize:     cfg.FXAuditBatchSize,
			Mode:          mode,
		}, recorder, log),
		locker:    locker,
		precision: precision,
		metrics:   registry,
	}

	return svc, closeAll, nil
}
