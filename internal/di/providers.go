package di

import (
	"context"
	"fmt"
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/domain/repository"
	domsvc "BiasEngine/internal/domain/service"
	"BiasEngine/internal/handler/api"
	mid "BiasEngine/internal/middleware"
	"BiasEngine/internal/registry"
	internalrepo "BiasEngine/internal/repository"
	"BiasEngine/internal/service/stream"
	"BiasEngine/internal/services/scoring"
	"BiasEngine/internal/usecase"
	"BiasEngine/pkg/cache"
	pkgch "BiasEngine/pkg/clickhouse"
	"BiasEngine/pkg/config"
	xhttp "BiasEngine/pkg/http"
	pkgkafka "BiasEngine/pkg/kafka"
	applogger "BiasEngine/pkg/logger"
	"BiasEngine/pkg/metrics"
	pkgqueue "BiasEngine/pkg/queue"
	"BiasEngine/pkg/server"
)

// ProvideLogger creates the structured logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideLogQueue attaches the aggregated-error collector the status
// surface reads, publishing flushed batches to a redis-backed queue when
// redis is enabled. Returns nil when there is no redis to publish to.
func ProvideLogQueue(cfg *config.Config, l *applogger.Logger, c cache.Service) *pkgqueue.RedisQueue {
	var q *pkgqueue.RedisQueue
	if rc, ok := c.(*cache.RedisCache); ok {
		q = pkgqueue.NewRedisPublisher(l, rc.Client(), pkgqueue.WithKeyPrefix("bias:queue"))
	}
	cc := &applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "error_logs",
	}
	if q != nil {
		cc.Publisher = q
	}
	l.AddCollector(cc)
	return q
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideScoreArchive creates the ClickHouse score history, or nil when
// disabled.
func ProvideScoreArchive(chClient *pkgch.Client, cfg *config.Config) (repository.ScoreArchive, error) {
	if chClient == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(chClient.DB(), cfg.ClickHouse.ScoreTable, cfg.ClickHouse.RejectionTable)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideScorePublisher creates the Kafka score fan-out, or nil when
// disabled.
func ProvideScorePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ScorePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaScorePublisher(producer, cfg.Kafka.ScoresTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or
// nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RecordsTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCacheService creates Redis-backed cache when enabled, falling back
// to in-process memory cache.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideSnapshotStore creates the warm-start snapshot store.
func ProvideSnapshotStore(c cache.Service) repository.SnapshotStore {
	return internalrepo.NewRedisSnapshotStore(c)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry creates the factor registry with default weights.
func ProvideRegistry() *registry.Registry {
	return registry.New()
}

// ProvideEngine creates the scoring engine with its external dimension
// providers when URLs are configured.
func ProvideEngine(cfg *config.Config, reg *registry.Registry, log *applogger.Logger) *scoring.Engine {
	params := scoring.DefaultParams()
	params.LookbackWindow = cfg.Engine.EconomicLookback
	params.SurpriseDeadBand = cfg.Engine.SurpriseDeadBand
	params.COTSaturation = cfg.Engine.COTSaturation
	var tech domsvc.TechnicalProvider
	var cb domsvc.CentralBankProvider
	if cfg.Providers.TechnicalURL != "" {
		tech = scoring.NewHTTPTechnicalProvider(scoring.NewHTTPFeedBase(cfg.Providers.TechnicalURL, cfg.Providers.Timeout))
	}
	if cfg.Providers.CentralBankURL != "" {
		cb = scoring.NewHTTPCentralBankProvider(scoring.NewHTTPFeedBase(cfg.Providers.CentralBankURL, cfg.Providers.Timeout))
	}
	return scoring.NewEngine(reg, tech, cb, params, log)
}

// ProvideOrchestrator wires the bias engine together.
func ProvideOrchestrator(
	cfg *config.Config,
	reg *registry.Registry,
	engine *scoring.Engine,
	m repository.Metrics,
	log *applogger.Logger,
	snapshot repository.SnapshotStore,
	archive repository.ScoreArchive,
	pub repository.ScorePublisher,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(usecase.OrchestratorConfig{
		Workers:               cfg.Engine.Workers,
		TickInterval:          cfg.Engine.TickInterval,
		SignificanceThreshold: cfg.Engine.SignificanceThreshold,
		ChangeEpsilon:         cfg.Engine.ChangeEpsilon,
		MaxEconomicBuffer:     cfg.Engine.MaxEconomicBuffer,
	}, reg, engine, m, log, snapshot, archive, pub)
}

// ProvideRecordCollector creates the sentiment stream collector, or nil
// when the stream is disabled.
func ProvideRecordCollector(cfg *config.Config, orch *usecase.Orchestrator, m repository.Metrics) *usecase.RecordCollector {
	if !cfg.Stream.Enabled {
		return nil
	}
	src := stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		models.Universe,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
	pipe := mid.NewRealtimePipeline(orch, m,
		mid.WithMaxRPS(5),
		mid.WithBufferSize(2000),
	)
	return usecase.NewRecordCollector(src, m, pipe)
}

// ProvideKafkaRecordsHandler registers the handler for the records topic.
func ProvideKafkaRecordsHandler(orch *usecase.Orchestrator, m repository.Metrics, cfg *config.Config) *usecase.KafkaRecordsHandler {
	return usecase.NewKafkaRecordsHandler(cfg.Kafka.RecordsTopic, orch, m)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(log *applogger.Logger, orch *usecase.Orchestrator) xhttp.Handler {
	return api.NewBiasEchoHandler(log, orch)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	orch *usecase.Orchestrator,
	collector *usecase.RecordCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRecordsHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	logQueue *pkgqueue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	app := server.New(cfg, log, orch, collector, consumer, mh, chClient)
	app.SetHTTPHandler(handler)
	app.SetLogQueue(logQueue)
	return app
}
