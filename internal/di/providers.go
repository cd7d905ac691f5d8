package di

import (
	"fmt"

	"sigmapips/internal/domain/repository"
	"sigmapips/internal/domain/service"
	"sigmapips/internal/handler/api"
	internalrepo "sigmapips/internal/repository"
	"sigmapips/internal/service/calendar"
	"sigmapips/internal/service/chart"
	"sigmapips/internal/service/sentiment"
	"sigmapips/internal/service/telegram"
	"sigmapips/internal/usecase"
	"sigmapips/pkg/cache"
	pkgch "sigmapips/pkg/clickhouse"
	"sigmapips/pkg/config"
	xhttp "sigmapips/pkg/http"
	pkgkafka "sigmapips/pkg/kafka"
	applogger "sigmapips/pkg/logger"
	"sigmapips/pkg/metrics"
	"sigmapips/pkg/queue"
	"sigmapips/pkg/server"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideRedisClient creates the Redis client shared by cache and queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return cache.NewRedisClient(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideCache creates the artifact cache.
func ProvideCache(cfg *config.Config, client *redis.Client) (cache.Service, error) {
	c, err := cache.NewRedisCache(client, cfg.Redis.Prefix)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideQueue creates the background job queue, or nil when disabled.
func ProvideQueue(cfg *config.Config, lgr *applogger.Logger, client *redis.Client) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	return queue.NewRedisQueue(lgr, &queue.Config{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client)
}

// ProvideQueueService exposes the queue as a publish-only service. A nil
// queue means the HTTP handler processes signals inline.
func ProvideQueueService(rq *queue.RedisQueue) queue.Service {
	if rq == nil {
		return nil
	}
	return rq
}

// ProvideDB opens the Postgres connection for the preference store.
func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := internalrepo.NewGormDB(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return db, nil
}

// ProvidePreferenceStore creates the preference repository.
func ProvidePreferenceStore(lgr *applogger.Logger, db *gorm.DB) (repository.PreferenceStore, error) {
	return internalrepo.NewGormPreferenceStore(lgr, db)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, 0, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideAuditLog creates the signal audit log. Without ClickHouse the
// audit trail is a no-op.
func ProvideAuditLog(lgr *applogger.Logger, chClient *pkgch.Client) (repository.AuditLog, error) {
	if chClient == nil {
		return internalrepo.NoopAuditLog{}, nil
	}
	return internalrepo.NewCHAuditLog(lgr, chClient)
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBot creates the Telegram Bot API client.
func ProvideBot(cfg *config.Config, lgr *applogger.Logger) (*telegram.Bot, error) {
	return telegram.NewBot(lgr, cfg.Telegram.Token,
		telegram.WithAPIURL(cfg.Telegram.APIURL),
		telegram.WithParseMode(cfg.Telegram.ParseMode),
		telegram.WithRequestTimeout(cfg.Telegram.Timeout),
	)
}

// ProvideDeliveryChannel exposes the bot as the delivery channel.
func ProvideDeliveryChannel(bot *telegram.Bot) service.DeliveryChannel {
	return bot
}

// ProvideSentimentAnalyzer creates the sentiment collaborator.
func ProvideSentimentAnalyzer(cfg *config.Config, lgr *applogger.Logger) service.SentimentAnalyzer {
	opts := []sentiment.AnalyzerOption{}
	if cfg.Sentiment.Model != "" {
		opts = append(opts, sentiment.WithModel(cfg.Sentiment.Model))
	}
	if cfg.Sentiment.Timeout > 0 {
		opts = append(opts, sentiment.WithRequestTimeout(cfg.Sentiment.Timeout))
	}
	return sentiment.NewAnalyzer(lgr, cfg.Sentiment.BaseURL, cfg.Sentiment.APIKey, opts...)
}

// ProvideChartRenderer creates the chart collaborator.
func ProvideChartRenderer(cfg *config.Config, lgr *applogger.Logger) service.ChartRenderer {
	opts := []chart.RendererOption{}
	if cfg.Chart.Timeout > 0 {
		opts = append(opts, chart.WithRequestTimeout(cfg.Chart.Timeout))
	}
	return chart.NewRenderer(lgr, cfg.Chart.BaseURL, cfg.Chart.APIKey, opts...)
}

// ProvideEconomicCalendar creates the calendar collaborator.
func ProvideEconomicCalendar(cfg *config.Config, lgr *applogger.Logger) service.EconomicCalendar {
	opts := []calendar.ScraperOption{}
	if cfg.Calendar.Timeout > 0 {
		opts = append(opts, calendar.WithRequestTimeout(cfg.Calendar.Timeout))
	}
	return calendar.NewScraper(lgr, cfg.Calendar.BaseURL, opts...)
}

// ProvideMatcher creates the subscriber matcher.
func ProvideMatcher(lgr *applogger.Logger, store repository.PreferenceStore) *usecase.Matcher {
	return usecase.NewMatcher(lgr, store)
}

// ProvidePreferences creates the preferences usecase.
func ProvidePreferences(lgr *applogger.Logger, store repository.PreferenceStore) *usecase.Preferences {
	return usecase.NewPreferences(lgr, store)
}

// ProvidePipeline creates the signal pipeline.
func ProvidePipeline(
	lgr *applogger.Logger,
	cfg *config.Config,
	matcher *usecase.Matcher,
	cacheSvc cache.Service,
	sentimentSvc service.SentimentAnalyzer,
	chartSvc service.ChartRenderer,
	calendarSvc service.EconomicCalendar,
	delivery service.DeliveryChannel,
	audit repository.AuditLog,
	m repository.Metrics,
) *usecase.Pipeline {
	return usecase.NewPipeline(lgr, cfg, matcher, cacheSvc, sentimentSvc, chartSvc, calendarSvc, delivery, audit, m)
}

// ProvideBotInteractor creates the menu handler.
func ProvideBotInteractor(
	lgr *applogger.Logger,
	cfg *config.Config,
	delivery service.DeliveryChannel,
	prefs *usecase.Preferences,
	cacheSvc cache.Service,
	sentimentSvc service.SentimentAnalyzer,
	chartSvc service.ChartRenderer,
	calendarSvc service.EconomicCalendar,
) *usecase.BotInteractor {
	return usecase.NewBotInteractor(lgr, cfg, delivery, prefs, cacheSvc, sentimentSvc, chartSvc, calendarSvc)
}

// ProvideSignalJob creates the background signal job.
func ProvideSignalJob(lgr *applogger.Logger, pipeline *usecase.Pipeline) queue.Job {
	return usecase.NewSignalJob(lgr, pipeline)
}

// ProvideKafkaConsumer creates the Kafka consumer, or nil without brokers.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.RetryMax, cfg.Kafka.Backoff, 10*cfg.Kafka.Backoff),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSignalHandler creates the Kafka-to-pipeline bridge.
func ProvideKafkaSignalHandler(lgr *applogger.Logger, cfg *config.Config, pipeline *usecase.Pipeline) pkgkafka.MessageHandler {
	if cfg.Kafka.Topic == "" {
		return nil
	}
	return usecase.NewKafkaSignalHandler(lgr, pipeline, cfg.Kafka.Topic)
}

// ProvideHTTPHandler creates the HTTP surface.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	pipeline *usecase.Pipeline,
	interactor *usecase.BotInteractor,
	qs queue.Service,
) xhttp.Handler {
	return api.NewWebhookHandler(lgr, pipeline, interactor, qs)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	httpHandler xhttp.Handler,
	redisQueue *queue.RedisQueue,
	signalJob queue.Job,
	consumer *pkgkafka.Consumer,
	kafkaSignal pkgkafka.MessageHandler,
	redisClient *redis.Client,
	db *gorm.DB,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, lgr, httpHandler, redisQueue, signalJob, consumer, kafkaSignal, redisClient, db, chClient)
}
