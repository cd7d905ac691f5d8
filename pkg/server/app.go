package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgch "sigmapips/pkg/clickhouse"
	"sigmapips/pkg/config"
	xhttp "sigmapips/pkg/http"
	pkgkafka "sigmapips/pkg/kafka"
	applogger "sigmapips/pkg/logger"
	"sigmapips/pkg/queue"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App encapsulates the application lifecycle: background workers, the HTTP
// server, and graceful shutdown of every infrastructure client.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	redisQueue  *queue.RedisQueue
	signalJob   queue.Job
	consumer    *pkgkafka.Consumer
	kafkaSignal pkgkafka.MessageHandler

	redisClient *redis.Client
	db          *gorm.DB
	chClient    *pkgch.Client
}

// New creates a new App instance. Optional collaborators (queue, consumer,
// clickhouse) may be nil when disabled by configuration.
func New(
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
) *App {
	return &App{
		cfg:         cfg,
		logger:      lgr,
		httpHandler: httpHandler,
		redisQueue:  redisQueue,
		signalJob:   signalJob,
		consumer:    consumer,
		kafkaSignal: kafkaSignal,
		redisClient: redisClient,
		db:          db,
		chClient:    chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if a.redisQueue != nil && a.signalJob != nil {
		a.redisQueue.RegisterJob(a.signalJob)
		if err := a.redisQueue.Start(); err != nil {
			return err
		}
	}

	if a.consumer != nil && a.kafkaSignal != nil {
		a.consumer.RegisterHandler(a.kafkaSignal)
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("kafka consumer start error", applogger.Error(err))
		} else {
			a.logger.Info("kafka consumer started", applogger.String("topic", a.kafkaSignal.Topic()))
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services and closes infrastructure clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.redisQueue != nil {
		if err := a.redisQueue.Stop(ctx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close error", applogger.Error(err))
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.logger.Warn("database close error", applogger.Error(err))
			}
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
