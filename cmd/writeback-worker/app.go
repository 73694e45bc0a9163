package main

import (
	"context"
	"log/slog"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/broker/kafka"
	"github.com/BearBump/OrderTrack/internal/services/writeback"
	"github.com/BearBump/OrderTrack/internal/storage/pgorders"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// factsStore: pgorders.Storage seen by the worker.
type factsStore interface {
	writeback.FactsStore
	Ping(ctx context.Context) error
}

type factsConsumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error
	Close() error
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (store factsStore, closeFn func(), err error)
	newConsumer func(cfg *config.Config, topic, group string) factsConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (factsStore, func(), error) {
			st, err := pgorders.New(cfg.PostgresDSN())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) factsConsumer {
			return kafka.NewConsumer(cfg.KafkaBrokers(), topic, group)
		},
	}
}

type workerSettings struct {
	topic    string
	group    string
	httpAddr string
}

func resolveWorkerSettings(cfg *config.Config) workerSettings {
	s := workerSettings{
		topic:    cfg.Kafka.FactsLearnedTopicName,
		group:    cfg.OrderTrack.KafkaConsumerGroup,
		httpAddr: cfg.OrderTrack.WorkerHTTPAddr,
	}
	if s.topic == "" {
		s.topic = writeback.DefaultTopic
	}
	if s.group == "" {
		s.group = "writeback-worker"
	}
	if s.httpAddr == "" {
		s.httpAddr = ":8082"
	}
	return s
}

// RunWritebackWorker consumes learned facts and applies them to the order store until
// ctx is cancelled. The ops HTTP server runs alongside.
func RunWritebackWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	settings := resolveWorkerSettings(cfg)

	store, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return errors.Wrap(err, "open order store")
	}
	if closeFn != nil {
		defer closeFn()
	}

	consumer := f.newConsumer(cfg, settings.topic, settings.group)
	defer func() { _ = consumer.Close() }()

	handler := writeback.NewHandler(writeback.NewDirectSink(store))

	if httpOpts.httpAddr == "" {
		httpOpts.httpAddr = settings.httpAddr
	}
	httpOpts.handler = handler
	httpOpts.ready = store.Ping
	httpOpts.settings = settings

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runWorkerHTTPServer(ctx, httpOpts)
	})
	g.Go(func() error {
		slog.Info("kafka consumer started", "topic", settings.topic, "group", settings.group)
		err := consumer.Consume(ctx, handler.Handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("kafka consumer stopped", "error", err)
		return err
	})
	return g.Wait()
}
