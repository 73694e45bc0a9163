package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/broker/kafka"
	"github.com/BearBump/OrderTrack/internal/cache/rediscache"
	"github.com/BearBump/OrderTrack/internal/integrations/dispatch"
	"github.com/BearBump/OrderTrack/internal/integrations/dispatch/fake"
	"github.com/BearBump/OrderTrack/internal/integrations/dispatch/shipday"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
	"github.com/BearBump/OrderTrack/internal/services/writeback"
	"github.com/BearBump/OrderTrack/internal/storage/pgorders"
)

type trackAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    trackAPIOpts
	svc     *tracking.Service
	applier *writeback.Applier
	closers []func()
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	grpcAddr := cfg.OrderTrack.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = ":50051"
	}
	httpAddr := cfg.OrderTrack.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	st := mustOpenPostgresWithRetry(cfg.PostgresDSN(), 60*time.Second)
	rc := rediscache.New(cfg.RedisAddr())
	rl := rediscache.NewRateLimiter(cfg.RedisAddr())

	closers := []func(){st.Close, func() { _ = rc.Close() }, func() { _ = rl.Close() }}

	sink, closeSink := newWritebackSink(cfg, st)
	if closeSink != nil {
		closers = append(closers, closeSink)
	}
	applier := writeback.NewApplier(sink, rc).WithSettings(
		time.Duration(cfg.OrderTrack.WritebackTimeoutSeconds)*time.Second,
		time.Duration(cfg.OrderTrack.WritebackDedupeTTLSeconds)*time.Second,
	)

	storeTimeout := millis(cfg.OrderTrack.StoreTimeoutMs, 3000)
	svc := tracking.NewService(
		tracking.NewResolver(st, storeTimeout),
		tracking.DefaultIdentityChain(st, storeTimeout),
		newDispatchProvider(cfg, rl),
		applier,
		cfg.OrderTrack.DefaultDeliveryFee,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &trackAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: trackAPIOpts{
			grpcAddr:     grpcAddr,
			httpAddr:     httpAddr,
			grpcDialAddr: grpcAddr,
			swaggerPath:  swaggerPath,
		},
		svc:     svc,
		applier: applier,
		closers: closers,
	}
}

// newDispatchProvider returns nil when the provider cannot be called: the service then
// answers from the persistent record alone.
func newDispatchProvider(cfg *config.Config, rl dispatch.RateLimiter) tracking.Provider {
	var client dispatch.Client
	switch cfg.OrderTrack.DispatchMode {
	case "fake":
		client = fake.New()
	default:
		if cfg.OrderTrack.DispatchAPIKey == "" {
			slog.Warn("dispatch API key is not set, provider calls disabled")
			return nil
		}
		client = shipday.New(cfg.OrderTrack.DispatchBaseURL, cfg.OrderTrack.DispatchAPIKey)
	}

	return dispatch.NewResilient(client).
		WithSettings(millis(cfg.OrderTrack.ProviderTimeoutMs, 5000), dispatchRetries(cfg), 0).
		WithRateLimit(rl, cfg.OrderTrack.DispatchRateLimitPerMinute)
}

func newWritebackSink(cfg *config.Config, st *pgorders.Storage) (writeback.Sink, func()) {
	if cfg.OrderTrack.WritebackMode != "kafka" {
		return writeback.NewDirectSink(st), nil
	}
	producer := kafka.NewProducer(cfg.KafkaBrokers())
	slog.Info("writeback via kafka", "topic", factsTopic(cfg))
	return writeback.NewKafkaSink(producer, factsTopic(cfg)), func() { _ = producer.Close() }
}

func factsTopic(cfg *config.Config) string {
	if cfg.Kafka.FactsLearnedTopicName != "" {
		return cfg.Kafka.FactsLearnedTopicName
	}
	return writeback.DefaultTopic
}

func dispatchRetries(cfg *config.Config) int {
	v := cfg.OrderTrack.DispatchMaxRetries
	if v == nil || *v < 0 {
		return 2
	}
	return *v
}

func millis(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Millisecond
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgorders.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgorders.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.applier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.applier.Wait(ctx); err != nil {
			slog.Warn("writeback still in flight on shutdown", "error", err.Error())
		}
		cancel()
	}
	// в обратном порядке: sink раньше postgres
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.svc)
}
