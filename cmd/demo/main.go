package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"dispatch/internal/stream"
	"dispatch/internal/stream/dispatcher"
	"dispatch/internal/stream/metrics"
	"dispatch/internal/stream/tracing"
)

type Config struct {
	EventCount            int           `env:"EVENT_COUNT" envDefault:"100"`
	EventsPerSec          int           `env:"EVENTS_PER_SEC" envDefault:"50"`
	BigThreshold          int           `env:"BIG_THRESHOLD" envDefault:"75"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort           int           `env:"METRICS_PORT" envDefault:"9090"`
	MetricsTimeout        time.Duration `env:"METRICS_TIMEOUT" envDefault:"30s"`
	TracingServiceName    string        `env:"TRACING_SERVICE_NAME" envDefault:"dispatch-demo"`
	TracingServiceVersion string        `env:"TRACING_SERVICE_VERSION" envDefault:"1.0.0"`
	JaegerEndpoint        string        `env:"JAEGER_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate     float64       `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.SetSystemInfo("demo", time.Now().Format(time.RFC3339))

	metricsServer := metrics.NewServer(
		metrics.ServerConfig{
			Port:    cfg.MetricsPort,
			Timeout: cfg.MetricsTimeout,
		},
		metricsRegistry,
		logger,
	)

	go func() {
		if err := metricsServer.Start(context.Background()); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("metrics server started",
		zap.String("endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.MetricsPort)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.MetricsPort)),
	)

	tracingConfig := tracing.Config{
		ServiceName:    cfg.TracingServiceName,
		ServiceVersion: cfg.TracingServiceVersion,
		JaegerEndpoint: cfg.JaegerEndpoint,
		SampleRate:     cfg.TracingSampleRate,
	}
	tracer, tracingCleanup, err := tracing.NewTracer(tracingConfig)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingCleanup(shutdownCtx); err != nil {
			logger.Error("failed to cleanup tracing", zap.Error(err))
		}
	}()

	logger.Info("tracing initialized",
		zap.String("service", cfg.TracingServiceName),
		zap.String("jaeger_endpoint", cfg.JaegerEndpoint),
		zap.Float64("sample_rate", cfg.TracingSampleRate),
	)

	baseDispatcher, err := dispatcher.NewDispatcher[int, string](logger)
	if err != nil {
		log.Fatalf("failed to create dispatcher: %v", err)
	}
	metricsDispatcher := dispatcher.NewMetricsDispatcher(baseDispatcher, metricsRegistry)
	d := dispatcher.NewTracedDispatcher(metricsDispatcher, tracer)

	readings := make(chan int)
	source := stream.FromChannel(readings)

	out, err := d.Dispatch(source,
		[]stream.Branch[int, string]{
			{
				Name: "even",
				When: func(n int) (bool, error) { return n%2 == 0, nil },
				Then: func(n int) (string, error) { return fmt.Sprintf("even:%d", n), nil },
			},
			{
				Name: "big",
				When: func(n int) (bool, error) { return n > cfg.BigThreshold, nil },
				Then: func(n int) (string, error) { return fmt.Sprintf("big:%d", n), nil },
			},
		},
		func(n int) (string, error) { return fmt.Sprintf("other:%d", n), nil },
	)
	if err != nil {
		log.Fatalf("failed to wire dispatch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(readings)

		rate := max(cfg.EventsPerSec, 1)
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()

		for i := 1; i <= cfg.EventCount; i++ {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				select {
				case readings <- i:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}

		logger.Info("all events produced, closing source", zap.Int("count", cfg.EventCount))
		return nil
	})

	g.Go(func() error {
		done := make(chan error, 1)
		sub := out.Subscribe(gctx, stream.Observer[string]{
			OnNext: func(s string) {
				logger.Info("dispatched", zap.String("output", s))
			},
			OnError: func(err error) {
				done <- err
			},
			OnComplete: func() {
				done <- nil
			},
		})
		defer sub.Unsubscribe()

		select {
		case <-gctx.Done():
			return gctx.Err()
		case err := <-done:
			if err != nil {
				logger.Error("dispatch failed", zap.Error(err))
				return err
			}
			logger.Info("dispatch complete")
			return nil
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("error in goroutine", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop metrics server", zap.Error(err))
	}

	logger.Info("demo complete", zap.Float64("seconds", time.Since(now).Seconds()))
}
