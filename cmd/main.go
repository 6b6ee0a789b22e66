package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ozzus/fan-avia/exchange-rules/grpcapp"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/rulestore"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/service"
	"github.com/ozzus/fan-avia/exchange-rules/internal/config"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/csvstore"
	pgrepo "github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/db/postgres/repo"
	cacheredis "github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/db/redis"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/tracing"
	grpcapi "github.com/ozzus/fan-avia/exchange-rules/internal/transport/grpc"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
)

type ruleSource interface {
	ports.RuleStore
	ports.CityResolver
}

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Log.Level)
	defer func() {
		_ = log.Sync()
	}()

	tp, err := tracing.InitTracer("exchange-rules", cfg.Jaeger.Collector, cfg.Env, cfg.Jaeger.SampleRatio)
	if err != nil {
		log.Fatal("failed to init tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	log.Info("exchange-rules starting",
		zap.String("grpc_addr", fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)),
		zap.String("rule_source", cfg.RuleStore.Source),
	)

	source, closeSource, err := openRuleSource(log, cfg)
	if err != nil {
		log.Fatal("failed to open rule source", zap.Error(err), zap.String("source", cfg.RuleStore.Source))
	}
	defer closeSource()

	var cache ports.RuleCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis client", zap.Error(err))
			}
		}()
		cache = cacheredis.NewRuleCache(redisClient)
	} else {
		log.Info("rule cache disabled")
	}

	store := rulestore.NewCachedStore(log, source, cache, cfg.RuleCacheTTL)
	voluntaryChanges := service.NewVoluntaryChanges(log, store, source, cfg.Calendar.AllowedDays)

	app := grpcapp.New(log, grpcapp.Options{
		Host:           cfg.GRPC.Host,
		Port:           cfg.GRPC.Port,
		RequestTimeout: cfg.GRPC.Timeout,
	}, func(s *grpc.Server) {
		grpcapi.Register(s, log, voluntaryChanges, grpcapi.Options{
			DiagEnabled: cfg.Diag.Enabled,
			DiagColor:   cfg.Diag.Color,
		})
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		app.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
		}
	}
}

func openRuleSource(log *zap.Logger, cfg *config.Config) (ruleSource, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.RuleStore.Source {
	case config.SourceCSV:
		store, err := csvstore.Load(ctx, log, cfg.RuleStore.CSVDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		repo, err := pgrepo.New(ctx, cfg.DB.DatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}
}

func setupLogger(level string) *zap.Logger {
	zapLevel := parseLogLevel(level)
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return log
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
