package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"spark-health-backend/internal/adapters/repo"
	"spark-health-backend/internal/infra/cache"
	"spark-health-backend/internal/infra/config"
	"spark-health-backend/internal/infra/db"
	"spark-health-backend/internal/infra/log"
	"spark-health-backend/internal/infra/metrics"
	"spark-health-backend/internal/infra/queue"
	"spark-health-backend/internal/usecase/reminder"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к Postgres")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	rabbit, err := queue.Dial(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к RabbitMQ")
	}
	defer rabbit.Close()

	svc := reminder.NewService(
		repo.NewNotifications(pool),
		queue.NewReminderQueue(rabbit, cfg.Queues.Reminders),
		cache.NewRedis(redisClient),
		logger,
	)

	logger.Info().Msg("scheduler: запущен")

	// Первый проход выравнивается по началу минуты, дальше — каждый тик.
	now := time.Now()
	next := now.Truncate(time.Minute).Add(time.Minute)
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановлен")
			return
		case tick := <-timer.C:
			svc.RunTick(ctx, tick)
			now = time.Now()
			next = now.Truncate(time.Minute).Add(time.Minute)
			timer.Reset(next.Sub(now))
		}
	}
}
