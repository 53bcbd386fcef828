package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"spark-health-backend/internal/adapters/advisor"
	"spark-health-backend/internal/adapters/docs"
	"spark-health-backend/internal/adapters/geosearch"
	"spark-health-backend/internal/adapters/httpapi"
	"spark-health-backend/internal/adapters/mail"
	"spark-health-backend/internal/adapters/push"
	"spark-health-backend/internal/adapters/repo"
	"spark-health-backend/internal/adapters/speech"
	"spark-health-backend/internal/adapters/vision"
	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/cache"
	"spark-health-backend/internal/infra/config"
	"spark-health-backend/internal/infra/db"
	infrahttp "spark-health-backend/internal/infra/http"
	"spark-health-backend/internal/infra/log"
	"spark-health-backend/internal/infra/metrics"
	"spark-health-backend/internal/infra/openai"
	"spark-health-backend/internal/infra/queue"
	"spark-health-backend/internal/usecase/account"
	"spark-health-backend/internal/usecase/advice"
	"spark-health-backend/internal/usecase/booking"
	"spark-health-backend/internal/usecase/checkup"
	"spark-health-backend/internal/usecase/risk"
	"spark-health-backend/internal/usecase/transcript"
	"spark-health-backend/internal/usecase/wellness"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к Postgres")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := cache.NewRedis(redisClient)

	rabbit, err := queue.Dial(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к RabbitMQ")
	}
	defer rabbit.Close()

	// Репозитории.
	users := repo.NewUsers(pool)
	notifications := repo.NewNotifications(pool)
	weeklyMetrics := repo.NewWeeklyMetrics(pool)
	appointments := repo.NewAppointments(pool)
	doctors := repo.NewDoctors(pool)
	checks := repo.NewChecks(pool)
	risks := repo.NewRisks(pool)
	transcripts := repo.NewTranscripts(pool)

	// Внешние сервисы.
	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	llmAdvisor := advisor.NewOpenAI(openaiClient, cfg.OpenAI.Model)
	whisper := speech.NewWhisper(openaiClient)
	clinics := geosearch.NewTwoGIS(cfg.TwoGIS.APIKey, cfg.TwoGIS.BaseURL)
	dental := vision.NewRoboflow(cfg.Roboflow.URL, cfg.Roboflow.APIKey)
	skin := vision.NewSkiniver(cfg.Skiniver.URL, cfg.Skiniver.Auth)
	reports := docs.NewPDF(cfg.ReportsDir, cfg.FontsDir)
	mailer := mail.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	hub := push.NewHub(logger)

	tokens := infrahttp.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	reminderQueue := queue.NewReminderQueue(rabbit, cfg.Queues.Reminders)
	transcriptQueue := queue.NewTranscriptQueue(rabbit, cfg.Queues.Transcripts)

	// Сценарии.
	accounts := account.NewService(users, tokens, mailer, cfg.BaseURL)
	wellnessSvc := wellness.NewService(weeklyMetrics)
	adviceSvc := advice.NewService(users, llmAdvisor, redisCache)
	bookingSvc := booking.NewService(appointments, doctors)
	checkupSvc := checkup.NewService(users, checks, dental, skin, llmAdvisor)
	riskSvc := risk.NewService(users, checks, risks, llmAdvisor, reports)
	transcriptSvc := transcript.NewService(transcripts, users, doctors, transcriptQueue, whisper, llmAdvisor, reports, hub, logger)

	// Фоновая доставка: напоминания из планировщика уходят в
	// WebSocket-сессии пользователя.
	go func() {
		err := reminderQueue.Consume(ctx, func(p domain.ReminderPush) {
			if err := hub.Push(p.UserID, map[string]any{
				"type":         "reminder",
				"notification": p.Notification,
				"fired_at":     p.FiredAt,
			}); err != nil {
				logger.Warn().Err(err).Int64("user", p.UserID).Msg("не удалось доставить напоминание")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer напоминаний остановлен")
		}
	}()

	go func() {
		err := transcriptQueue.Consume(ctx, func(job domain.TranscriptJob) {
			if err := transcriptSvc.ProcessJob(ctx, job); err != nil {
				logger.Error().Err(err).Str("job_id", job.ID).Msg("задача расшифровки не выполнена")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer расшифровок остановлен")
		}
	}()

	server := infrahttp.NewServer(logger)
	handler := httpapi.NewHandler(
		accounts, users, notifications,
		wellnessSvc, adviceSvc, bookingSvc, checkupSvc, riskSvc, transcriptSvc,
		clinics, hub, tokens, cfg.UploadsDir, logger,
	)
	handler.Register(server.Router)

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP сервер остановлен с ошибкой")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: завершение работы")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown не удался")
	}
}
