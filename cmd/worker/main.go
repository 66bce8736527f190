package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/adapters/generator"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/adapters/media"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/adapters/notify"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/adapters/repo"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/adapters/rss"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/config"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/db"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/gemini"
	applog "github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/log"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/progress"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/queue"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/usecase/pipeline"
)

const requeueDelay = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: нет подключения к БД")
	}
	defer pool.Close()

	if cfg.RabbitURL == "" {
		logger.Fatal().Msg("worker: не указан адрес RabbitMQ (RABBITMQ_URL)")
	}
	jobs, err := queue.NewRabbitGenerationQueue(cfg.RabbitURL, cfg.Queues.Generation)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось инициализировать очередь RabbitMQ")
	}
	defer jobs.Close()

	svc, cleanup := buildPipeline(cfg, pool, logger)
	defer cleanup()

	logger.Info().Str("queue", cfg.Queues.Generation).Msg("worker: старт")
	for {
		job, ack, err := jobs.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("worker: остановка")
				return
			}
			logger.Error().Err(err).Msg("worker: не удалось получить задачу")
			continue
		}

		summary, err := svc.Run(ctx, job)
		switch {
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			// Блокировку держит другой запуск; повтор задачи только зациклит очередь.
			logger.Warn().Str("job", job.ID).Msg("worker: генерация уже идёт, задача отброшена")
			ackOrLog(logger, ack, true)
		case err != nil:
			logger.Error().Err(err).Str("job", job.ID).Msg("worker: запуск завершился ошибкой")
			// Пауза перед возвратом в очередь, иначе при лежащей базе
			// задача будет крутиться между worker и RabbitMQ без передышки.
			select {
			case <-ctx.Done():
			case <-time.After(requeueDelay):
			}
			ackOrLog(logger, ack, false)
		default:
			logger.Info().
				Str("job", job.ID).
				Int("generated", summary.Generated).
				Int("skipped", summary.Skipped).
				Msg("worker: запуск завершён")
			ackOrLog(logger, ack, true)
		}
	}
}

func ackOrLog(logger zerolog.Logger, ack domain.AckFunc, success bool) {
	if err := ack(success); err != nil {
		logger.Error().Err(err).Msg("worker: не удалось подтвердить задачу")
	}
}

func buildPipeline(cfg config.AppConfig, pool *pgxpool.Pool, logger zerolog.Logger) (*pipeline.Service, func()) {
	feeds, err := config.LoadFeeds(cfg.FeedsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось загрузить список лент")
	}

	repoAdapter := repo.NewPostgres(pool)
	source := rss.NewCollector(feeds, nil, logger.With().Str("component", "rss").Logger())

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Timeout)
	gen := generator.NewGemini(geminiClient, cfg.Gemini.Model, repoAdapter, generator.NewPageFetcher(nil), logger.With().Str("component", "generator").Logger())

	judge := media.NewGeminiJudge(geminiClient, cfg.Gemini.VisionModel, nil, repoAdapter, logger.With().Str("component", "vision").Logger())
	video := media.NewYouTubeSearcher(cfg.YouTube.APIKey, cfg.YouTube.BaseURL, nil)
	store := media.NewSteamSearcher(cfg.Steam.BaseURL, nil)
	resolver := media.NewResolver(judge, video, store, logger.With().Str("component", "media").Logger())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	sink := progress.NewRedisSink(redisClient, "")
	lock := progress.NewRedisRunLock(redisClient, "")

	var notifier domain.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: не удалось создать бота")
		}
		notifier = notify.NewTelegram(botAPI, cfg.Telegram.ChatID)
	}

	limiter := pipeline.NewIntervalLimiter(cfg.Pipeline.ItemInterval, nil)
	opts := pipeline.Options{
		Author:      cfg.Pipeline.Author,
		MaxArticles: cfg.Pipeline.MaxArticles,
		LockTTL:     cfg.Pipeline.LockTTL,
	}

	svc := pipeline.NewService(source, gen, resolver, repoAdapter, sink, lock, notifier, limiter, opts, logger.With().Str("component", "pipeline").Logger())
	cleanup := func() {
		_ = redisClient.Close()
	}
	return svc, cleanup
}
