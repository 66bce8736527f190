package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

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
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/usecase/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	attributeFlag string
	maxFlag       int
)

var rootCmd = &cobra.Command{
	Use:   "generate [keyword]",
	Short: "Один запуск конвейера генерации статей",
	Long:  "Собирает кандидатов из RSS-лент (или из ключевого слова), генерирует статьи и сохраняет их черновиками.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := applog.NewLogger(cfg.AppEnv)

		metrics.MustRegister(prometheus.DefaultRegisterer)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		attribute, err := domain.ParseAttribute(attributeFlag)
		if err != nil {
			return err
		}

		pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("generate: нет подключения к БД")
		}
		defer pool.Close()

		svc, cleanup := buildPipeline(cfg, pool, logger)
		defer cleanup()

		job := domain.GenerationJob{
			ID:          uuid.NewString(),
			Attribute:   attribute,
			MaxArticles: maxFlag,
			RequestedAt: time.Now().UTC(),
			Cause:       domain.JobCauseManual,
		}
		if len(args) > 0 {
			job.Keyword = args[0]
		}

		summary, err := svc.Run(ctx, job)
		if err != nil {
			return err
		}
		logger.Info().
			Int("collected", summary.Collected).
			Int("skipped", summary.Skipped).
			Int("generated", summary.Generated).
			Int("failed", summary.Failed).
			Msg("generate: запуск завершён")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&attributeFlag, "attribute", "", "шаблон статьи: game_news или game_intro")
	rootCmd.Flags().IntVar(&maxFlag, "max", 0, "максимум статей за запуск (0 — из конфига)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// buildPipeline собирает оркестратор со всеми адаптерами.
func buildPipeline(cfg config.AppConfig, pool *pgxpool.Pool, logger zerolog.Logger) (*pipeline.Service, func()) {
	feeds, err := config.LoadFeeds(cfg.FeedsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: не удалось загрузить список лент")
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
			logger.Fatal().Err(err).Msg("generate: не удалось создать бота")
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
