package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

// ErrAlreadyRunning возвращается, когда конвейер уже запущен.
var ErrAlreadyRunning = errors.New("генерация уже выполняется")

// Source отдаёт кандидатов из лент и синтезирует кандидата из ключевого слова.
type Source interface {
	domain.NewsSource
	domain.KeywordSource
}

// Limiter выдерживает паузу между кандидатами.
type Limiter interface {
	Wait()
	Reset()
}

// Options задаёт поведение конвейера.
type Options struct {
	Author      string
	MaxArticles int
	LockTTL     time.Duration
}

// Service — оркестратор конвейера генерации: сбор кандидатов,
// дедупликация, генерация, обогащение медиа, сохранение.
type Service struct {
	source   Source
	gen      domain.Generator
	media    domain.MediaResolver
	articles domain.ArticleRepo
	progress domain.ProgressSink
	lock     domain.RunLock
	notifier domain.Notifier
	limiter  Limiter
	opts     Options
	log      zerolog.Logger
}

// NewService создаёт оркестратор. notifier может быть nil.
func NewService(source Source, gen domain.Generator, media domain.MediaResolver, articles domain.ArticleRepo, progress domain.ProgressSink, lock domain.RunLock, notifier domain.Notifier, limiter Limiter, opts Options, logger zerolog.Logger) *Service {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &Service{
		source:   source,
		gen:      gen,
		media:    media,
		articles: articles,
		progress: progress,
		lock:     lock,
		notifier: notifier,
		limiter:  limiter,
		opts:     opts,
		log:      logger,
	}
}

// Run выполняет один запуск конвейера по заданию.
func (s *Service) Run(ctx context.Context, job domain.GenerationJob) (domain.RunSummary, error) {
	acquired, err := s.lock.Acquire(ctx, s.opts.LockTTL)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("захват блокировки: %w", err)
	}
	if !acquired {
		return domain.RunSummary{}, ErrAlreadyRunning
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Error().Err(err).Msg("pipeline: не удалось снять блокировку")
		}
	}()

	summary, err := s.run(ctx, job)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		s.publish(ctx, 100, err.Error(), domain.ProgressError)
	} else {
		metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
		s.publish(ctx, 100, fmt.Sprintf("Готово: создано статей %d, пропущено %d", summary.Generated, summary.Skipped), domain.ProgressCompleted)
	}

	s.notify(ctx, summary)
	return summary, err
}

func (s *Service) run(ctx context.Context, job domain.GenerationJob) (domain.RunSummary, error) {
	var summary domain.RunSummary

	// Без БД нет смысла даже собирать новости.
	if err := s.articles.Ping(ctx); err != nil {
		return summary, fmt.Errorf("база недоступна: %w", err)
	}

	s.publish(ctx, 5, "Собираем кандидатов", domain.ProgressRunning)

	items, err := s.collect(ctx, job)
	if err != nil {
		return summary, err
	}
	summary.Collected = len(items)

	maxArticles := job.MaxArticles
	if maxArticles <= 0 {
		maxArticles = s.opts.MaxArticles
	}

	s.limiter.Reset()
	for i, item := range items {
		if summary.Generated >= maxArticles {
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		// Кандидаты из ключевого слова не имеют ссылки, их не дедуплицируем.
		if item.Link != "" {
			// Сбой проверки одного кандидата не валит запуск: фатальна только
			// недоступность базы на старте.
			exists, err := s.articles.ExistsBySourceURL(ctx, item.Link)
			if err != nil {
				summary.Failed++
				metrics.ItemsSkippedTotal.WithLabelValues("dedup_failed").Inc()
				s.log.Error().Err(err).Str("url", item.Link).Msg("pipeline: проверка дубликата не удалась")
				continue
			}
			if exists {
				summary.Skipped++
				metrics.ItemsSkippedTotal.WithLabelValues("duplicate").Inc()
				continue
			}
		}

		s.limiter.Wait()
		s.publish(ctx, 10+80*i/len(items), fmt.Sprintf("Генерируем статью: %s", item.Title), domain.ProgressRunning)

		if err := s.buildArticle(ctx, item, job.Attribute); err != nil {
			summary.Failed++
			s.log.Error().Err(err).Str("title", item.Title).Msg("pipeline: кандидат не обработан")
			continue
		}
		summary.Generated++
		metrics.ArticlesGeneratedTotal.Inc()
	}

	return summary, nil
}

func (s *Service) collect(ctx context.Context, job domain.GenerationJob) ([]domain.NewsItem, error) {
	if job.Keyword != "" {
		return []domain.NewsItem{s.source.KeywordItem(job.Keyword)}, nil
	}
	items, err := s.source.FetchNews(ctx)
	if err != nil {
		return nil, fmt.Errorf("сбор новостей: %w", err)
	}
	return items, nil
}

func (s *Service) buildArticle(ctx context.Context, item domain.NewsItem, attribute domain.Attribute) error {
	start := time.Now()
	defer func() {
		metrics.ArticleBuildSeconds.Observe(time.Since(start).Seconds())
	}()

	draft, err := s.gen.Generate(ctx, item, attribute)
	if err != nil {
		metrics.ItemsSkippedTotal.WithLabelValues("generation_failed").Inc()
		return fmt.Errorf("генерация: %w", err)
	}

	draft, media, err := s.media.Resolve(ctx, draft)
	if err != nil {
		metrics.ItemsSkippedTotal.WithLabelValues("media_failed").Inc()
		return fmt.Errorf("обогащение медиа: %w", err)
	}

	cover := media.MainImageURL
	if cover == "" {
		cover = fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", draft.Slug)
	}

	article := domain.Article{
		Slug:       draft.Slug,
		Title:      draft.Title,
		Excerpt:    draft.Excerpt,
		Content:    draft.Content,
		Author:     s.opts.Author,
		ImageURL:   cover,
		SourceURL:  item.Link,
		SourceName: item.SourceName,
		Tags:       draft.Tags,
		Status:     domain.StatusDraft,
	}

	if _, err := s.articles.Insert(ctx, article); err != nil {
		return fmt.Errorf("сохранение статьи: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, percent int, message string, status domain.ProgressStatus) {
	progress := domain.Progress{
		Progress:  percent,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
	if err := s.progress.Publish(ctx, progress); err != nil {
		s.log.Error().Err(err).Msg("pipeline: не удалось опубликовать прогресс")
	}
}

func (s *Service) notify(ctx context.Context, summary domain.RunSummary) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyRunFinished(ctx, summary); err != nil {
		s.log.Error().Err(err).Msg("pipeline: уведомление не отправлено")
	}
}
