package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/gemini"
)

const (
	defaultAttempts = 3
	backoffStep     = 15 * time.Second
)

type generateClient interface {
	GenerateContent(ctx context.Context, model string, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error)
}

type pageFetcher interface {
	FetchMarkdown(ctx context.Context, pageURL string) (string, error)
}

// Gemini строит черновики статей через Gemini с заземлением веб-поиском.
type Gemini struct {
	client   generateClient
	model    string
	usage    domain.UsageRepo
	fetcher  pageFetcher
	log      zerolog.Logger
	attempts int
	backoff  func(attempt int) time.Duration
	sleep    func(d time.Duration)
}

var _ domain.Generator = (*Gemini)(nil)

// NewGemini создаёт генератор черновиков.
func NewGemini(client generateClient, model string, usage domain.UsageRepo, fetcher pageFetcher, logger zerolog.Logger) *Gemini {
	return &Gemini{
		client:   client,
		model:    model,
		usage:    usage,
		fetcher:  fetcher,
		log:      logger,
		attempts: defaultAttempts,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * backoffStep },
		sleep:    time.Sleep,
	}
}

// Generate строит черновик по новости. Повторяет вызов модели до трёх раз
// с паузами attempt×15s; после исчерпания попыток новость бросается.
func (g *Gemini) Generate(ctx context.Context, item domain.NewsItem, attribute domain.Attribute) (domain.Draft, error) {
	pageContext := ""
	if item.Link != "" && g.fetcher != nil {
		markdown, err := g.fetcher.FetchMarkdown(ctx, item.Link)
		if err != nil {
			g.log.Warn().Err(err).Str("url", item.Link).Msg("generator: страница источника недоступна, остаётся только аннотация")
		} else {
			pageContext = markdown
		}
	}

	prompt := buildPrompt(item, attribute, pageContext)

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		draft, err := g.generateOnce(ctx, prompt)
		if err == nil {
			return draft, nil
		}
		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt).Int("max", g.attempts).Str("title", item.Title).Msg("generator: попытка не удалась")
		if attempt < g.attempts {
			g.sleep(g.backoff(attempt))
		}
	}
	return domain.Draft{}, fmt.Errorf("генерация после %d попыток: %w", g.attempts, lastErr)
}

func (g *Gemini) generateOnce(ctx context.Context, prompt string) (domain.Draft, error) {
	req := gemini.GenerateContentRequest{
		Contents: []gemini.Content{
			{Role: "user", Parts: []gemini.Part{{Text: prompt}}},
		},
		Tools: []gemini.Tool{{GoogleSearch: &struct{}{}}},
	}

	resp, err := g.client.GenerateContent(ctx, g.model, req)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("gemini completion: %w", err)
	}
	// Токены потрачены, даже если ответ не разберётся.
	g.recordUsage(ctx, resp.UsageMetadata)

	return ParseDraft(resp.Text())
}

func (g *Gemini) recordUsage(ctx context.Context, usage *gemini.UsageMetadata) {
	if g.usage == nil || usage == nil {
		return
	}
	record := domain.UsageRecord{
		Model:        g.model,
		InputTokens:  usage.PromptTokenCount,
		OutputTokens: usage.CandidatesTokenCount,
		Operation:    domain.UsageOpGenerate,
	}
	if err := g.usage.RecordUsage(ctx, record); err != nil {
		g.log.Error().Err(err).Msg("generator: не удалось записать учёт токенов")
	}
}
