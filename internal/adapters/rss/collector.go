package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/config"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

const itemsPerFeed = 5

// Collector собирает кандидатов новостей из настроенных RSS-лент.
type Collector struct {
	parser  *gofeed.Parser
	feeds   []config.Feed
	perFeed int
	log     zerolog.Logger
}

var _ domain.NewsSource = (*Collector)(nil)

// NewCollector создаёт сборщик. Клиент nil означает клиента с таймаутом 20 секунд.
func NewCollector(feeds []config.Feed, client *http.Client, logger zerolog.Logger) *Collector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "oreteki-game-news/1.0"
	return &Collector{parser: parser, feeds: feeds, perFeed: itemsPerFeed, log: logger}
}

// FetchNews обходит все ленты и возвращает до 5 записей из каждой.
// Сломанная лента логируется и пропускается: одна лента не должна
// останавливать весь запуск.
func (c *Collector) FetchNews(ctx context.Context) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	for _, feed := range c.feeds {
		start := time.Now()
		parsed, err := c.parser.ParseURLWithContext(feed.URL, ctx)
		metrics.ObserveNetworkRequest("rss", "fetch_feed", feed.Name, start, err)
		if err != nil {
			c.log.Warn().Err(err).Str("feed", feed.Name).Msg("rss: лента недоступна, пропускаем")
			continue
		}

		taken := 0
		for _, entry := range parsed.Items {
			if taken >= c.perFeed {
				break
			}
			if entry.Title == "" || entry.Link == "" {
				continue
			}
			summary := entry.Description
			if summary == "" {
				summary = entry.Content
			}
			items = append(items, domain.NewsItem{
				Title:      entry.Title,
				Link:       entry.Link,
				SourceName: feed.Name,
				Summary:    summary,
			})
			taken++
		}
		c.log.Debug().Str("feed", feed.Name).Int("items", taken).Msg("rss: лента прочитана")
	}
	return items, nil
}

// KeywordItem синтезирует единственного кандидата из ключевого слова
// оператора. Link пустой: дедупликация для таких кандидатов не имеет смысла.
func (c *Collector) KeywordItem(keyword string) domain.NewsItem {
	return domain.NewsItem{
		Title:      keyword,
		Link:       "",
		SourceName: "keyword",
		Summary:    fmt.Sprintf("Самостоятельно исследуй тему «%s» через веб-поиск и напиши статью по свежим фактам, а не пересказ одной заметки.", keyword),
	}
}
