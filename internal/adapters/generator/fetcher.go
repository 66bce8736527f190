package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

const (
	pageContextLimit = 3000
	pageBodyLimit    = 2 << 20
)

// PageFetcher забирает страницу первоисточника и превращает её в markdown,
// чтобы дать модели текст новости целиком, а не только аннотацию из RSS.
type PageFetcher struct {
	client    *http.Client
	converter *md.Converter
	limit     int
}

// NewPageFetcher создаёт загрузчик. Клиент nil означает клиента с таймаутом 15 секунд.
func NewPageFetcher(client *http.Client) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PageFetcher{
		client:    client,
		converter: md.NewConverter("", true, nil),
		limit:     pageContextLimit,
	}
}

// FetchMarkdown возвращает markdown-выжимку страницы, обрезанную до лимита.
func (f *PageFetcher) FetchMarkdown(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "oreteki-game-news/1.0")

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.ObserveNetworkRequest("source_page", "fetch", pageURL, start, err)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("страница вернула статус %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, pageBodyLimit))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert page: %w", err)
	}
	return clipRunes(markdown, f.limit), nil
}
