package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

const validateTimeout = 5 * time.Second

// ogImageURL забирает страницу и достаёт из неё og:image.
// Относительный адрес разворачивается относительно страницы.
func (r *Resolver) ogImageURL(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "oreteki-game-news/1.0")

	start := time.Now()
	resp, err := r.pages.Do(req)
	metrics.ObserveNetworkRequest("og_scrape", "fetch", pageURL, start, err)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("страница вернула статус %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !ok || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("og:image не найден")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	imageURL, err := url.Parse(strings.TrimSpace(content))
	if err != nil {
		return "", fmt.Errorf("parse og:image url: %w", err)
	}
	return base.ResolveReference(imageURL).String(), nil
}

// validateImage проверяет, что URL жив и отдаёт именно картинку:
// HEAD, при отказе — GET с Range на один байт. Таймаут 5 секунд на запрос.
func (r *Resolver) validateImage(ctx context.Context, imageURL string) error {
	headCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(headCtx, http.MethodHead, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build head request: %w", err)
	}
	start := time.Now()
	resp, err := r.images.Do(req)
	metrics.ObserveNetworkRequest("image_check", "head", imageURL, start, err)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode < 400 {
			return checkImageContentType(resp.Header.Get("Content-Type"))
		}
	}

	// Некоторые CDN отвергают HEAD; пробуем GET на один байт.
	getCtx, cancelGet := context.WithTimeout(ctx, validateTimeout)
	defer cancelGet()

	getReq, err := http.NewRequestWithContext(getCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build get request: %w", err)
	}
	getReq.Header.Set("Range", "bytes=0-0")
	start = time.Now()
	getResp, err := r.images.Do(getReq)
	metrics.ObserveNetworkRequest("image_check", "ranged_get", imageURL, start, err)
	if err != nil {
		return fmt.Errorf("image get: %w", err)
	}
	defer getResp.Body.Close()

	if getResp.StatusCode >= 400 {
		return fmt.Errorf("картинка вернула статус %d", getResp.StatusCode)
	}
	return checkImageContentType(getResp.Header.Get("Content-Type"))
}

func checkImageContentType(contentType string) error {
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("не картинка: content-type %q", contentType)
	}
	return nil
}
