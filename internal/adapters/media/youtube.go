package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

// YouTubeSearcher ищет официальный трейлер через YouTube Data API v3.
// Пустой ключ означает выключенный поиск: видео просто не будет.
type YouTubeSearcher struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

// NewYouTubeSearcher создаёт поиск видео.
func NewYouTubeSearcher(apiKey, baseURL string, httpClient *http.Client) *YouTubeSearcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	return &YouTubeSearcher{http: httpClient, apiKey: apiKey, baseURL: baseURL}
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// SearchVideo возвращает ID первого найденного ролика или пустую строку.
func (y *YouTubeSearcher) SearchVideo(ctx context.Context, query string) (string, error) {
	if y.apiKey == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("q", query)
	params.Set("key", y.apiKey)

	endpoint := y.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("youtube request: %w", err)
	}

	start := time.Now()
	resp, err := y.http.Do(req)
	metrics.ObserveNetworkRequest("youtube", "search", "youtube_api", start, err)
	if err != nil {
		return "", fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube api вернул статус %d", resp.StatusCode)
	}

	var payload youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("youtube decode: %w", err)
	}
	if len(payload.Items) == 0 {
		return "", nil
	}
	return payload.Items[0].ID.VideoID, nil
}
