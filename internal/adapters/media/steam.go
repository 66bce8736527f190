package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

// SteamSearcher ищет игру в магазине Steam по названию из статьи.
// Первый результат принимается только при пересечении слов с запросом,
// иначе виджет окажется про случайную игру.
type SteamSearcher struct {
	http    *http.Client
	baseURL string
}

// NewSteamSearcher создаёт поиск по магазину Steam.
func NewSteamSearcher(baseURL string, httpClient *http.Client) *SteamSearcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://store.steampowered.com/api"
	}
	return &SteamSearcher{http: httpClient, baseURL: baseURL}
}

type steamSearchResponse struct {
	Items []struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"items"`
}

// SearchApp возвращает appid подходящей игры или пустую строку.
func (s *SteamSearcher) SearchApp(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("term", title)
	params.Set("l", "english")
	params.Set("cc", "JP")

	endpoint := s.baseURL + "/storesearch/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("steam request: %w", err)
	}

	start := time.Now()
	resp, err := s.http.Do(req)
	metrics.ObserveNetworkRequest("steam", "storesearch", "steam_store", start, err)
	if err != nil {
		return "", fmt.Errorf("steam search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("steam api вернул статус %d", resp.StatusCode)
	}

	var payload steamSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("steam decode: %w", err)
	}
	if len(payload.Items) == 0 {
		return "", nil
	}

	top := payload.Items[0]
	if !titlesOverlap(title, top.Name) {
		return "", nil
	}
	if _, err := strconv.ParseInt(top.ID.String(), 10, 64); err != nil {
		return "", nil
	}
	return top.ID.String(), nil
}

// titlesOverlap проверяет, что у запроса и найденного названия есть
// хотя бы одно общее слово длиннее трёх символов.
func titlesOverlap(query, found string) bool {
	queryWords := significantWords(query)
	for word := range significantWords(found) {
		if queryWords[word] {
			return true
		}
	}
	return false
}

func significantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,:;!?\"'()[]«»")
		if len(word) > 3 {
			words[word] = true
		}
	}
	return words
}
