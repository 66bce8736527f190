package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/gemini"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

const imageDownloadLimit = 512 << 10

type visionClient interface {
	GenerateContent(ctx context.Context, model string, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error)
}

// GeminiJudge решает, относится ли картинка к теме статьи.
// Бинарный вердикт: модель отвечает строго yes или no.
type GeminiJudge struct {
	client visionClient
	model  string
	http   *http.Client
	usage  domain.UsageRepo
	log    zerolog.Logger
}

// NewGeminiJudge создаёт проверку релевантности картинок.
func NewGeminiJudge(client visionClient, model string, httpClient *http.Client, usage domain.UsageRepo, logger zerolog.Logger) *GeminiJudge {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &GeminiJudge{client: client, model: model, http: httpClient, usage: usage, log: logger}
}

// Judge возвращает true, если картинка релевантна заголовку и выжимке статьи.
func (j *GeminiJudge) Judge(ctx context.Context, imageURL, title, excerpt string) (bool, error) {
	data, mimeType, err := j.downloadImage(ctx, imageURL)
	if err != nil {
		return false, fmt.Errorf("download image: %w", err)
	}

	prompt := fmt.Sprintf(`Статья: «%s». Краткое содержание: «%s».
Относится ли картинка к теме этой статьи? Ответь строго одним словом: yes или no.`, title, excerpt)

	req := gemini.GenerateContentRequest{
		Contents: []gemini.Content{
			{Role: "user", Parts: []gemini.Part{
				{InlineData: &gemini.InlineData{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: prompt},
			}},
		},
	}

	resp, err := j.client.GenerateContent(ctx, j.model, req)
	if err != nil {
		return false, fmt.Errorf("gemini vision: %w", err)
	}
	j.recordUsage(ctx, resp.UsageMetadata)

	answer := strings.ToLower(strings.TrimSpace(resp.Text()))
	return strings.HasPrefix(answer, "yes"), nil
}

func (j *GeminiJudge) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", imageDownloadLimit-1))

	start := time.Now()
	resp, err := j.http.Do(req)
	metrics.ObserveNetworkRequest("image_check", "download", imageURL, start, err)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("картинка вернула статус %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, imageDownloadLimit))
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(mimeType)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

func (j *GeminiJudge) recordUsage(ctx context.Context, usage *gemini.UsageMetadata) {
	if j.usage == nil || usage == nil {
		return
	}
	record := domain.UsageRecord{
		Model:        j.model,
		InputTokens:  usage.PromptTokenCount,
		OutputTokens: usage.CandidatesTokenCount,
		Operation:    domain.UsageOpImageValidation,
	}
	if err := j.usage.RecordUsage(ctx, record); err != nil {
		j.log.Error().Err(err).Msg("media: не удалось записать учёт токенов")
	}
}
