package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

// ErrEmptyResponse возвращается, когда модель не вернула текст.
var ErrEmptyResponse = errors.New("пустой ответ модели")

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

type draftPayload struct {
	Title      string             `json:"title"`
	Excerpt    string             `json:"excerpt"`
	Content    string             `json:"content"`
	Tags       []string           `json:"tags"`
	References []domain.Reference `json:"references"`
}

// ParseDraft разбирает ответ модели в черновик. Ответ — недоверенный
// внешний протокол: снимаем обрамление кодом, вычищаем сырые управляющие
// символы и только после этого разбираем JSON.
func ParseDraft(raw string) (domain.Draft, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return domain.Draft{}, ErrEmptyResponse
	}
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	text = stripControlChars(strings.TrimSpace(text))

	var payload draftPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return domain.Draft{}, fmt.Errorf("разбор JSON ответа: %w", err)
	}

	if strings.TrimSpace(payload.Title) == "" {
		return domain.Draft{}, errors.New("в ответе нет title")
	}
	if strings.TrimSpace(payload.Excerpt) == "" {
		return domain.Draft{}, errors.New("в ответе нет excerpt")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return domain.Draft{}, errors.New("в ответе нет content")
	}

	draft := domain.Draft{
		Title:      strings.TrimSpace(payload.Title),
		Excerpt:    strings.TrimSpace(payload.Excerpt),
		Content:    strings.TrimSpace(payload.Content),
		Tags:       filterNonEmpty(payload.Tags),
		References: payload.References,
	}
	draft.Slug = domain.Slugify(draft.Title)
	return draft, nil
}

// stripControlChars убирает управляющие символы, из-за которых
// json.Unmarshal отвергает строковые литералы.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

func filterNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
