package domain

import (
	"context"
	"fmt"
	"time"
)

// Attribute выбирает шаблон статьи.
type Attribute string

const (
	// AttributeGameNews — шаблон новостной заметки.
	AttributeGameNews Attribute = "game_news"
	// AttributeGameIntro — шаблон обзорного знакомства с игрой.
	AttributeGameIntro Attribute = "game_intro"
)

// ParseAttribute проверяет значение атрибута из CLI или HTTP.
func ParseAttribute(raw string) (Attribute, error) {
	switch Attribute(raw) {
	case AttributeGameNews, AttributeGameIntro:
		return Attribute(raw), nil
	case "":
		return AttributeGameNews, nil
	}
	return "", fmt.Errorf("неизвестный атрибут %q", raw)
}

// JobCause описывает источник запроса на генерацию.
type JobCause string

const (
	// JobCauseManual — оператор запросил генерацию вручную.
	JobCauseManual JobCause = "manual"
	// JobCauseScheduled — генерация запущена по расписанию.
	JobCauseScheduled JobCause = "scheduled"
)

// GenerationJob содержит параметры одного запуска конвейера.
type GenerationJob struct {
	ID          string    `json:"job_id"`
	Keyword     string    `json:"keyword,omitempty"`
	Attribute   Attribute `json:"attribute"`
	MaxArticles int       `json:"max_articles,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	Cause       JobCause  `json:"cause"`
}

// AckFunc подтверждает обработку задачи или возвращает её в очередь.
type AckFunc func(success bool) error

// GenerationQueue — очередь задач генерации.
type GenerationQueue interface {
	Enqueue(ctx context.Context, job GenerationJob) error
	Receive(ctx context.Context) (GenerationJob, AckFunc, error)
}
