package domain

import "time"

// NewsItem описывает кандидата новости из RSS-ленты или ключевого слова оператора.
// Для ключевых слов Link остаётся пустым.
type NewsItem struct {
	Title      string
	Link       string
	SourceName string
	Summary    string
}

// Reference хранит ссылку на первоисточник, предложенную моделью.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Draft представляет сгенерированную статью до обогащения медиа и сохранения.
type Draft struct {
	Title      string
	Excerpt    string
	Content    string
	Tags       []string
	References []Reference
	Slug       string
}

// ResolvedMedia содержит найденные для черновика медиа-ресурсы.
type ResolvedMedia struct {
	MainImageURL   string
	VideoID        string
	StoreWidgetID  string
	InsertedImages []string
}

// ArticleStatus — статус публикации статьи.
type ArticleStatus string

const (
	// StatusDraft — статья создана конвейером и ждёт модерации.
	StatusDraft ArticleStatus = "draft"
	// StatusPublished — статья опубликована администратором.
	StatusPublished ArticleStatus = "published"
)

// Article — сохранённая статья блога.
type Article struct {
	ID          int64
	Slug        string
	Title       string
	Excerpt     string
	Content     string
	Author      string
	ImageURL    string
	SourceURL   string
	SourceName  string
	Tags        []string
	Views       int64
	Status      ArticleStatus
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// UsageRecord — одна строка учёта токенов за вызов модели. Только добавляется.
type UsageRecord struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Operation    string
	CreatedAt    time.Time
}

const (
	// UsageOpGenerate — токены потрачены на генерацию черновика.
	UsageOpGenerate = "generate"
	// UsageOpImageValidation — токены потрачены на проверку релевантности картинки.
	UsageOpImageValidation = "image_validation"
)

// ProgressStatus — состояние фонового запуска конвейера.
type ProgressStatus string

const (
	// ProgressRunning — запуск выполняется.
	ProgressRunning ProgressStatus = "running"
	// ProgressCompleted — запуск завершился успешно.
	ProgressCompleted ProgressStatus = "completed"
	// ProgressError — запуск завершился ошибкой.
	ProgressError ProgressStatus = "error"
	// ProgressIdle — запусков ещё не было.
	ProgressIdle ProgressStatus = "idle"
)

// Progress — запись прогресса для внешнего опроса. Перезаписывается на месте.
type Progress struct {
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Status    ProgressStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunSummary — итог одного запуска конвейера.
type RunSummary struct {
	Collected int
	Skipped   int
	Generated int
	Failed    int
}
