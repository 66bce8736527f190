package domain

import (
	"context"
	"time"
)

// NewsSource отдаёт кандидатов новостей для конвейера.
type NewsSource interface {
	FetchNews(ctx context.Context) ([]NewsItem, error)
}

// KeywordSource синтезирует кандидата новости из ключевого слова оператора.
type KeywordSource interface {
	KeywordItem(keyword string) NewsItem
}

// Generator строит черновик статьи по новости. Ошибка означает,
// что все попытки генерации исчерпаны и новость пропускается.
type Generator interface {
	Generate(ctx context.Context, item NewsItem, attribute Attribute) (Draft, error)
}

// MediaResolver обогащает черновик медиа: видео, картинки, витрина магазина.
// Возвращает черновик с финальным телом и найденные медиа-ресурсы.
type MediaResolver interface {
	Resolve(ctx context.Context, draft Draft) (Draft, ResolvedMedia, error)
}

// ArticleFilter задаёт выборку статей для админки.
type ArticleFilter struct {
	Status ArticleStatus
	Tag    string
	Limit  int
	Offset int
}

// ArticleRepo управляет статьями. Конвейер использует только Ping,
// ExistsBySourceURL и Insert; остальное — поверхность админки.
type ArticleRepo interface {
	Ping(ctx context.Context) error
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	Insert(ctx context.Context, article Article) (int64, error)
	GetBySlug(ctx context.Context, slug string) (Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]Article, int, error)
	SetStatus(ctx context.Context, id int64, status ArticleStatus) error
	Update(ctx context.Context, article Article) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) error
	IncrementViews(ctx context.Context, slug string) error
}

// UsageRepo пишет учёт токенов. Записи никогда не изменяются.
type UsageRepo interface {
	RecordUsage(ctx context.Context, record UsageRecord) error
}

// ProgressSink — одноместная очередь прогресса: один писатель (конвейер),
// один читатель (HTTP-эндпоинт), последняя запись побеждает.
type ProgressSink interface {
	Publish(ctx context.Context, progress Progress) error
	Current(ctx context.Context) (Progress, error)
}

// RunLock не даёт запустить два конвейера одновременно.
type RunLock interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// Notifier сообщает оператору об итогах запуска.
type Notifier interface {
	NotifyRunFinished(ctx context.Context, summary RunSummary) error
}
