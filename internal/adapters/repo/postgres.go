package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

// ErrNotFound возвращается, когда статья не найдена.
var ErrNotFound = errors.New("статья не найдена")

// Postgres реализует репозитории статей и учёта токенов на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ArticleRepo = (*Postgres)(nil)
	_ domain.UsageRepo   = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Ping проверяет доступность БД перед запуском конвейера.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.Ping(ctx)
	metrics.ObserveNetworkRequest("postgres", "ping", "articles", start, err)
	return err
}

// ExistsBySourceURL сообщает, сохранена ли уже статья с таким источником.
func (p *Postgres) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var exists bool
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM articles WHERE source_url = $1)
`, sourceURL).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "articles_exists", "articles", start, err)
	if err != nil {
		return false, fmt.Errorf("exists by source url: %w", err)
	}
	return exists, nil
}

// Insert сохраняет новую статью и возвращает её идентификатор.
func (p *Postgres) Insert(ctx context.Context, article domain.Article) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}
	if article.Status == "" {
		article.Status = domain.StatusDraft
	}

	start := time.Now()
	var id int64
	err := p.pool.QueryRow(ctx, `
INSERT INTO articles (slug, title, excerpt, content, author, image_url, source_url, source_name, tags, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id
`, article.Slug, article.Title, article.Excerpt, article.Content, article.Author,
		article.ImageURL, article.SourceURL, article.SourceName, article.Tags,
		string(article.Status), article.CreatedAt).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "articles_insert", "articles", start, err)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

const articleColumns = `id, slug, title, excerpt, content, author, image_url, source_url, source_name, tags, views, status, created_at, published_at`

func scanArticle(row pgx.Row) (domain.Article, error) {
	var a domain.Article
	var status string
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Excerpt, &a.Content, &a.Author,
		&a.ImageURL, &a.SourceURL, &a.SourceName, &a.Tags, &a.Views, &status,
		&a.CreatedAt, &a.PublishedAt)
	if err != nil {
		return domain.Article{}, err
	}
	a.Status = domain.ArticleStatus(status)
	return a, nil
}

// GetBySlug возвращает статью по слагу.
func (p *Postgres) GetBySlug(ctx context.Context, slug string) (domain.Article, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	article, err := scanArticle(p.pool.QueryRow(ctx, `
SELECT `+articleColumns+` FROM articles WHERE slug = $1
`, slug))
	metrics.ObserveNetworkRequest("postgres", "articles_get_by_slug", "articles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article by slug: %w", err)
	}
	return article, nil
}

// List возвращает страницу статей и общее число подходящих под фильтр.
func (p *Postgres) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": string(filter.Status)})
	}
	if filter.Tag != "" {
		where = append(where, sq.Expr("? = ANY(tags)", filter.Tag))
	}

	countQuery := builder.Select("COUNT(*)").From("articles")
	if len(where) > 0 {
		countQuery = countQuery.Where(where)
	}
	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	start := time.Now()
	var total int
	err = p.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "articles_count", "articles", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	listQuery := builder.Select(articleColumns).From("articles").OrderBy("created_at DESC", "id DESC")
	if len(where) > 0 {
		listQuery = listQuery.Where(where)
	}
	if filter.Limit > 0 {
		listQuery = listQuery.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		listQuery = listQuery.Offset(uint64(filter.Offset))
	}
	listSQL, listArgs, err := listQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	start = time.Now()
	rows, err := p.pool.Query(ctx, listSQL, listArgs...)
	metrics.ObserveNetworkRequest("postgres", "articles_list", "articles", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, total, nil
}

// SetStatus меняет статус статьи. Дата публикации проставляется
// один раз, при первом переходе в published.
func (p *Postgres) SetStatus(ctx context.Context, id int64, status domain.ArticleStatus) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE articles
SET status = $2,
    published_at = CASE WHEN $2 = 'published' THEN COALESCE(published_at, NOW()) ELSE published_at END
WHERE id = $1
`, id, string(status))
	metrics.ObserveNetworkRequest("postgres", "articles_set_status", "articles", start, err)
	if err != nil {
		return fmt.Errorf("set article status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Update перезаписывает редактируемые поля статьи.
func (p *Postgres) Update(ctx context.Context, article domain.Article) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE articles
SET title = $2, excerpt = $3, content = $4, author = $5, image_url = $6, tags = $7
WHERE id = $1
`, article.ID, article.Title, article.Excerpt, article.Content, article.Author,
		article.ImageURL, article.Tags)
	metrics.ObserveNetworkRequest("postgres", "articles_update", "articles", start, err)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет статью.
func (p *Postgres) Delete(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "articles_delete", "articles", start, err)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany удаляет статьи пачкой. Отсутствующие ID молча пропускаются.
func (p *Postgres) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM articles WHERE id = ANY($1)`, ids)
	metrics.ObserveNetworkRequest("postgres", "articles_delete_many", "articles", start, err)
	if err != nil {
		return fmt.Errorf("delete articles: %w", err)
	}
	return nil
}

// IncrementViews атомарно увеличивает счётчик просмотров.
func (p *Postgres) IncrementViews(ctx context.Context, slug string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE articles SET views = views + 1 WHERE slug = $1`, slug)
	metrics.ObserveNetworkRequest("postgres", "articles_increment_views", "articles", start, err)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
