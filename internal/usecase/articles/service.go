package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

// ErrInvalidStatus возвращается при неизвестном статусе публикации.
var ErrInvalidStatus = errors.New("неизвестный статус статьи")

// Service реализует операции админки над статьями.
type Service struct {
	repo domain.ArticleRepo
}

// NewService создаёт сервис статей.
func NewService(repo domain.ArticleRepo) *Service {
	return &Service{repo: repo}
}

// List возвращает страницу статей и общее число подходящих под фильтр.
func (s *Service) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// GetBySlug возвращает статью по слагу.
func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Article, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// SetStatus публикует или снимает с публикации статью.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	parsed := domain.ArticleStatus(strings.TrimSpace(status))
	if parsed != domain.StatusDraft && parsed != domain.StatusPublished {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.SetStatus(ctx, id, parsed)
}

// Update перезаписывает редактируемые поля статьи.
func (s *Service) Update(ctx context.Context, article domain.Article) error {
	if strings.TrimSpace(article.Title) == "" {
		return errors.New("пустой заголовок")
	}
	return s.repo.Update(ctx, article)
}

// Delete удаляет одну статью.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// DeleteMany удаляет статьи пачкой.
func (s *Service) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.repo.DeleteMany(ctx, ids)
}

// RegisterView увеличивает счётчик просмотров статьи.
func (s *Service) RegisterView(ctx context.Context, slug string) error {
	return s.repo.IncrementViews(ctx, slug)
}
