package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

const defaultMaxImages = 3

// VideoSearcher ищет ролик по текстовому запросу и возвращает его ID.
type VideoSearcher interface {
	SearchVideo(ctx context.Context, query string) (string, error)
}

// StoreSearcher ищет игру в магазине и возвращает её идентификатор.
type StoreSearcher interface {
	SearchApp(ctx context.Context, title string) (string, error)
}

// RelevanceJudge решает, относится ли картинка к статье.
type RelevanceJudge interface {
	Judge(ctx context.Context, imageURL, title, excerpt string) (bool, error)
}

// Resolver обогащает черновик медиа: картинки со страниц источников,
// трейлер с YouTube и виджет магазина Steam.
type Resolver struct {
	pages     *http.Client
	images    *http.Client
	judge     RelevanceJudge
	video     VideoSearcher
	store     StoreSearcher
	log       zerolog.Logger
	maxImages int
}

// NewResolver создаёт обогатитель медиа. judge, video и store могут быть nil,
// соответствующий шаг тогда пропускается.
func NewResolver(judge RelevanceJudge, video VideoSearcher, store StoreSearcher, logger zerolog.Logger) *Resolver {
	return &Resolver{
		pages:     &http.Client{Timeout: 20 * time.Second},
		images:    &http.Client{Timeout: 10 * time.Second},
		judge:     judge,
		video:     video,
		store:     store,
		log:       logger,
		maxImages: defaultMaxImages,
	}
}

// Resolve собирает медиа для черновика и собирает итоговое тело статьи.
// Ошибки отдельных шагов не фатальны: статья без трейлера лучше,
// чем никакая.
func (r *Resolver) Resolve(ctx context.Context, draft domain.Draft) (domain.Draft, domain.ResolvedMedia, error) {
	var media domain.ResolvedMedia

	media.InsertedImages = r.collectImages(ctx, draft)

	if r.video != nil {
		videoID, err := r.video.SearchVideo(ctx, draft.Title+" official trailer")
		if err != nil {
			r.log.Warn().Err(err).Str("title", draft.Title).Msg("media: поиск видео не удался")
		} else {
			media.VideoID = videoID
		}
	}

	if r.store != nil {
		appID, err := r.store.SearchApp(ctx, draft.Title)
		if err != nil {
			r.log.Warn().Err(err).Str("title", draft.Title).Msg("media: поиск в магазине не удался")
		} else {
			media.StoreWidgetID = appID
		}
	}

	switch {
	case len(media.InsertedImages) > 0:
		media.MainImageURL = media.InsertedImages[0]
	case media.VideoID != "":
		media.MainImageURL = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", media.VideoID)
	}

	draft.Content = composeBody(draft, media)
	return draft, media, nil
}

// collectImages обходит страницы источников и собирает до maxImages
// проверенных картинок. Сомнительные и дублирующиеся отбрасываются.
func (r *Resolver) collectImages(ctx context.Context, draft domain.Draft) []string {
	var images []string
	seen := make(map[string]bool)

	for _, ref := range draft.References {
		if len(images) >= r.maxImages {
			break
		}
		if ref.URL == "" {
			continue
		}

		imageURL, err := r.ogImageURL(ctx, ref.URL)
		if err != nil {
			r.log.Debug().Err(err).Str("page", ref.URL).Msg("media: og:image не получен")
			continue
		}
		if seen[imageURL] {
			continue
		}
		seen[imageURL] = true

		if err := r.validateImage(ctx, imageURL); err != nil {
			r.log.Debug().Err(err).Str("image", imageURL).Msg("media: картинка не прошла проверку")
			continue
		}

		if r.judge != nil {
			relevant, err := r.judge.Judge(ctx, imageURL, draft.Title, draft.Excerpt)
			if err != nil {
				// Сбой проверки не повод терять картинку.
				r.log.Warn().Err(err).Str("image", imageURL).Msg("media: проверка релевантности не удалась")
			} else if !relevant {
				continue
			}
		}

		images = append(images, imageURL)
	}
	return images
}
