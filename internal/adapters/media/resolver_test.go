package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

type stubJudge struct {
	verdicts map[string]bool
	err      error
	calls    []string
}

func (s *stubJudge) Judge(_ context.Context, imageURL, _, _ string) (bool, error) {
	s.calls = append(s.calls, imageURL)
	if s.err != nil {
		return false, s.err
	}
	return s.verdicts[imageURL], nil
}

type stubVideo struct {
	id    string
	err   error
	query string
}

func (s *stubVideo) SearchVideo(_ context.Context, query string) (string, error) {
	s.query = query
	return s.id, s.err
}

type stubStore struct {
	appID string
	err   error
}

func (s *stubStore) SearchApp(_ context.Context, _ string) (string, error) {
	return s.appID, s.err
}

// mediaServer поднимает источник со страницами og:image и живыми картинками.
func mediaServer(t *testing.T, images map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	for page, image := range images {
		page, image := page, image
		mux.HandleFunc("/page/"+page, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, `<html><head><meta property="og:image" content="%s/img/%s"></head></html>`, srv.URL, image)
		})
		mux.HandleFunc("/img/"+image, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
		})
	}
	return srv
}

func newTestResolver(srv *httptest.Server, judge RelevanceJudge, video VideoSearcher, store StoreSearcher) *Resolver {
	r := NewResolver(judge, video, store, zerolog.Nop())
	r.pages = srv.Client()
	r.images = srv.Client()
	return r
}

func TestResolveCollectsRelevantImages(t *testing.T) {
	srv := mediaServer(t, map[string]string{"a": "a.jpg", "b": "b.jpg"})

	judge := &stubJudge{verdicts: map[string]bool{
		srv.URL + "/img/a.jpg": true,
		srv.URL + "/img/b.jpg": false,
	}}

	r := newTestResolver(srv, judge, nil, nil)
	draft := domain.Draft{
		Title:   "Новость",
		Content: "<p>Текст.</p>",
		References: []domain.Reference{
			{Title: "A", URL: srv.URL + "/page/a"},
			{Title: "B", URL: srv.URL + "/page/b"},
		},
	}

	_, media, err := r.Resolve(context.Background(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(media.InsertedImages) != 1 || !strings.HasSuffix(media.InsertedImages[0], "a.jpg") {
		t.Fatalf("ожидалась одна релевантная картинка a.jpg, получено %v", media.InsertedImages)
	}
	if media.MainImageURL != media.InsertedImages[0] {
		t.Errorf("обложкой должна быть первая картинка, получено %q", media.MainImageURL)
	}
}

func TestResolveJudgeFailureKeepsImage(t *testing.T) {
	srv := mediaServer(t, map[string]string{"a": "a.jpg"})
	judge := &stubJudge{err: errors.New("vision недоступен")}

	r := newTestResolver(srv, judge, nil, nil)
	draft := domain.Draft{
		Title:      "Новость",
		Content:    "<p>Текст.</p>",
		References: []domain.Reference{{Title: "A", URL: srv.URL + "/page/a"}},
	}

	_, media, err := r.Resolve(context.Background(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(media.InsertedImages) != 1 {
		t.Fatalf("сбой проверки релевантности не должен отбрасывать картинку, получено %v", media.InsertedImages)
	}
}

func TestResolveThumbnailCoverWhenOnlyVideo(t *testing.T) {
	srv := mediaServer(t, nil)
	video := &stubVideo{id: "vid42"}

	r := newTestResolver(srv, nil, video, nil)
	draft := domain.Draft{Title: "Silksong", Content: "<p>Текст.</p>"}

	out, media, err := r.Resolve(context.Background(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if media.MainImageURL != "https://i.ytimg.com/vi/vid42/hqdefault.jpg" {
		t.Errorf("без картинок обложка строится из видео, получено %q", media.MainImageURL)
	}
	if !strings.Contains(out.Content, "youtube.com/embed/vid42") {
		t.Errorf("в теле нет встроенного видео: %s", out.Content)
	}
	if video.query != "Silksong official trailer" {
		t.Errorf("неверный запрос поиска видео: %q", video.query)
	}
}

func TestResolveSearchFailuresAreNonFatal(t *testing.T) {
	srv := mediaServer(t, nil)
	video := &stubVideo{err: errors.New("квота исчерпана")}
	store := &stubStore{err: errors.New("магазин лежит")}

	r := newTestResolver(srv, nil, video, store)
	draft := domain.Draft{Title: "Новость", Content: "<p>Текст.</p>"}

	_, media, err := r.Resolve(context.Background(), draft)
	if err != nil {
		t.Fatalf("сбои поиска не должны валить обогащение: %v", err)
	}
	if media.VideoID != "" || media.StoreWidgetID != "" {
		t.Errorf("при сбоях поиска медиа должно остаться пустым: %+v", media)
	}
}

func TestResolveBrokenReferenceSkipped(t *testing.T) {
	srv := mediaServer(t, map[string]string{"ok": "ok.jpg"})

	r := newTestResolver(srv, nil, nil, nil)
	draft := domain.Draft{
		Title:   "Новость",
		Content: "<p>Текст.</p>",
		References: []domain.Reference{
			{Title: "Битая", URL: srv.URL + "/page/missing"},
			{Title: "Живая", URL: srv.URL + "/page/ok"},
		},
	}

	_, media, err := r.Resolve(context.Background(), draft)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(media.InsertedImages) != 1 || !strings.HasSuffix(media.InsertedImages[0], "ok.jpg") {
		t.Fatalf("битый источник пропускается, живой остаётся, получено %v", media.InsertedImages)
	}
}
