package media

import (
	"strings"
	"testing"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

func TestComposeBodyVideoLeads(t *testing.T) {
	draft := domain.Draft{
		Title:   "Silksong выходит в сентябре",
		Content: "<p>Новость.</p>",
	}
	media := domain.ResolvedMedia{
		VideoID:        "abc123",
		InsertedImages: []string{"https://cdn.example.com/cover.jpg"},
	}

	body := composeBody(draft, media)

	if !strings.HasPrefix(body, `<div class="aspect-video">`) {
		t.Fatalf("при наличии видео ведущим блоком должно быть видео, получено: %s", body)
	}
	if strings.Contains(body, "cover.jpg") {
		t.Errorf("первая картинка уходит в обложку и не должна попадать в тело: %s", body)
	}
}

func TestComposeBodyImageLeadsWithoutVideo(t *testing.T) {
	draft := domain.Draft{Title: "Анонс", Content: "<p>Текст.</p>"}
	media := domain.ResolvedMedia{InsertedImages: []string{"https://cdn.example.com/main.jpg"}}

	body := composeBody(draft, media)

	if !strings.HasPrefix(body, "<figure>") {
		t.Fatalf("без видео ведущим блоком должна быть картинка, получено: %s", body)
	}
	if !strings.Contains(body, "main.jpg") {
		t.Errorf("в ведущем блоке нет картинки: %s", body)
	}
}

func TestComposeBodySplicesBeforeSecondHeading(t *testing.T) {
	draft := domain.Draft{
		Title:   "Обзор",
		Content: "<h2>Первый</h2><p>a</p><h2>Второй</h2><p>b</p><h2>Третий</h2><p>c</p>",
	}
	media := domain.ResolvedMedia{
		InsertedImages: []string{
			"https://cdn.example.com/0.jpg",
			"https://cdn.example.com/1.jpg",
			"https://cdn.example.com/2.jpg",
		},
	}

	body := composeBody(draft, media)

	first := strings.Index(body, "<h2>Первый</h2>")
	second := strings.Index(body, "<h2>Второй</h2>")
	third := strings.Index(body, "<h2>Третий</h2>")
	img1 := strings.Index(body, "1.jpg")
	img2 := strings.Index(body, "2.jpg")

	if img1 < first || img1 > second {
		t.Errorf("вторая картинка должна стоять перед вторым заголовком: %s", body)
	}
	if img2 < second || img2 > third {
		t.Errorf("третья картинка должна стоять перед третьим заголовком: %s", body)
	}
}

func TestComposeBodyNoSpliceBeforeFirstHeading(t *testing.T) {
	draft := domain.Draft{
		Title:   "Обзор",
		Content: "<h2>Единственный</h2><p>a</p>",
	}
	media := domain.ResolvedMedia{
		InsertedImages: []string{
			"https://cdn.example.com/cover.jpg",
			"https://cdn.example.com/extra.jpg",
		},
	}

	body := composeBody(draft, media)

	if strings.Contains(body, "extra.jpg") {
		t.Errorf("при одном заголовке вставлять нечего, получено: %s", body)
	}
}

func TestComposeBodyAppendixSkipsEmptyEntries(t *testing.T) {
	draft := domain.Draft{
		Title:   "Новость",
		Content: "<p>Текст.</p>",
		References: []domain.Reference{
			{Title: "A", URL: "https://a.example.com"},
			{Title: "", URL: "https://b.example.com"},
			{Title: "C", URL: ""},
		},
	}

	body := composeBody(draft, domain.ResolvedMedia{})

	if !strings.Contains(body, `href="https://a.example.com"`) {
		t.Errorf("полная запись должна попасть в список источников: %s", body)
	}
	if strings.Contains(body, "b.example.com") || strings.Contains(body, ">C<") {
		t.Errorf("записи без названия или URL не должны попадать в список: %s", body)
	}
}

func TestComposeBodyAppendsWidgetAndDisclaimer(t *testing.T) {
	draft := domain.Draft{Title: "Новость", Content: "<p>Текст.</p>"}
	media := domain.ResolvedMedia{StoreWidgetID: "12345"}

	body := composeBody(draft, media)

	if !strings.Contains(body, "store.steampowered.com/widget/12345/") {
		t.Errorf("виджет магазина не добавлен: %s", body)
	}
	if !strings.HasSuffix(body, aiDisclaimer) {
		t.Errorf("дисклеймер должен завершать тело: %s", body)
	}
}
