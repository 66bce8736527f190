package media

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

const aiDisclaimer = `<p class="text-xs text-zinc-400 mt-8">Статья сгенерирована ИИ. Сверяйтесь с первоисточниками.</p>`

var h2Pattern = regexp.MustCompile(`(?i)<h2[\s>]`)

// composeBody собирает итоговое тело статьи: ведущий блок с видео или
// картинкой, тело черновика с картинками перед заголовками, виджет
// магазина, список источников и дисклеймер.
func composeBody(draft domain.Draft, media domain.ResolvedMedia) string {
	var b strings.Builder

	switch {
	case media.VideoID != "":
		b.WriteString(videoEmbed(media.VideoID))
		b.WriteString("\n")
	case len(media.InsertedImages) > 0:
		b.WriteString(imageFigure(media.InsertedImages[0], draft.Title))
		b.WriteString("\n")
	}

	body := draft.Content
	if len(media.InsertedImages) > 1 {
		body = spliceImages(body, media.InsertedImages[1:], draft.Title)
	}
	b.WriteString(body)

	if media.StoreWidgetID != "" {
		b.WriteString("\n")
		b.WriteString(storeWidget(media.StoreWidgetID))
	}

	if appendix := referencesAppendix(draft.References); appendix != "" {
		b.WriteString("\n")
		b.WriteString(appendix)
	}

	b.WriteString("\n")
	b.WriteString(aiDisclaimer)
	return b.String()
}

// spliceImages вставляет картинки перед заголовками h2, начиная со
// второго: первый раздел остаётся сразу после ведущего блока.
func spliceImages(body string, images []string, alt string) string {
	locs := h2Pattern.FindAllStringIndex(body, -1)
	if len(locs) < 2 {
		return body
	}

	var b strings.Builder
	prev := 0
	next := 0
	for _, loc := range locs[1:] {
		if next >= len(images) {
			break
		}
		b.WriteString(body[prev:loc[0]])
		b.WriteString(imageFigure(images[next], alt))
		b.WriteString("\n")
		prev = loc[0]
		next++
	}
	b.WriteString(body[prev:])
	return b.String()
}

func videoEmbed(videoID string) string {
	return fmt.Sprintf(
		`<div class="aspect-video"><iframe src="https://www.youtube.com/embed/%s" title="Трейлер" allowfullscreen loading="lazy"></iframe></div>`,
		html.EscapeString(videoID),
	)
}

func imageFigure(imageURL, alt string) string {
	return fmt.Sprintf(
		`<figure><img src="%s" alt="%s" loading="lazy"></figure>`,
		html.EscapeString(imageURL), html.EscapeString(alt),
	)
}

func storeWidget(appID string) string {
	return fmt.Sprintf(
		`<iframe src="https://store.steampowered.com/widget/%s/" class="w-full" height="190" loading="lazy"></iframe>`,
		html.EscapeString(appID),
	)
}

// referencesAppendix рендерит список источников. Записи без названия
// или без URL пропускаются; пустой список не рендерится вовсе.
func referencesAppendix(refs []domain.Reference) string {
	var items []string
	for _, ref := range refs {
		if strings.TrimSpace(ref.Title) == "" || strings.TrimSpace(ref.URL) == "" {
			continue
		}
		items = append(items, fmt.Sprintf(
			`<li><a href="%s" target="_blank" rel="noopener noreferrer">%s</a></li>`,
			html.EscapeString(ref.URL), html.EscapeString(ref.Title),
		))
	}
	if len(items) == 0 {
		return ""
	}
	return "<h2>Источники</h2>\n<ul>\n" + strings.Join(items, "\n") + "\n</ul>"
}
