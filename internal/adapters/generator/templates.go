package generator

import (
	"fmt"
	"strings"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

const summaryLimit = 500

// commonRules — правила источников и медиа, общие для обоих шаблонов.
// Тело статьи не должно содержать медиа-вставок: их добавляет отдельный
// этап конвейера.
const commonRules = `## Правила
- Тело статьи пиши фрагментом HTML, используя только теги h2, p, a, ul, li, blockquote.
- Не вставляй в тело изображения, видео и виджеты (никаких img, iframe, video) — медиа добавляются отдельно.
- Пересказывай факты своими словами, не копируй исходный текст дословно.
- Раздел с реакциями сети можно писать по мотивам обсуждений, но чётко отделяй предположения от фактов.
- В поле references перечисли страницы, на которые ты опирался: официальный сайт, страницы магазинов, крупные издания. Для каждой укажи точный title и url.
- Ссылки на источники не вставляй в тело — они выводятся отдельным блоком.

## Формат ответа (строго JSON, без пояснений и без блоков кода)
{
  "title": "цепляющий заголовок без кликбейта",
  "excerpt": "краткое содержание в 1-2 предложения, не длиннее 100 символов",
  "content": "<p>введение</p><h2>раздел</h2><p>текст</p>...",
  "tags": ["тег1", "тег2", "тег3"],
  "references": [{"title": "название страницы", "url": "https://..."}]
}`

const newsTemplate = `Ты — автор игрового новостного блога «Игровые новости от редакции».
Напиши заметку в стиле блога по новости ниже. Тон разговорный и дружелюбный,
обращайся к читателю напрямую, без избыточного сленга.

## Структура
1. Вводный абзац (<p>) — суть новости в 1-2 предложениях.
2. <h2>Что случилось?</h2> — подробности новости.
3. <h2>Почему это важно</h2> — контекст и значение для игроков.
4. <h2>Реакция сети</h2> — обсуждения и ожидания аудитории.

%s

## Новость
Заголовок: %s
Источник: %s
URL: %s
Аннотация: %s%s`

const introTemplate = `Ты — автор игрового блога «Игровые новости от редакции».
Напиши обзорное знакомство с игрой из новости ниже: что это за игра,
чем она выделяется и кому она понравится. Тон разговорный, без канцелярита.

## Структура
1. Вводный абзац (<p>) — игра и её главная фишка в 1-2 предложениях.
2. <h2>Что это за игра?</h2> — жанр, сеттинг, разработчик.
3. <h2>Чем она цепляет</h2> — механики и особенности.
4. <h2>Кому стоит присмотреться</h2> — аудитория и похожие игры.

%s

## Новость
Заголовок: %s
Источник: %s
URL: %s
Аннотация: %s%s`

// buildPrompt собирает промпт по атрибуту. pageContext — выжимка текста
// исходной страницы; пустая строка допустима.
func buildPrompt(item domain.NewsItem, attribute domain.Attribute, pageContext string) string {
	template := newsTemplate
	if attribute == domain.AttributeGameIntro {
		template = introTemplate
	}

	var contextBlock string
	if pageContext != "" {
		contextBlock = fmt.Sprintf("\n\n## Текст исходной страницы (выжимка)\n%s", pageContext)
	}

	return fmt.Sprintf(template,
		commonRules,
		item.Title,
		item.SourceName,
		item.Link,
		clipRunes(strings.TrimSpace(item.Summary), summaryLimit),
		contextBlock,
	)
}

func clipRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
