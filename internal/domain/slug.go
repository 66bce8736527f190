package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const slugMaxLen = 60

// Slugify строит URL-безопасный слаг из заголовка: строчные латинские буквы,
// цифры и дефисы, не длиннее 60 символов. Если от заголовка ничего не
// остаётся, возвращает заглушку с текущей меткой времени.
func Slugify(title string) string {
	return slugifyAt(title, time.Now())
}

func slugifyAt(title string, now time.Time) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > slugMaxLen {
		slug = strings.Trim(slug[:slugMaxLen], "-")
	}
	if slug == "" {
		return fmt.Sprintf("article-%d", now.UnixMilli())
	}
	return slug
}
