package domain

import (
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hollow Depths: обзор", "hollow-depths"},
		{"Nintendo Switch 2 Officially Announced!", "nintendo-switch-2-officially-announced"},
		{"  Multiple   Spaces  ", "multiple-spaces"},
		{"snake_case_title", "snake-case-title"},
		{"UPPER lower 42", "upper-lower-42"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, ожидали %q", tc.title, got, tc.want)
		}
	}
}

func TestSlugifyCharsetAndLength(t *testing.T) {
	long := strings.Repeat("very long game title ", 10)
	slug := Slugify(long)
	if len(slug) == 0 || len(slug) > 60 {
		t.Fatalf("длина слага %d вне диапазона 1..60", len(slug))
	}
	for _, r := range slug {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			t.Fatalf("недопустимый символ %q в слаге %q", r, slug)
		}
	}
	if strings.HasSuffix(slug, "-") || strings.HasPrefix(slug, "-") {
		t.Fatalf("слаг %q начинается или кончается дефисом", slug)
	}
}

func TestSlugifyFallback(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	got := slugifyAt("！？【速報】", now)
	if got != "article-1700000000000" {
		t.Fatalf("ожидали заглушку с меткой времени, получили %q", got)
	}
}
