package generator

import (
	"strings"
	"testing"
)

const validPayload = `{"title":"Hollow Depths вышла","excerpt":"Метроидвания вышла в релиз.","content":"<p>Вышла.</p><h2>Детали</h2><p>Много.</p>","tags":["инди"],"references":[{"title":"Steam","url":"https://store.steampowered.com/app/1"}]}`

func TestParseDraftPlainJSON(t *testing.T) {
	draft, err := ParseDraft(validPayload)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if draft.Title != "Hollow Depths вышла" {
		t.Fatalf("неожиданный title: %q", draft.Title)
	}
	if draft.Slug != "hollow-depths" {
		t.Fatalf("неожиданный slug: %q", draft.Slug)
	}
	if len(draft.References) != 1 || draft.References[0].URL != "https://store.steampowered.com/app/1" {
		t.Fatalf("ссылки не разобраны: %+v", draft.References)
	}
}

func TestParseDraftStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validPayload + "\n```"
	draft, err := ParseDraft(fenced)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if draft.Title == "" {
		t.Fatal("черновик пуст")
	}
}

func TestParseDraftStripsControlChars(t *testing.T) {
	dirty := strings.ReplaceAll(validPayload, `"инди"`, "\"ин\x00ди\x07\"")
	draft, err := ParseDraft(dirty)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if draft.Tags[0] != "инди" {
		t.Fatalf("управляющие символы не вычищены: %q", draft.Tags[0])
	}
}

func TestParseDraftRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"нет title":   `{"excerpt":"a","content":"<p>b</p>"}`,
		"нет excerpt": `{"title":"a","content":"<p>b</p>"}`,
		"нет content": `{"title":"a","excerpt":"b"}`,
		"не JSON":     `title: a`,
		"пусто":       "",
	}
	for name, raw := range cases {
		if _, err := ParseDraft(raw); err == nil {
			t.Errorf("%s: ожидали ошибку", name)
		}
	}
}

func TestParseDraftFiltersEmptyTags(t *testing.T) {
	raw := strings.ReplaceAll(validPayload, `["инди"]`, `["инди"," ",""]`)
	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(draft.Tags) != 1 {
		t.Fatalf("ожидали один тег, получили %v", draft.Tags)
	}
}
