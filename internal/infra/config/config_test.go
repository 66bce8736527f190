package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFeedsMissingFileReturnsDefaults(t *testing.T) {
	feeds, err := LoadFeeds(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(feeds) != len(defaultFeeds) {
		t.Fatalf("ожидали встроенный набор лент, получили %d", len(feeds))
	}
}

func TestLoadFeedsParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := "feeds:\n  - name: Example\n    url: https://example.com/rss\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	feeds, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(feeds) != 1 || feeds[0].Name != "Example" || feeds[0].URL != "https://example.com/rss" {
		t.Fatalf("неожиданный результат: %+v", feeds)
	}
}

func TestLoadFeedsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFeeds(path); err == nil {
		t.Fatal("ожидали ошибку разбора")
	}
}
