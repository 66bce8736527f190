package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/config"
)

func rssBody(n int) string {
	items := ""
	for i := 1; i <= n; i++ {
		items += fmt.Sprintf(`<item><title>News %d</title><link>https://example.com/%d</link><description>Summary %d</description></item>`, i, i, i)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>` + items + `</channel></rss>`
}

func TestFetchNewsBrokenFeedDoesNotAbortRun(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody(2)))
	}))
	defer good.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	feeds := []config.Feed{
		{Name: "broken", URL: broken.URL},
		{Name: "good", URL: good.URL},
	}
	collector := NewCollector(feeds, nil, zerolog.Nop())

	items, err := collector.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "good", items[0].SourceName)
	assert.Equal(t, "https://example.com/1", items[0].Link)
}

func TestFetchNewsCapsItemsPerFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody(9)))
	}))
	defer srv.Close()

	collector := NewCollector([]config.Feed{{Name: "big", URL: srv.URL}}, nil, zerolog.Nop())
	items, err := collector.FetchNews(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestFetchNewsDropsEntriesWithoutLink(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>` +
		`<item><title>No link</title><description>x</description></item>` +
		`<item><title>Ok</title><link>https://example.com/ok</link></item>` +
		`</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	collector := NewCollector([]config.Feed{{Name: "feed", URL: srv.URL}}, nil, zerolog.Nop())
	items, err := collector.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ok", items[0].Title)
}

func TestKeywordItem(t *testing.T) {
	c := NewCollector(nil, nil, zerolog.Nop())
	item := c.KeywordItem("TestGame")
	assert.Equal(t, "TestGame", item.Title)
	assert.Empty(t, item.Link)
	assert.Contains(t, item.Summary, "TestGame")
}
