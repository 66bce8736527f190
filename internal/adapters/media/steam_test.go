package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func steamServer(t *testing.T, id int, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"items":[{"id":%d,"name":"%s"}]}`, id, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchAppAcceptsMatchingTitle(t *testing.T) {
	srv := steamServer(t, 1030300, "Hollow Knight: Silksong")
	s := NewSteamSearcher(srv.URL, srv.Client())

	appID, err := s.SearchApp(context.Background(), "Hollow Knight: Silksong выходит в сентябре")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if appID != "1030300" {
		t.Errorf("ожидался appid 1030300, получен %q", appID)
	}
}

func TestSearchAppRejectsDisjointTitle(t *testing.T) {
	srv := steamServer(t, 570, "Dota 2")
	s := NewSteamSearcher(srv.URL, srv.Client())

	appID, err := s.SearchApp(context.Background(), "Hollow Knight: Silksong выходит в сентябре")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if appID != "" {
		t.Errorf("несвязанный результат должен отбрасываться, получен %q", appID)
	}
}

func TestSearchAppEmptyTitle(t *testing.T) {
	s := NewSteamSearcher("http://127.0.0.1:0", nil)

	appID, err := s.SearchApp(context.Background(), "   ")
	if err != nil {
		t.Fatalf("пустой запрос не должен замечать сеть: %v", err)
	}
	if appID != "" {
		t.Errorf("по пустому запросу ничего не ищем, получен %q", appID)
	}
}
