package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/gemini"
)

type scriptedClient struct {
	responses []func() (gemini.GenerateContentResponse, error)
	calls     int
}

func (c *scriptedClient) GenerateContent(_ context.Context, _ string, _ gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error) {
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		return gemini.GenerateContentResponse{}, errors.New("лишний вызов")
	}
	return c.responses[idx]()
}

func textResponse(text string) func() (gemini.GenerateContentResponse, error) {
	return func() (gemini.GenerateContentResponse, error) {
		return gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{
				{Content: gemini.Content{Parts: []gemini.Part{{Text: text}}}},
			},
			UsageMetadata: &gemini.UsageMetadata{PromptTokenCount: 100, CandidatesTokenCount: 200},
		}, nil
	}
}

func failResponse() func() (gemini.GenerateContentResponse, error) {
	return func() (gemini.GenerateContentResponse, error) {
		return gemini.GenerateContentResponse{}, errors.New("api down")
	}
}

type usageRecorder struct {
	records []domain.UsageRecord
}

func (u *usageRecorder) RecordUsage(_ context.Context, rec domain.UsageRecord) error {
	u.records = append(u.records, rec)
	return nil
}

func newTestGenerator(client *scriptedClient, usage domain.UsageRepo, slept *[]time.Duration) *Gemini {
	g := NewGemini(client, "gemini-test", usage, nil, zerolog.Nop())
	g.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return g
}

func TestGenerateSucceedsOnThirdAttempt(t *testing.T) {
	client := &scriptedClient{responses: []func() (gemini.GenerateContentResponse, error){
		failResponse(),
		failResponse(),
		textResponse(validPayload),
	}}
	usage := &usageRecorder{}
	var slept []time.Duration
	g := newTestGenerator(client, usage, &slept)

	draft, err := g.Generate(context.Background(), domain.NewsItem{Title: "n"}, domain.AttributeGameNews)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if draft.Title == "" {
		t.Fatal("черновик пуст")
	}
	if len(slept) != 2 || slept[0] != 15*time.Second || slept[1] != 30*time.Second {
		t.Fatalf("ожидали паузы 15s и 30s, получили %v", slept)
	}
	if len(usage.records) != 1 || usage.records[0].Operation != domain.UsageOpGenerate {
		t.Fatalf("ожидали одну запись учёта generate, получили %+v", usage.records)
	}
	if usage.records[0].InputTokens != 100 || usage.records[0].OutputTokens != 200 {
		t.Fatalf("токены не из usageMetadata: %+v", usage.records[0])
	}
}

func TestGenerateExhaustsRetries(t *testing.T) {
	client := &scriptedClient{responses: []func() (gemini.GenerateContentResponse, error){
		failResponse(), failResponse(), failResponse(),
	}}
	var slept []time.Duration
	g := newTestGenerator(client, nil, &slept)

	_, err := g.Generate(context.Background(), domain.NewsItem{Title: "n"}, domain.AttributeGameNews)
	if err == nil {
		t.Fatal("ожидали ошибку после исчерпания попыток")
	}
	if client.calls != 3 {
		t.Fatalf("ожидали 3 вызова, было %d", client.calls)
	}
	if len(slept) != 2 {
		t.Fatalf("ожидали 2 паузы, было %d", len(slept))
	}
}

func TestGenerateMalformedJSONIsFailedAttempt(t *testing.T) {
	client := &scriptedClient{responses: []func() (gemini.GenerateContentResponse, error){
		textResponse("это не JSON"),
		textResponse(validPayload),
	}}
	usage := &usageRecorder{}
	var slept []time.Duration
	g := newTestGenerator(client, usage, &slept)

	_, err := g.Generate(context.Background(), domain.NewsItem{Title: "n"}, domain.AttributeGameNews)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("ожидали повтор после кривого JSON, вызовов %d", client.calls)
	}
	// Оба вызова дошли до модели, оба потратили токены.
	if len(usage.records) != 2 {
		t.Fatalf("ожидали две записи учёта, получили %d", len(usage.records))
	}
}
