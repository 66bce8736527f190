package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/adapters/repo"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/config"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/db"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/progress"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/queue"
	articlesusecase "github.com/blackneinnn-ctrl/oreteki-game-news/internal/usecase/articles"
)

func main() {
	cfg := config.Load()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	articleService := articlesusecase.NewService(repoAdapter)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	progressSink := progress.NewRedisSink(redisClient, "")

	if cfg.RabbitURL == "" {
		log.Fatal().Msg("api: не указан адрес RabbitMQ (RABBITMQ_URL)")
	}
	jobs, err := queue.NewRabbitGenerationQueue(cfg.RabbitURL, cfg.Queues.Generation)
	if err != nil {
		log.Fatal().Err(err).Msg("api: не удалось инициализировать очередь RabbitMQ")
	}
	defer jobs.Close()

	r := chi.NewRouter()

	r.Post("/api/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		attribute, err := domain.ParseAttribute(req.Attribute)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		job := domain.GenerationJob{
			ID:          uuid.NewString(),
			Keyword:     req.Keyword,
			Attribute:   attribute,
			MaxArticles: req.MaxArticles,
			RequestedAt: time.Now().UTC(),
			Cause:       domain.JobCauseManual,
		}
		if err := jobs.Enqueue(r.Context(), job); err != nil {
			log.Error().Err(err).Msg("api: не удалось поставить задачу")
			writeError(w, http.StatusInternalServerError, "failed to enqueue job")
			return
		}
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"job_id": job.ID})
	})

	r.Get("/api/v1/generate/progress", func(w http.ResponseWriter, r *http.Request) {
		current, err := progressSink.Current(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("api: не удалось прочитать прогресс")
			writeError(w, http.StatusInternalServerError, "failed to read progress")
			return
		}
		writeJSON(w, current)
	})

	r.Get("/api/v1/articles", func(w http.ResponseWriter, r *http.Request) {
		filter := domain.ArticleFilter{
			Status: domain.ArticleStatus(r.URL.Query().Get("status")),
			Tag:    r.URL.Query().Get("tag"),
		}
		filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
		filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

		list, total, err := articleService.List(r.Context(), filter)
		if err != nil {
			log.Error().Err(err).Msg("api: не удалось получить список статей")
			writeError(w, http.StatusInternalServerError, "failed to list articles")
			return
		}
		items := make([]articleResponse, 0, len(list))
		for _, a := range list {
			items = append(items, toArticleResponse(a))
		}
		writeJSON(w, map[string]any{"articles": items, "total": total})
	})

	r.Get("/api/v1/articles/{slug}", func(w http.ResponseWriter, r *http.Request) {
		article, err := articleService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "article not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("api: не удалось получить статью")
			writeError(w, http.StatusInternalServerError, "failed to get article")
			return
		}
		writeJSON(w, toArticleResponse(article))
	})

	r.Patch("/api/v1/articles/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid article id")
			return
		}
		defer r.Body.Close()
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err = articleService.SetStatus(r.Context(), id, req.Status)
		switch {
		case errors.Is(err, articlesusecase.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "article not found")
		case err != nil:
			log.Error().Err(err).Msg("api: не удалось сменить статус")
			writeError(w, http.StatusInternalServerError, "failed to set status")
		default:
			writeJSON(w, map[string]string{"status": "ok"})
		}
	})

	r.Put("/api/v1/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid article id")
			return
		}
		defer r.Body.Close()
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		article := domain.Article{
			ID:       id,
			Title:    req.Title,
			Excerpt:  req.Excerpt,
			Content:  req.Content,
			Author:   req.Author,
			ImageURL: req.ImageURL,
			Tags:     req.Tags,
		}
		err = articleService.Update(r.Context(), article)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "article not found")
		case err != nil:
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeJSON(w, map[string]string{"status": "ok"})
		}
	})

	r.Delete("/api/v1/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid article id")
			return
		}
		err = articleService.Delete(r.Context(), id)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "article not found")
		case err != nil:
			log.Error().Err(err).Msg("api: не удалось удалить статью")
			writeError(w, http.StatusInternalServerError, "failed to delete article")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	r.Post("/api/v1/articles/delete", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req deleteManyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := articleService.DeleteMany(r.Context(), req.IDs); err != nil {
			log.Error().Err(err).Msg("api: не удалось удалить статьи")
			writeError(w, http.StatusInternalServerError, "failed to delete articles")
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Post("/api/v1/views/{slug}", func(w http.ResponseWriter, r *http.Request) {
		err := articleService.RegisterView(r.Context(), chi.URLParam(r, "slug"))
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "article not found")
		case err != nil:
			log.Error().Err(err).Msg("api: не удалось засчитать просмотр")
			writeError(w, http.StatusInternalServerError, "failed to register view")
		default:
			writeJSON(w, map[string]string{"status": "ok"})
		}
	})

	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.Port), Handler: r}
	metrics.StartServer(ctx, log.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		log.Info().Int("port", cfg.Port).Msg("api: старт")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	log.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type generateRequest struct {
	Keyword     string `json:"keyword"`
	Attribute   string `json:"attribute"`
	MaxArticles int    `json:"max_articles"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type updateRequest struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

type deleteManyRequest struct {
	IDs []int64 `json:"ids"`
}

type articleResponse struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	ImageURL    string     `json:"image_url"`
	SourceURL   string     `json:"source_url"`
	SourceName  string     `json:"source_name"`
	Tags        []string   `json:"tags"`
	Views       int64      `json:"views"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func toArticleResponse(a domain.Article) articleResponse {
	return articleResponse{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       a.Title,
		Excerpt:     a.Excerpt,
		Content:     a.Content,
		Author:      a.Author,
		ImageURL:    a.ImageURL,
		SourceURL:   a.SourceURL,
		SourceName:  a.SourceName,
		Tags:        a.Tags,
		Views:       a.Views,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		PublishedAt: a.PublishedAt,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
