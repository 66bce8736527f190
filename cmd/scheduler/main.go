package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/config"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/queue"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RabbitURL == "" {
		log.Fatal().Msg("scheduler: не указан адрес RabbitMQ (RABBITMQ_URL)")
	}
	jobs, err := queue.NewRabbitGenerationQueue(cfg.RabbitURL, cfg.Queues.Generation)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler: не удалось инициализировать очередь RabbitMQ")
	}
	defer jobs.Close()

	log.Info().Dur("interval", cfg.Scheduler.Interval).Msg("scheduler: старт")

	ticker := time.NewTicker(cfg.Scheduler.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler: остановка")
			return
		case <-ticker.C:
			job := domain.GenerationJob{
				ID:          uuid.NewString(),
				Attribute:   domain.AttributeGameNews,
				RequestedAt: time.Now().UTC(),
				Cause:       domain.JobCauseScheduled,
			}
			if err := jobs.Enqueue(ctx, job); err != nil {
				log.Error().Err(err).Msg("scheduler: не удалось поставить задачу")
				continue
			}
			log.Info().Str("job", job.ID).Msg("scheduler: задача поставлена")
		}
	}
}
