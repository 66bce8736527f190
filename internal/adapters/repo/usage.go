package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

// RecordUsage сохраняет строку учёта токенов.
func (p *Postgres) RecordUsage(ctx context.Context, record domain.UsageRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO api_usage (model, input_tokens, output_tokens, operation, created_at)
VALUES ($1, $2, $3, $4, $5)
`, record.Model, record.InputTokens, record.OutputTokens, record.Operation, record.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "api_usage_insert", "api_usage", start, err)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}
