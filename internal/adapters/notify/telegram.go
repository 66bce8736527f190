package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/infra/metrics"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram шлёт оператору итоги запуска конвейера.
type Telegram struct {
	bot    sender
	chatID int64
}

var _ domain.Notifier = (*Telegram)(nil)

// NewTelegram создаёт уведомитель. bot может быть nil,
// тогда уведомления молча пропускаются.
func NewTelegram(bot sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// NotifyRunFinished отправляет сводку запуска в чат оператора.
func (t *Telegram) NotifyRunFinished(_ context.Context, summary domain.RunSummary) error {
	if t.bot == nil || t.chatID == 0 {
		return nil
	}

	text := fmt.Sprintf(
		"Генерация завершена.\nСобрано новостей: %d\nПропущено: %d\nСоздано статей: %d\nОшибок: %d",
		summary.Collected, summary.Skipped, summary.Generated, summary.Failed,
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	start := time.Now()
	_, err := t.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(t.chatID, 10), start, err)
	if err != nil {
		return fmt.Errorf("notify run finished: %w", err)
	}
	return nil
}
