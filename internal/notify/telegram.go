package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/skalibog/galilei/internal/config"
)

// Notifier канал доставки уведомлений. Ошибка отправки логируется
// вызывающей стороной и никогда не прерывает цикл оценки
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Telegram отправляет сообщения через Bot API, только исходящие
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

// NewTelegram создает нотификатор Telegram
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	client := resty.New().
		SetBaseURL("https://api.telegram.org").
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Telegram{
		client: client,
		token:  cfg.Token,
		chatID: cfg.ChatID,
	}
}

// Send отправляет одно текстовое сообщение в настроенный чат
func (t *Telegram) Send(ctx context.Context, text string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": t.chatID,
			"text":    text,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		return fmt.Errorf("ошибка отправки в Telegram: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("Telegram ответил статусом %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
