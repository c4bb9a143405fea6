package scheduler

import (
	"context"
	"math"
	"time"

	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/notify"
	"github.com/skalibog/galilei/pkg/logger"
	"go.uber.org/zap"
)

// OIFetcher источник текущего открытого интереса
type OIFetcher interface {
	GetOpenInterest(ctx context.Context, symbol string) (float64, error)
}

// OIWatcher вахта открытого интереса: держит базовое значение по символу
// и шлет уведомление, когда отклонение от базы превышает порог.
// После срабатывания база сдвигается на текущее значение
type OIWatcher struct {
	client    OIFetcher
	notifier  notify.Notifier
	symbols   []string
	threshold float64
	poll      time.Duration
	base      map[string]float64
}

// NewOIWatcher создает вахту открытого интереса
func NewOIWatcher(client OIFetcher, notifier notify.Notifier, symbols []string, cfg config.OIAlertConfig) *OIWatcher {
	return &OIWatcher{
		client:    client,
		notifier:  notifier,
		symbols:   symbols,
		threshold: cfg.Threshold,
		poll:      time.Duration(cfg.PollSeconds) * time.Second,
		base:      make(map[string]float64),
	}
}

// Run опрашивает открытый интерес до отмены контекста
func (w *OIWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		w.poll1(ctx)
	}
}

// poll1 один обход всех символов
func (w *OIWatcher) poll1(ctx context.Context) {
	for _, symbol := range w.symbols {
		current, err := w.client.GetOpenInterest(ctx, symbol)
		if err != nil {
			logger.Warn("Вахта OI: символ недоступен",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		base, ok := w.base[symbol]
		if !ok || base == 0 {
			w.base[symbol] = current
			continue
		}

		change := math.Abs(current-base) / base
		if change <= w.threshold {
			continue
		}

		msg := notify.FormatOIAlert(symbol, base, current, change*100)
		if err := w.notifier.Send(ctx, msg); err != nil {
			logger.Error("Не удалось отправить алерт OI", zap.Error(err))
		}
		w.base[symbol] = current
	}
}
