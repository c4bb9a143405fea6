package scheduler

import (
	"context"
	"time"

	"github.com/skalibog/galilei/internal/notify"
	"github.com/skalibog/galilei/internal/strategy"
	"github.com/skalibog/galilei/pkg/logger"
	"go.uber.org/zap"
)

// Сколько свечей каждого таймфрейма нужно сканеру «Галилей»
const galileiCandles = 100

// RunGalilei периодически прогоняет сканер «Галилей» по всем символам
// и шлет отдельное уведомление на каждый сработавший символ
func (s *Scheduler) RunGalilei(ctx context.Context) error {
	scan := &strategy.GalileiScan{}
	period := time.Duration(s.cfg.Galilei.IntervalMinutes) * time.Minute

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for _, symbol := range s.cfg.Trading.Symbols {
			ok, err := s.checkGalilei(ctx, scan, symbol)
			if err != nil {
				// Ошибка одного символа не останавливает обход остальных
				logger.Warn("Сканер Галилей: символ пропущен",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if err := s.notifier.Send(ctx, notify.FormatGalilei(symbol)); err != nil {
				logger.Error("Не удалось отправить сигнал Галилея", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) checkGalilei(ctx context.Context, scan *strategy.GalileiScan, symbol string) (bool, error) {
	timeout := time.Duration(s.cfg.Analysis.SymbolTimeoutS) * time.Second
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h1, err := s.client.GetKlines(cctx, symbol, "1h", galileiCandles)
	if err != nil {
		return false, err
	}
	m30, err := s.client.GetKlines(cctx, symbol, "30m", galileiCandles)
	if err != nil {
		return false, err
	}
	m5, err := s.client.GetKlines(cctx, symbol, "5m", galileiCandles)
	if err != nil {
		return false, err
	}

	return scan.Check(h1, m30, m5)
}

// WeeklyReporter источник текста еженедельного отчета
type WeeklyReporter interface {
	Report(ctx context.Context, symbols []string) string
}

// RunWeekly отправляет еженедельный обзор по границе недели (понедельник 00:00 UTC)
func (s *Scheduler) RunWeekly(ctx context.Context, reporter WeeklyReporter) error {
	for {
		next := nextWeekStart(time.Now().UTC())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		report := reporter.Report(ctx, s.cfg.Trading.Symbols)
		if err := s.notifier.Send(ctx, report); err != nil {
			logger.Error("Не удалось отправить еженедельный обзор", zap.Error(err))
		}
	}
}

// nextWeekStart ближайший понедельник 00:00 строго после from
func nextWeekStart(from time.Time) time.Time {
	day := from.Truncate(24 * time.Hour)
	daysAhead := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	next := day.AddDate(0, 0, daysAhead)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
