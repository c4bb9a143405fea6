// Package weekly строит еженедельный обзор по глубокой истории свечей.
// Это статистический проход по лучшей доступной истории, а не строгий
// симулятор: пропуски данных допустимы.
package weekly

import (
	"context"
	"fmt"
	"strings"

	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/notify"
	"github.com/skalibog/galilei/pkg/logger"
	"github.com/skalibog/galilei/pkg/models"
	"go.uber.org/zap"
)

// MarketData источник глубокой истории свечей
type MarketData interface {
	GetKlinesRange(ctx context.Context, symbol, interval string, total int) ([]*models.Candle, error)
}

// Stats сводка по символу за период
type Stats struct {
	Symbol      string
	Interval    string
	Candles     int
	ChangePct   float64
	High        float64
	Low         float64
	TotalVolume float64
	UpCandles   int
	DownCandles int
}

// Analyzer еженедельный аналитический проход
type Analyzer struct {
	client   MarketData
	interval string
	candles  int
}

// NewAnalyzer создает аналитик еженедельного отчета
func NewAnalyzer(client MarketData, cfg config.WeeklyConfig) *Analyzer {
	return &Analyzer{
		client:   client,
		interval: cfg.Interval,
		candles:  cfg.Candles,
	}
}

// Compute считает сводку по упорядоченной серии свечей
func Compute(candles []*models.Candle) Stats {
	stats := Stats{Candles: len(candles)}
	if len(candles) == 0 {
		return stats
	}

	first := candles[0]
	last := candles[len(candles)-1]
	stats.Symbol = last.Symbol
	stats.Interval = last.Interval
	stats.High = first.High
	stats.Low = first.Low

	if first.Open != 0 {
		stats.ChangePct = (last.Close - first.Open) / first.Open * 100
	}

	for _, c := range candles {
		if c.High > stats.High {
			stats.High = c.High
		}
		if c.Low < stats.Low {
			stats.Low = c.Low
		}
		stats.TotalVolume += c.Volume
		switch {
		case c.Close > c.Open:
			stats.UpCandles++
		case c.Close < c.Open:
			stats.DownCandles++
		}
	}

	return stats
}

// Report собирает текст отчета по всем символам. Ошибка по одному символу
// превращается в строку отчета, остальные символы обрабатываются дальше
func (a *Analyzer) Report(ctx context.Context, symbols []string) string {
	lines := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		candles, err := a.client.GetKlinesRange(ctx, symbol, a.interval, a.candles)
		if err != nil {
			logger.Warn("Еженедельный отчет: история недоступна",
				zap.String("symbol", symbol), zap.Error(err))
			lines = append(lines, notify.FormatError(symbol, err))
			continue
		}
		lines = append(lines, formatStats(Compute(candles)))
	}

	var b strings.Builder
	b.WriteString("📊 Еженедельный обзор")
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func formatStats(s Stats) string {
	return fmt.Sprintf("%s %s: %+.2f%% | max %.4f | min %.4f | объем %.0f | свечи %d↑/%d↓",
		s.Symbol, s.Interval, s.ChangePct, s.High, s.Low, s.TotalVolume, s.UpCandles, s.DownCandles)
}
