// Package strategy содержит движок принятия решений: чистые детерминированные
// стратегии над серией свечей и состоянием потока. Два режима из истории
// продукта сохранены как независимые стратегии и выбираются конфигурацией,
// а не смешиваются.
package strategy

import (
	"fmt"

	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/indicators"
	"github.com/skalibog/galilei/pkg/models"
)

// FlowInputs состояние потока на момент оценки, передается значениями:
// стратегия не владеет никаким состоянием
type FlowInputs struct {
	CVD     float64
	PrevCVD float64
	OIDelta float64
}

// Strategy движок принятия решения по одному символу
type Strategy interface {
	Name() string
	Evaluate(candles []*models.Candle, flow FlowInputs) (*models.SignalResult, error)
}

// New создает стратегию по имени из конфигурации
func New(cfg config.AnalysisConfig) (Strategy, error) {
	switch cfg.Strategy {
	case "indicator":
		return &IndicatorStrategy{cfg: cfg}, nil
	case "flow":
		return &FlowStrategy{}, nil
	default:
		return nil, fmt.Errorf("неизвестная стратегия %q", cfg.Strategy)
	}
}

// priceChangePct процент изменения цены с защитой от нулевого знаменателя
func priceChangePct(closePrice, prevClose float64) float64 {
	if prevClose == 0 {
		return 0.0
	}
	return (closePrice - prevClose) / prevClose * 100
}

// classifyFlow трехсторонняя классификация направления потока.
// Рост OI в обоих сильных случаях намеренный: рост открытого интереса при
// движении цены в любую сторону, подтвержденный совпадающим потоком,
// означает набор новых позиций, а не разгрузку.
func classifyFlow(closePrice, prevClose, oiDelta, cvd, prevCVD float64) string {
	priceUp := closePrice > prevClose
	priceDown := closePrice < prevClose
	oiUp := oiDelta > 0
	cvdUp := cvd > prevCVD
	cvdDown := cvd < prevCVD

	switch {
	case priceUp && oiUp && cvdUp:
		return models.CommentStrongLong
	case priceDown && oiUp && cvdDown:
		return models.CommentStrongShort
	default:
		return models.CommentNeutral
	}
}

// baseResult заполняет общие поля результата по последним двум свечам
func baseResult(name string, candles []*models.Candle, flow FlowInputs) *models.SignalResult {
	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	return &models.SignalResult{
		Symbol:         last.Symbol,
		Interval:       last.Interval,
		Strategy:       name,
		Timestamp:      last.CloseTime,
		Close:          last.Close,
		PrevClose:      prev.Close,
		PriceChangePct: priceChangePct(last.Close, prev.Close),
		OIDelta:        flow.OIDelta,
		CVD:            flow.CVD,
		PrevCVD:        flow.PrevCVD,
		Comment:        classifyFlow(last.Close, prev.Close, flow.OIDelta, flow.CVD, flow.PrevCVD),
	}
}

func checkLength(candles []*models.Candle) error {
	if len(candles) < 2 {
		return fmt.Errorf("оценка сигнала: %d свечей: %w", len(candles), indicators.ErrInsufficientData)
	}
	return nil
}
